package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	botconfig "github.com/cardcaptor-bot/cardcaptor/cardcaptor/config"
	"github.com/gosimple/slug"
)

var (
	ErrArtNotFound    = errors.New("art not found")
	ErrUnsupportedArt = errors.New("unsupported art file type")
	ErrInvalidArtKey  = errors.New("invalid art key")
)

var contentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// ArtObject is one stored file. Valid is false for files the bot cannot use as card art.
type ArtObject struct {
	Key   string
	Size  int64
	Valid bool
}

// ArtStore holds card art by key. Keys are flat file names such as "fire-ball.png".
type ArtStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context) ([]ArtObject, error)
	// Location describes where the art lives, for admin output.
	Location() string
}

func IsAllowedArt(filename string) bool {
	return slices.Contains(botconfig.AllowedArtExtensions, strings.ToLower(filepath.Ext(filename)))
}

// ArtKey builds the storage key for a card named name whose upload was called filename.
func ArtKey(name, filename string) (string, error) {
	if !IsAllowedArt(filename) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedArt, filepath.Ext(filename))
	}
	base := slug.Make(name)
	if base == "" {
		return "", fmt.Errorf("%w: name %q has no usable characters", ErrInvalidArtKey, name)
	}
	return base + strings.ToLower(filepath.Ext(filename)), nil
}

// ContentType falls back to application/octet-stream for unknown extensions.
func ContentType(key string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(key))]; ok {
		return ct
	}
	return "application/octet-stream"
}

func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidArtKey, key)
	}
	return nil
}

type SpacesArtStore struct {
	client   *s3.Client
	bucket   string
	region   string
	CardRoot string
}

// NewSpacesArtStore connects to a DigitalOcean Spaces bucket. Objects live under cardRoot.
func NewSpacesArtStore(ctx context.Context, spacesKey, spacesSecret, region, bucket, cardRoot string) (*SpacesArtStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(spacesKey, spacesSecret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load spaces config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.digitaloceanspaces.com", region))
	})

	return &SpacesArtStore{
		client:   client,
		bucket:   bucket,
		region:   region,
		CardRoot: strings.Trim(cardRoot, "/"),
	}, nil
}

func (s *SpacesArtStore) objectKey(key string) string {
	if s.CardRoot == "" {
		return key
	}
	return s.CardRoot + "/" + key
}

func (s *SpacesArtStore) Put(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(s.objectKey(key)),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(ContentType(key)),
		CacheControl: aws.String("public, max-age=31536000"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (s *SpacesArtStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtNotFound, key)
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (s *SpacesArtStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrArtNotFound, key)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *SpacesArtStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return true, nil
}

func (s *SpacesArtStore) List(ctx context.Context) ([]ArtObject, error) {
	prefix := ""
	if s.CardRoot != "" {
		prefix = s.CardRoot + "/"
	}

	var objects []ArtObject
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1000),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list art: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			key := strings.TrimPrefix(*obj.Key, prefix)
			// nested "folders" are not card art
			if key == "" || strings.Contains(key, "/") {
				continue
			}
			objects = append(objects, ArtObject{
				Key:   key,
				Size:  aws.ToInt64(obj.Size),
				Valid: IsAllowedArt(key),
			})
		}
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (s *SpacesArtStore) Location() string {
	return fmt.Sprintf("spaces://%s/%s (%s)", s.bucket, s.CardRoot, s.region)
}

func isS3NotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}

// DiskArtStore keeps art as plain files in one directory.
type DiskArtStore struct {
	dir string
}

func NewDiskArtStore(dir string) (*DiskArtStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create art folder %s: %w", dir, err)
	}
	return &DiskArtStore{dir: dir}, nil
}

func (d *DiskArtStore) path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(d.dir, key), nil
}

// Put writes through a temp file so readers never see a partial image.
func (d *DiskArtStore) Put(ctx context.Context, key string, data []byte) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (d *DiskArtStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := d.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtNotFound, key)
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (d *DiskArtStore) Delete(ctx context.Context, key string) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrArtNotFound, key)
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (d *DiskArtStore) Exists(ctx context.Context, key string) (bool, error) {
	path, err := d.path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return info.Mode().IsRegular(), nil
}

// List skips subdirectories and staged uploads.
func (d *DiskArtStore) List(ctx context.Context) ([]ArtObject, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list art: %w", err)
	}

	objects := make([]ArtObject, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			slog.Warn("Skipping unreadable art file",
				slog.String("type", "sys"),
				slog.String("file", entry.Name()),
				slog.Any("error", err))
			continue
		}
		objects = append(objects, ArtObject{
			Key:   entry.Name(),
			Size:  info.Size(),
			Valid: IsAllowedArt(entry.Name()),
		})
	}
	return objects, nil
}

func (d *DiskArtStore) Location() string {
	return d.dir
}

// DirExists reports whether the art folder is present on disk.
func (d *DiskArtStore) DirExists() bool {
	info, err := os.Stat(d.dir)
	return err == nil && info.IsDir()
}
