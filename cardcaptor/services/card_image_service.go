package services

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cardcaptor-bot/cardcaptor/internal/domain/rarity"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

//go:embed templates/spawn.html
var spawnTemplateSource string

var spawnTemplate = template.Must(template.New("spawn").Parse(spawnTemplateSource))

var ErrNothingToRender = errors.New("no cards to render")

// RenderCard is what the composite image needs to know about one spawned unit.
type RenderCard struct {
	Name   string
	Rarity rarity.Tier
	ArtRef string
}

type cardView struct {
	Name    string
	Initial string
	Label   string
	Emoji   string
	Color   template.CSS
	ArtURI  template.URL
}

type CardImageOptions struct {
	ChromePath  string
	Concurrency int
	CacheSize   int
	Timeout     time.Duration
}

// CardImageService renders spawned cards side by side into one PNG.
type CardImageService struct {
	art     ArtStore
	cache   *lru.Cache
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  *slog.Logger

	allocatorOpts []chromedp.ExecAllocatorOption
	capture       func(ctx context.Context, html string) ([]byte, error)
}

func NewCardImageService(art ArtStore, opts CardImageOptions) (*CardImageService, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}

	cache, err := lru.New(opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create art cache: %w", err)
	}

	s := &CardImageService{
		art:     art,
		cache:   cache,
		sem:     semaphore.NewWeighted(int64(opts.Concurrency)),
		timeout: opts.Timeout,
		logger:  slog.With(slog.String("service", "card_image")),
	}

	s.allocatorOpts = append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if opts.ChromePath != "" {
		s.allocatorOpts = append(s.allocatorOpts, chromedp.ExecPath(opts.ChromePath))
	}
	s.capture = s.screenshot
	return s, nil
}

// Render never fails because of missing art; those cards get a placeholder.
func (s *CardImageService) Render(ctx context.Context, cards []RenderCard) ([]byte, error) {
	if len(cards) == 0 {
		return nil, ErrNothingToRender
	}
	start := time.Now()

	html, err := s.BuildHTML(ctx, cards)
	if err != nil {
		return nil, err
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("render queue: %w", err)
	}
	defer s.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	img, err := s.capture(ctx, html)
	if err != nil {
		s.logger.Error("Failed to render spawn image",
			slog.String("type", "sys"),
			slog.Int("cards", len(cards)),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to render cards: %w", err)
	}

	s.logger.Debug("Rendered spawn image",
		slog.String("type", "sys"),
		slog.Int("cards", len(cards)),
		slog.Int("image_size", len(img)),
		slog.Duration("elapsed", time.Since(start)))
	return img, nil
}

// BuildHTML fetches all art concurrently and fills the spawn template.
func (s *CardImageService) BuildHTML(ctx context.Context, cards []RenderCard) (string, error) {
	views := make([]cardView, len(cards))

	g, gctx := errgroup.WithContext(ctx)
	for i, card := range cards {
		i, card := i, card
		meta, err := rarity.Metadata(card.Rarity)
		if err != nil {
			meta, _ = rarity.Metadata(rarity.Common)
		}
		views[i] = cardView{
			Name:    card.Name,
			Initial: initial(card.Name),
			Label:   meta.Label,
			Emoji:   meta.Emoji,
			Color:   template.CSS(fmt.Sprintf("#%06x", meta.Color)),
		}

		g.Go(func() error {
			views[i].ArtURI = s.artURI(gctx, card.ArtRef)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := spawnTemplate.Execute(&buf, struct{ Cards []cardView }{views}); err != nil {
		return "", fmt.Errorf("failed to execute spawn template: %w", err)
	}
	return buf.String(), nil
}

// Invalidate drops cached art for ref, after it was replaced or deleted.
func (s *CardImageService) Invalidate(ref string) {
	s.cache.Remove(ref)
}

func (s *CardImageService) artURI(ctx context.Context, ref string) template.URL {
	if ref == "" {
		return ""
	}
	if cached, ok := s.cache.Get(ref); ok {
		return cached.(template.URL)
	}

	data, err := s.art.Get(ctx, ref)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, ErrArtNotFound) {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "Art unavailable, using placeholder",
			slog.String("type", "sys"),
			slog.String("art_ref", ref),
			slog.Any("error", err))
		return ""
	}

	uri := template.URL("data:" + ContentType(ref) + ";base64," + base64.StdEncoding.EncodeToString(data))
	s.cache.Add(ref, uri)
	return uri
}

func (s *CardImageService) screenshot(ctx context.Context, html string) ([]byte, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, s.allocatorOpts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancel()

	var img []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitVisible("#spawn", chromedp.ByID),
		chromedp.Screenshot("#spawn", &img, chromedp.ByID),
	)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return strings.ToUpper(string(r))
}
