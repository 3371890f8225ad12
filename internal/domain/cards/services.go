package cards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
)

// Catalog is the registry of card templates. Writes only come from admin commands.
type Catalog struct {
	repository Repository
}

func NewCatalog(repository Repository) *Catalog {
	return &Catalog{
		repository: repository,
	}
}

func (c *Catalog) ListTemplates(ctx context.Context) ([]CardTemplate, error) {
	all, err := c.repository.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list card templates: %w", err)
	}

	templates := make([]CardTemplate, 0, len(all))
	for _, t := range all {
		if t == nil {
			continue
		}
		templates = append(templates, *t)
	}
	return templates, nil
}

func (c *Catalog) AddTemplate(ctx context.Context, name, artRef string) (CardTemplate, error) {
	template, err := NewCardTemplate(name, artRef)
	if err != nil {
		return CardTemplate{}, err
	}

	if err := c.repository.Create(ctx, &template); err != nil {
		if errors.Is(err, ErrDuplicateReference) {
			return CardTemplate{}, err
		}
		return CardTemplate{}, fmt.Errorf("failed to add card template: %w", err)
	}

	slog.Info("Card template added",
		slog.String("type", "sys"),
		slog.Int64("card_id", template.ID),
		slog.String("card_name", template.Name),
		slog.String("art_ref", template.ArtRef))
	return template, nil
}

func (c *Catalog) GetByArtRef(ctx context.Context, artRef string) (*CardTemplate, error) {
	return c.repository.GetByArtRef(ctx, strings.TrimSpace(artRef))
}

// RemoveTemplate deletes a template that was never spawned. Spawned templates are
// referenced by ownership records and must stay.
func (c *Catalog) RemoveTemplate(ctx context.Context, artRef string) error {
	artRef = strings.TrimSpace(artRef)
	if err := c.repository.Delete(ctx, artRef); err != nil {
		if errors.Is(err, ErrTemplateNotFound) || errors.Is(err, ErrTemplateInUse) {
			return err
		}
		return fmt.Errorf("failed to remove card template: %w", err)
	}

	slog.Info("Card template removed",
		slog.String("type", "sys"),
		slog.String("art_ref", artRef))
	return nil
}

// templateSearchItems implements fuzzy.Source
type templateSearchItems []CardTemplate

func (items templateSearchItems) Len() int {
	return len(items)
}

func (items templateSearchItems) String(i int) string {
	return strings.ToLower(items[i].Name)
}

// FindByName returns templates ranked by fuzzy match against query. An empty
// query returns the first limit templates.
func (c *Catalog) FindByName(ctx context.Context, query string, limit int) ([]CardTemplate, error) {
	templates, err := c.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return templates[:min(limit, len(templates))], nil
	}

	matches := fuzzy.FindFrom(query, templateSearchItems(templates))
	out := make([]CardTemplate, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, templates[m.Index])
	}
	return out, nil
}

// NameFromFilename turns "fire_ball-card.png" into "Fire Ball Card".
func NameFromFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)

	words := strings.Fields(base)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
