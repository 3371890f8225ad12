package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
)

// SyncCatalog registers a template for every valid art file that has none yet,
// so art dropped straight into storage becomes spawnable.
func SyncCatalog(ctx context.Context, art ArtStore, catalog *cards.Catalog) (int, error) {
	objects, err := art.List(ctx)
	if err != nil {
		return 0, err
	}

	templates, err := catalog.ListTemplates(ctx)
	if err != nil {
		return 0, err
	}
	known := make(map[string]struct{}, len(templates))
	for _, t := range templates {
		known[t.ArtRef] = struct{}{}
	}

	added := 0
	for _, obj := range objects {
		if !obj.Valid {
			continue
		}
		if _, ok := known[obj.Key]; ok {
			continue
		}

		_, err := catalog.AddTemplate(ctx, cards.NameFromFilename(obj.Key), obj.Key)
		switch {
		case err == nil:
			added++
		case errors.Is(err, cards.ErrDuplicateReference):
			// registered concurrently by an upload
		default:
			return added, fmt.Errorf("failed to register %s: %w", obj.Key, err)
		}
	}

	if added > 0 {
		slog.Info("Registered art from storage",
			slog.String("type", "sys"),
			slog.Int("added", added),
			slog.Int("scanned", len(objects)))
	}
	return added, nil
}
