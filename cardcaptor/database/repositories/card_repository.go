package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/config"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/database/models"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/logger"
	"github.com/uptrace/bun"
)

type CardRepository struct {
	db *bun.DB
}

var _ cards.Repository = (*CardRepository)(nil)

func NewCardRepository(db *bun.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) Create(ctx context.Context, card *cards.CardTemplate) error {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	row := &models.CardTemplate{
		Name:      card.Name,
		ArtRef:    card.ArtRef,
		CreatedAt: time.Now().UTC(),
	}

	ql := logger.NewQueryLogger("insert", "card_templates")
	_, err := r.db.NewInsert().
		Model(row).
		Returning("id").
		Exec(ctx)
	ql.Log(err, 1)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", cards.ErrDuplicateReference, card.ArtRef)
		}
		return err
	}

	card.ID = row.ID
	card.CreatedAt = row.CreatedAt
	return nil
}

func (r *CardRepository) GetAll(ctx context.Context) ([]*cards.CardTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	var rows []*models.CardTemplate
	ql := logger.NewQueryLogger("select", "card_templates")
	err := r.db.NewSelect().
		Model(&rows).
		Order("id ASC").
		Scan(ctx)
	ql.Log(err, int64(len(rows)))
	if err != nil {
		return nil, err
	}

	out := make([]*cards.CardTemplate, len(rows))
	for i, row := range rows {
		out[i] = toTemplate(row)
	}
	return out, nil
}

func (r *CardRepository) GetByArtRef(ctx context.Context, artRef string) (*cards.CardTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	row := new(models.CardTemplate)
	err := r.db.NewSelect().
		Model(row).
		Where("art_ref = ?", artRef).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", cards.ErrTemplateNotFound, artRef)
		}
		return nil, err
	}
	return toTemplate(row), nil
}

// Delete removes a template only if it was never spawned.
func (r *CardRepository) Delete(ctx context.Context, artRef string) error {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := new(models.CardTemplate)
		err := tx.NewSelect().
			Model(row).
			Where("art_ref = ?", artRef).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", cards.ErrTemplateNotFound, artRef)
			}
			return err
		}

		spawned, err := tx.NewSelect().
			Model((*models.SpawnedUnit)(nil)).
			Where("card_id = ?", row.ID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if spawned {
			return fmt.Errorf("%w: %s", cards.ErrTemplateInUse, artRef)
		}

		ql := logger.NewQueryLogger("delete", "card_templates")
		res, err := tx.NewDelete().
			Model((*models.CardTemplate)(nil)).
			Where("id = ?", row.ID).
			Exec(ctx)
		var n int64
		if err == nil {
			n, _ = res.RowsAffected()
		}
		ql.Log(err, n)
		return err
	})
}

type CatalogCounts struct {
	Templates int
	Spawned   int
	Claimed   int
	Owners    int
}

func (r *CardRepository) Counts(ctx context.Context) (CatalogCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	var (
		c   CatalogCounts
		err error
	)
	if c.Templates, err = r.db.NewSelect().Model((*models.CardTemplate)(nil)).Count(ctx); err != nil {
		return c, fmt.Errorf("failed to count templates: %w", err)
	}
	if c.Spawned, err = r.db.NewSelect().Model((*models.SpawnedUnit)(nil)).Count(ctx); err != nil {
		return c, fmt.Errorf("failed to count spawned units: %w", err)
	}
	if c.Claimed, err = r.db.NewSelect().Model((*models.SpawnedUnit)(nil)).Where("claimed = ?", true).Count(ctx); err != nil {
		return c, fmt.Errorf("failed to count claimed units: %w", err)
	}
	if err = r.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT user_id) FROM ownership_records").Scan(&c.Owners); err != nil {
		return c, fmt.Errorf("failed to count owners: %w", err)
	}
	return c, nil
}
