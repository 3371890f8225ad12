package repositories

import (
	"context"
	"fmt"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/config"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/database/models"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/logger"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/spawn"
	"github.com/uptrace/bun"
)

type SpawnRepository struct {
	db *bun.DB
}

var _ spawn.Repository = (*SpawnRepository)(nil)

func NewSpawnRepository(db *bun.DB) *SpawnRepository {
	return &SpawnRepository{db: db}
}

// CreateUnits inserts a whole session in one transaction.
func (r *SpawnRepository) CreateUnits(ctx context.Context, units []*cards.SpawnedUnit) error {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	ql := logger.NewQueryLogger("insert", "spawned_units")
	ids := make([]int64, len(units))
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for i, u := range units {
			row := &models.SpawnedUnit{
				SessionID: u.SessionID,
				CardID:    u.CardID,
				Rarity:    string(u.Rarity),
				CreatedAt: u.CreatedAt,
			}
			if _, err := tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert unit for card %d: %w", u.CardID, err)
			}
			ids[i] = row.ID
		}
		return nil
	})
	ql.Log(err, int64(len(units)))
	if err != nil {
		return err
	}

	for i, u := range units {
		u.ID = ids[i]
	}
	return nil
}

func (r *SpawnRepository) Session(ctx context.Context, sessionID string) ([]cards.SpawnedUnit, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	var rows []*models.SpawnedUnit
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Card").
		Where("su.session_id = ?", sessionID).
		Order("su.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	units := make([]cards.SpawnedUnit, len(rows))
	for i, row := range rows {
		units[i] = *toUnit(row)
	}
	return units, nil
}
