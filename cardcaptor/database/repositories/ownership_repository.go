package repositories

import (
	"context"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/config"
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/database/models"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/collection"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/logger"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/rarity"
	"github.com/uptrace/bun"
)

// OwnershipRepository reads the ownership ledger. Rows are only written by ClaimStore.
type OwnershipRepository struct {
	db *bun.DB
}

var _ collection.Repository = (*OwnershipRepository)(nil)

func NewOwnershipRepository(db *bun.DB) *OwnershipRepository {
	return &OwnershipRepository{db: db}
}

func (r *OwnershipRepository) RecordsFor(ctx context.Context, userID string) ([]cards.OwnershipRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	var rows []*models.OwnershipRecord
	ql := logger.NewQueryLogger("select", "ownership_records")
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Card").
		Where("orec.user_id = ?", userID).
		Order("orec.acquired_at DESC", "orec.id DESC").
		Scan(ctx)
	ql.Log(err, int64(len(rows)))
	if err != nil {
		return nil, err
	}

	records := make([]cards.OwnershipRecord, len(rows))
	for i, row := range rows {
		records[i] = toRecord(row)
	}
	return records, nil
}

func (r *OwnershipRepository) Exists(ctx context.Context, userID string, cardID int64, tier rarity.Tier) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	return r.db.NewSelect().
		Model((*models.OwnershipRecord)(nil)).
		Where("user_id = ?", userID).
		Where("card_id = ?", cardID).
		Where("rarity = ?", string(tier)).
		Exists(ctx)
}

func (r *OwnershipRepository) ClaimedPairs(ctx context.Context) ([]cards.Pair, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	var rows []struct {
		CardID int64  `bun:"card_id"`
		Rarity string `bun:"rarity"`
	}
	ql := logger.NewQueryLogger("select_distinct", "ownership_records")
	err := r.db.NewSelect().
		Model((*models.OwnershipRecord)(nil)).
		Column("card_id", "rarity").
		Distinct().
		Scan(ctx, &rows)
	ql.Log(err, int64(len(rows)))
	if err != nil {
		return nil, err
	}

	pairs := make([]cards.Pair, len(rows))
	for i, row := range rows {
		pairs[i] = cards.Pair{CardID: row.CardID, Rarity: rarity.Tier(row.Rarity)}
	}
	return pairs, nil
}
