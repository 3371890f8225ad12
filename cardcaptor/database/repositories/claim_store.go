package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/database/models"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/claim"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/logger"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/rarity"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// ClaimStore backs the claim arbitrator. On Postgres each claim runs
// serializable with the unit row locked; SQLite serializes writers itself.
type ClaimStore struct {
	db       *bun.DB
	postgres bool
}

var _ claim.Store = (*ClaimStore)(nil)

func NewClaimStore(db *bun.DB) *ClaimStore {
	return &ClaimStore{
		db:       db,
		postgres: db.Dialect().Name() == dialect.PG,
	}
}

func (s *ClaimStore) GetUnit(ctx context.Context, spawnID int64) (*cards.SpawnedUnit, error) {
	row := new(models.SpawnedUnit)
	err := s.db.NewSelect().
		Model(row).
		Relation("Card").
		Where("su.id = ?", spawnID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: spawn %d", claim.ErrNotFound, spawnID)
		}
		return nil, err
	}
	return toUnit(row), nil
}

func (s *ClaimStore) WithClaimTx(ctx context.Context, fn func(ctx context.Context, tx claim.Tx) error) error {
	var opts *sql.TxOptions
	if s.postgres {
		opts = &sql.TxOptions{Isolation: sql.LevelSerializable}
	}

	err := s.db.RunInTx(ctx, opts, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &claimTx{tx: tx, lockRows: s.postgres})
	})
	if err != nil && isRetryable(err) {
		return fmt.Errorf("%w: %w", claim.ErrConflict, err)
	}
	return err
}

type claimTx struct {
	tx       bun.Tx
	lockRows bool
}

func (t *claimTx) LockUnit(ctx context.Context, spawnID int64) (*cards.SpawnedUnit, error) {
	row := new(models.SpawnedUnit)
	q := t.tx.NewSelect().
		Model(row).
		Where("id = ?", spawnID)
	if t.lockRows {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: spawn %d", claim.ErrNotFound, spawnID)
		}
		return nil, err
	}

	row.Card = new(models.CardTemplate)
	err := t.tx.NewSelect().
		Model(row.Card).
		Where("id = ?", row.CardID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %d: %w", row.CardID, err)
	}
	return toUnit(row), nil
}

func (t *claimTx) OwnershipExists(ctx context.Context, userID string, cardID int64, tier rarity.Tier) (bool, error) {
	return t.tx.NewSelect().
		Model((*models.OwnershipRecord)(nil)).
		Where("user_id = ?", userID).
		Where("card_id = ?", cardID).
		Where("rarity = ?", string(tier)).
		Exists(ctx)
}

func (t *claimTx) MarkClaimed(ctx context.Context, spawnID int64, userID string, at time.Time) (bool, error) {
	ql := logger.NewQueryLogger("claim", "spawned_units")
	res, err := t.tx.NewUpdate().
		Model((*models.SpawnedUnit)(nil)).
		Set("claimed = ?", true).
		Set("claimed_by = ?", userID).
		Set("claimed_at = ?", at).
		Where("id = ?", spawnID).
		Where("claimed = ?", false).
		Exec(ctx)
	if err != nil {
		ql.Log(err, 0)
		return false, err
	}

	n, err := res.RowsAffected()
	ql.Log(err, n)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *claimTx) InsertOwnership(ctx context.Context, record *cards.OwnershipRecord) error {
	row := &models.OwnershipRecord{
		UserID:     record.UserID,
		Username:   record.Username,
		CardID:     record.CardID,
		Rarity:     string(record.Rarity),
		AcquiredAt: record.AcquiredAt,
	}

	ql := logger.NewQueryLogger("insert", "ownership_records")
	_, err := t.tx.NewInsert().
		Model(row).
		Returning("id").
		Exec(ctx)
	ql.Log(err, 1)
	if err != nil {
		if isUniqueViolation(err) {
			return claim.ErrDuplicateOwnership
		}
		return err
	}

	record.ID = row.ID
	return nil
}
