package claim

import (
	"context"
	"errors"
	"time"

	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/rarity"
)

var (
	ErrNotFound         = errors.New("spawned card not found")
	ErrStoreUnavailable = errors.New("claim store unavailable")

	// ErrConflict is returned by a Store when the transaction lost a
	// serialization race and may be retried as a whole.
	ErrConflict = errors.New("claim transaction conflict")
	// ErrDuplicateOwnership is returned by Tx.InsertOwnership when the
	// (user, card, rarity) unique constraint rejects the row.
	ErrDuplicateOwnership = errors.New("ownership already recorded")
)

// Store is the persistence side of a claim. Implementations must give
// WithClaimTx serializable isolation and roll back when fn returns an error.
type Store interface {
	GetUnit(ctx context.Context, spawnID int64) (*cards.SpawnedUnit, error)
	WithClaimTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	// LockUnit loads the unit and holds it until the transaction ends.
	LockUnit(ctx context.Context, spawnID int64) (*cards.SpawnedUnit, error)
	OwnershipExists(ctx context.Context, userID string, cardID int64, tier rarity.Tier) (bool, error)
	// MarkClaimed moves the unit from open to claimed. It reports false when
	// the unit was no longer open.
	MarkClaimed(ctx context.Context, spawnID int64, userID string, at time.Time) (bool, error)
	InsertOwnership(ctx context.Context, record *cards.OwnershipRecord) error
}
