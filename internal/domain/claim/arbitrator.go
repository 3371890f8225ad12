package claim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/rarity"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = 50 * time.Millisecond
	DefaultTxTimeout   = 5 * time.Second
)

// errOwnedOnInsert forces a rollback when the unique index caught a duplicate
// that the existence check missed.
var errOwnedOnInsert = errors.New("ownership inserted concurrently")

// Arbitrator is the only writer of claim state and ownership records.
type Arbitrator struct {
	store       Store
	locks       *KeyedLocker
	now         func() time.Time
	maxAttempts int
	backoff     time.Duration
	txTimeout   time.Duration
}

type Option func(*Arbitrator)

func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(a *Arbitrator) {
		a.maxAttempts = max(maxAttempts, 1)
		a.backoff = backoff
	}
}

func WithTxTimeout(d time.Duration) Option {
	return func(a *Arbitrator) { a.txTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(a *Arbitrator) { a.now = now }
}

func NewArbitrator(store Store, opts ...Option) *Arbitrator {
	a := &Arbitrator{
		store:       store,
		locks:       NewKeyedLocker(),
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultBackoff,
		txTimeout:   DefaultTxTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Claim resolves one claim attempt. AlreadyClaimed and UserAlreadyOwns are
// outcomes, not errors. Errors are ErrNotFound or wrap ErrStoreUnavailable.
func (a *Arbitrator) Claim(ctx context.Context, spawnID int64, userID, username string) (Result, error) {
	unit, err := a.store.GetUnit(ctx, spawnID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	// claimed is terminal, no need to queue behind the lock
	if unit.Claimed() {
		return Result{Outcome: AlreadyClaimed, Unit: *unit}, nil
	}

	// always spawn first, then owner, so two claims never wait on each other in a cycle
	unlockSpawn := a.locks.Lock(spawnKey(spawnID))
	defer unlockSpawn()
	unlockOwner := a.locks.Lock(ownerKey(userID, unit.CardID, unit.Rarity))
	defer unlockOwner()

	// a cancelled interaction must not abandon a half-finished claim
	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.txTimeout)
	defer cancel()

	for attempt := 1; ; attempt++ {
		res, err := a.attempt(txCtx, spawnID, userID, username)
		switch {
		case err == nil:
			a.logOutcome(res, userID, attempt)
			return res, nil
		case errors.Is(err, ErrNotFound):
			return Result{}, err
		case errors.Is(err, ErrConflict) && attempt < a.maxAttempts:
			slog.Warn("Claim transaction conflict, retrying",
				slog.String("type", "db"),
				slog.Int64("spawn_id", spawnID),
				slog.Int("attempt", attempt))
			if !sleepCtx(txCtx, a.backoff*time.Duration(attempt)) {
				return Result{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, txCtx.Err())
			}
		default:
			slog.Error("Claim failed",
				slog.String("type", "db"),
				slog.Int64("spawn_id", spawnID),
				slog.String("user_id", userID),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			return Result{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	}
}

func (a *Arbitrator) attempt(ctx context.Context, spawnID int64, userID, username string) (Result, error) {
	var res Result
	err := a.store.WithClaimTx(ctx, func(ctx context.Context, tx Tx) error {
		unit, err := tx.LockUnit(ctx, spawnID)
		if err != nil {
			return err
		}
		res = Result{Unit: *unit}

		if unit.Claimed() {
			res.Outcome = AlreadyClaimed
			return nil
		}

		owned, err := tx.OwnershipExists(ctx, userID, unit.CardID, unit.Rarity)
		if err != nil {
			return err
		}
		if owned {
			res.Outcome = UserAlreadyOwns
			return nil
		}

		now := a.now().UTC()
		ok, err := tx.MarkClaimed(ctx, spawnID, userID, now)
		if err != nil {
			return err
		}
		if !ok {
			res.Outcome = AlreadyClaimed
			return nil
		}

		record := &cards.OwnershipRecord{
			UserID:     userID,
			Username:   username,
			CardID:     unit.CardID,
			Rarity:     unit.Rarity,
			AcquiredAt: now,
			CardName:   unit.CardName,
			ArtRef:     unit.ArtRef,
		}
		if err := tx.InsertOwnership(ctx, record); err != nil {
			if errors.Is(err, ErrDuplicateOwnership) {
				return errOwnedOnInsert
			}
			return err
		}

		unit.State = cards.StateClaimed
		unit.ClaimedBy = userID
		unit.ClaimedAt = now
		res = Result{Outcome: Success, Record: record, Unit: *unit}
		return nil
	})

	if errors.Is(err, errOwnedOnInsert) {
		// rolled back, the unit is still open
		return Result{Outcome: UserAlreadyOwns, Unit: res.Unit}, nil
	}
	return res, err
}

func (a *Arbitrator) logOutcome(res Result, userID string, attempts int) {
	slog.Info("Claim resolved",
		slog.String("type", "sys"),
		slog.Int64("spawn_id", res.Unit.ID),
		slog.String("user_id", userID),
		slog.String("outcome", res.Outcome.String()),
		slog.Int64("card_id", res.Unit.CardID),
		slog.String("rarity", string(res.Unit.Rarity)),
		slog.Int("attempts", attempts))
}

func spawnKey(spawnID int64) string {
	return fmt.Sprintf("spawn:%d", spawnID)
}

func ownerKey(userID string, cardID int64, tier rarity.Tier) string {
	return fmt.Sprintf("owner:%s:%d:%s", userID, cardID, tier)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
