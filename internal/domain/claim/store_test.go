package claim

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/rarity"
)

type ownKey struct {
	userID string
	pair   cards.Pair
}

// memStore serializes transactions behind one mutex and restores a snapshot
// when fn fails, which is all Arbitrator relies on.
type memStore struct {
	mu      sync.Mutex
	units   map[int64]cards.SpawnedUnit
	owned   map[ownKey]cards.OwnershipRecord
	nextRec int64

	conflicts     int
	txCalls       int
	getErr        error
	blindExists   bool
	beforeCommit  func()
	insertedCount int
}

func newMemStore(units ...cards.SpawnedUnit) *memStore {
	s := &memStore{
		units: make(map[int64]cards.SpawnedUnit),
		owned: make(map[ownKey]cards.OwnershipRecord),
	}
	for _, u := range units {
		if u.State == "" {
			u.State = cards.StateOpen
		}
		s.units[u.ID] = u
	}
	return s
}

func (s *memStore) GetUnit(_ context.Context, spawnID int64) (*cards.SpawnedUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	u, ok := s.units[spawnID]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *memStore) WithClaimTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txCalls++
	if s.conflicts > 0 {
		s.conflicts--
		return ErrConflict
	}

	units := maps.Clone(s.units)
	owned := maps.Clone(s.owned)
	inserted := s.insertedCount

	if err := fn(ctx, &memTx{s: s}); err != nil {
		s.units, s.owned, s.insertedCount = units, owned, inserted
		return err
	}
	if s.beforeCommit != nil {
		s.beforeCommit()
	}
	return nil
}

func (s *memStore) records(userID string) []cards.OwnershipRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []cards.OwnershipRecord
	for k, r := range s.owned {
		if k.userID == userID {
			out = append(out, r)
		}
	}
	return out
}

func (s *memStore) unit(id int64) cards.SpawnedUnit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.units[id]
}

// seedOwnership records a pair without going through a claim.
func (s *memStore) seedOwnership(userID string, cardID int64, tier rarity.Tier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRec++
	s.owned[ownKey{userID, cards.Pair{CardID: cardID, Rarity: tier}}] = cards.OwnershipRecord{
		ID: s.nextRec, UserID: userID, CardID: cardID, Rarity: tier, AcquiredAt: time.Now(),
	}
}

type memTx struct {
	s *memStore
}

func (tx *memTx) LockUnit(_ context.Context, spawnID int64) (*cards.SpawnedUnit, error) {
	u, ok := tx.s.units[spawnID]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (tx *memTx) OwnershipExists(_ context.Context, userID string, cardID int64, tier rarity.Tier) (bool, error) {
	if tx.s.blindExists {
		return false, nil
	}
	_, ok := tx.s.owned[ownKey{userID, cards.Pair{CardID: cardID, Rarity: tier}}]
	return ok, nil
}

func (tx *memTx) MarkClaimed(_ context.Context, spawnID int64, userID string, at time.Time) (bool, error) {
	u, ok := tx.s.units[spawnID]
	if !ok || u.State != cards.StateOpen {
		return false, nil
	}
	u.State = cards.StateClaimed
	u.ClaimedBy = userID
	u.ClaimedAt = at
	tx.s.units[spawnID] = u
	return true, nil
}

func (tx *memTx) InsertOwnership(_ context.Context, r *cards.OwnershipRecord) error {
	key := ownKey{r.UserID, r.Pair()}
	if _, ok := tx.s.owned[key]; ok {
		return ErrDuplicateOwnership
	}
	tx.s.nextRec++
	r.ID = tx.s.nextRec
	tx.s.owned[key] = *r
	tx.s.insertedCount++
	return nil
}

var errBoom = errors.New("connection refused")
