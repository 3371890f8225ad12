package repositories

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/database"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/claim"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/rarity"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "cardcaptor.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.InitializeSchema(context.Background()))
	return db.BunDB()
}

func addTemplate(t *testing.T, repo *CardRepository, name, artRef string) *cards.CardTemplate {
	t.Helper()
	tpl := &cards.CardTemplate{Name: name, ArtRef: artRef}
	require.NoError(t, repo.Create(context.Background(), tpl))
	return tpl
}

func spawnUnits(t *testing.T, repo *SpawnRepository, session string, pairs ...cards.Pair) []*cards.SpawnedUnit {
	t.Helper()
	units := make([]*cards.SpawnedUnit, len(pairs))
	for i, p := range pairs {
		units[i] = &cards.SpawnedUnit{
			SessionID: session,
			CardID:    p.CardID,
			Rarity:    p.Rarity,
			State:     cards.StateOpen,
			CreatedAt: time.Now().UTC(),
		}
	}
	require.NoError(t, repo.CreateUnits(context.Background(), units))
	return units
}

func TestCardRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCardRepository(newTestDB(t))

	fireball := addTemplate(t, repo, "Fireball", "fireball.png")
	frost := addTemplate(t, repo, "Frost Nova", "frost-nova.png")
	require.NotZero(t, fireball.ID)
	require.Greater(t, frost.ID, fireball.ID)

	err := repo.Create(ctx, &cards.CardTemplate{Name: "Fireball Again", ArtRef: "fireball.png"})
	require.ErrorIs(t, err, cards.ErrDuplicateReference)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Fireball", all[0].Name)
	require.Equal(t, "frost-nova.png", all[1].ArtRef)

	got, err := repo.GetByArtRef(ctx, "frost-nova.png")
	require.NoError(t, err)
	require.Equal(t, frost.ID, got.ID)

	_, err = repo.GetByArtRef(ctx, "missing.png")
	require.ErrorIs(t, err, cards.ErrTemplateNotFound)
}

func TestCardRepository_Delete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewCardRepository(db)
	spawns := NewSpawnRepository(db)

	fireball := addTemplate(t, repo, "Fireball", "fireball.png")
	addTemplate(t, repo, "Blink", "blink.png")
	spawnUnits(t, spawns, "s1", cards.Pair{CardID: fireball.ID, Rarity: rarity.Common})

	require.ErrorIs(t, repo.Delete(ctx, "fireball.png"), cards.ErrTemplateInUse)
	require.ErrorIs(t, repo.Delete(ctx, "nope.png"), cards.ErrTemplateNotFound)
	require.NoError(t, repo.Delete(ctx, "blink.png"))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestSpawnRepository_CreateUnits(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tpl := addTemplate(t, NewCardRepository(db), "Fireball", "fireball.png")
	spawns := NewSpawnRepository(db)

	units := spawnUnits(t, spawns, "session-1",
		cards.Pair{CardID: tpl.ID, Rarity: rarity.Common},
		cards.Pair{CardID: tpl.ID, Rarity: rarity.Rare},
	)
	require.NotZero(t, units[0].ID)
	require.NotEqual(t, units[0].ID, units[1].ID)

	session, err := spawns.Session(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, session, 2)
	require.Equal(t, "Fireball", session[0].CardName)
	require.Equal(t, rarity.Rare, session[1].Rarity)
	require.False(t, session[0].Claimed())
}

func TestSpawnRepository_CreateUnitsIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tpl := addTemplate(t, NewCardRepository(db), "Fireball", "fireball.png")
	spawns := NewSpawnRepository(db)

	units := []*cards.SpawnedUnit{
		{SessionID: "bad", CardID: tpl.ID, Rarity: rarity.Common, CreatedAt: time.Now().UTC()},
		{SessionID: "bad", CardID: 9999, Rarity: rarity.Common, CreatedAt: time.Now().UTC()},
	}
	require.Error(t, spawns.CreateUnits(ctx, units))
	require.Zero(t, units[0].ID)

	session, err := spawns.Session(ctx, "bad")
	require.NoError(t, err)
	require.Empty(t, session)
}

type claimFixture struct {
	arbitrator *claim.Arbitrator
	owners     *OwnershipRepository
	store      *ClaimStore
	fireball   *cards.CardTemplate
	spawns     *SpawnRepository
}

func newClaimFixture(t *testing.T) claimFixture {
	db := newTestDB(t)
	store := NewClaimStore(db)
	return claimFixture{
		arbitrator: claim.NewArbitrator(store, claim.WithRetry(3, time.Millisecond)),
		owners:     NewOwnershipRepository(db),
		store:      store,
		fireball:   addTemplate(t, NewCardRepository(db), "Fireball", "fireball.png"),
		spawns:     NewSpawnRepository(db),
	}
}

func TestClaimStore_SequentialScenario(t *testing.T) {
	ctx := context.Background()
	f := newClaimFixture(t)
	common := cards.Pair{CardID: f.fireball.ID, Rarity: rarity.Common}
	units := spawnUnits(t, f.spawns, "s1", common, common)
	first, second := units[0].ID, units[1].ID

	res, err := f.arbitrator.Claim(ctx, first, "A", "alice")
	require.NoError(t, err)
	require.Equal(t, claim.Success, res.Outcome)
	require.Equal(t, "Fireball", res.Record.CardName)
	require.NotZero(t, res.Record.ID)

	res, err = f.arbitrator.Claim(ctx, first, "A", "alice")
	require.NoError(t, err)
	require.Equal(t, claim.AlreadyClaimed, res.Outcome)

	res, err = f.arbitrator.Claim(ctx, second, "A", "alice")
	require.NoError(t, err)
	require.Equal(t, claim.UserAlreadyOwns, res.Outcome)

	unit, err := f.store.GetUnit(ctx, second)
	require.NoError(t, err)
	require.False(t, unit.Claimed())

	res, err = f.arbitrator.Claim(ctx, second, "B", "bob")
	require.NoError(t, err)
	require.Equal(t, claim.Success, res.Outcome)

	unit, err = f.store.GetUnit(ctx, second)
	require.NoError(t, err)
	require.True(t, unit.Claimed())
	require.Equal(t, "B", unit.ClaimedBy)

	for _, user := range []string{"A", "B"} {
		records, err := f.owners.RecordsFor(ctx, user)
		require.NoError(t, err)
		require.Len(t, records, 1, user)
	}

	_, err = f.arbitrator.Claim(ctx, 4242, "A", "alice")
	require.ErrorIs(t, err, claim.ErrNotFound)
}

func TestClaimStore_ConcurrentClaims(t *testing.T) {
	const claimers = 20

	f := newClaimFixture(t)
	units := spawnUnits(t, f.spawns, "s1", cards.Pair{CardID: f.fireball.ID, Rarity: rarity.Epic})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < claimers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.arbitrator.Claim(context.Background(), units[0].ID, fmt.Sprintf("user-%d", i), "user")
			if err != nil {
				t.Errorf("claim %d: %v", i, err)
				return
			}
			if res.Outcome == claim.Success {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, successes)
	pairs, err := f.owners.ClaimedPairs(context.Background())
	require.NoError(t, err)
	require.Len(t, pairs, 1)
}

func TestClaimStore_DuplicateInsertRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newClaimFixture(t)
	rare := cards.Pair{CardID: f.fireball.ID, Rarity: rarity.Rare}
	units := spawnUnits(t, f.spawns, "s1", rare, rare)

	res, err := f.arbitrator.Claim(ctx, units[0].ID, "A", "alice")
	require.NoError(t, err)
	require.Equal(t, claim.Success, res.Outcome)

	// skip the existence check and go straight to the unique index
	err = f.store.WithClaimTx(ctx, func(ctx context.Context, tx claim.Tx) error {
		ok, err := tx.MarkClaimed(ctx, units[1].ID, "A", time.Now().UTC())
		require.NoError(t, err)
		require.True(t, ok)
		return tx.InsertOwnership(ctx, &cards.OwnershipRecord{
			UserID: "A", CardID: rare.CardID, Rarity: rare.Rarity, AcquiredAt: time.Now().UTC(),
		})
	})
	require.ErrorIs(t, err, claim.ErrDuplicateOwnership)

	unit, err := f.store.GetUnit(ctx, units[1].ID)
	require.NoError(t, err)
	require.False(t, unit.Claimed(), "mark should have rolled back")
}

func TestClaimStore_MarkClaimedOnlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newClaimFixture(t)
	units := spawnUnits(t, f.spawns, "s1", cards.Pair{CardID: f.fireball.ID, Rarity: rarity.Legendary})

	for i, want := range []bool{true, false} {
		err := f.store.WithClaimTx(ctx, func(ctx context.Context, tx claim.Tx) error {
			ok, err := tx.MarkClaimed(ctx, units[0].ID, fmt.Sprintf("user-%d", i), time.Now().UTC())
			require.NoError(t, err)
			require.Equal(t, want, ok)
			return nil
		})
		require.NoError(t, err)
	}

	unit, err := f.store.GetUnit(ctx, units[0].ID)
	require.NoError(t, err)
	require.Equal(t, "user-0", unit.ClaimedBy)
}

func TestOwnershipRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	catalog := NewCardRepository(db)
	fireball := addTemplate(t, catalog, "Fireball", "fireball.png")
	blink := addTemplate(t, catalog, "Blink", "blink.png")

	store := NewClaimStore(db)
	spawns := NewSpawnRepository(db)
	units := spawnUnits(t, spawns, "s1",
		cards.Pair{CardID: fireball.ID, Rarity: rarity.Common},
		cards.Pair{CardID: blink.ID, Rarity: rarity.Epic},
	)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, u := range units {
		at := base.Add(time.Duration(i) * time.Minute)
		a := claim.NewArbitrator(store, claim.WithClock(func() time.Time { return at }))
		res, err := a.Claim(ctx, u.ID, "A", "alice")
		require.NoError(t, err)
		require.Equal(t, claim.Success, res.Outcome)
	}

	owners := NewOwnershipRepository(db)
	records, err := owners.RecordsFor(ctx, "A")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Blink", records[0].CardName, "newest first")
	require.Equal(t, rarity.Epic, records[0].Rarity)
	require.Equal(t, "Fireball", records[1].CardName)
	require.Equal(t, "alice", records[1].Username)

	none, err := owners.RecordsFor(ctx, "B")
	require.NoError(t, err)
	require.Empty(t, none)

	ok, err := owners.Exists(ctx, "A", fireball.ID, rarity.Common)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = owners.Exists(ctx, "A", fireball.ID, rarity.Rare)
	require.NoError(t, err)
	require.False(t, ok)

	pairs, err := owners.ClaimedPairs(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []cards.Pair{
		{CardID: fireball.ID, Rarity: rarity.Common},
		{CardID: blink.ID, Rarity: rarity.Epic},
	}, pairs)

	counts, err := catalog.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, CatalogCounts{Templates: 2, Spawned: 2, Claimed: 2, Owners: 1}, counts)
}

func TestErrorClassification(t *testing.T) {
	require.False(t, isUniqueViolation(errors.New("boom")))
	require.False(t, isRetryable(errors.New("boom")))
	require.False(t, isUniqueViolation(nil))
}
