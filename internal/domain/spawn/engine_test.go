package spawn

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/rarity"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/spawn/mock"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	templates *mock.MockTemplateLister
	claimed   *mock.MockClaimedPairs
	repo      *mock.MockRepository
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)
	return fixture{
		templates: mock.NewMockTemplateLister(ctrl),
		claimed:   mock.NewMockClaimedPairs(ctrl),
		repo:      mock.NewMockRepository(ctrl),
	}
}

func (f fixture) engine(t *testing.T, weights map[rarity.Tier]float64, opts ...Option) *Engine {
	t.Helper()
	policy, err := rarity.NewPolicy(weights, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	opts = append([]Option{WithRand(rand.New(rand.NewSource(42))), WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewEngine(f.templates, f.claimed, f.repo, policy, opts...)
}

// assignIDs stands in for the store numbering rows.
func assignIDs(_ context.Context, units []*cards.SpawnedUnit) error {
	for i, u := range units {
		u.ID = int64(100 + i)
	}
	return nil
}

func makeTemplates(n int) []cards.CardTemplate {
	names := []string{"Fireball", "Frost Nova", "Arcane Missiles", "Blink", "Polymorph", "Counterspell"}
	out := make([]cards.CardTemplate, n)
	for i := 0; i < n; i++ {
		out[i] = cards.CardTemplate{ID: int64(i + 1), Name: names[i%len(names)], ArtRef: names[i%len(names)] + ".png"}
	}
	return out
}

func TestEngine_OpenSpawn_TwoTierSingleCard(t *testing.T) {
	f := newFixture(t)
	f.templates.EXPECT().ListTemplates(gomock.Any()).Return(makeTemplates(1), nil)
	f.claimed.EXPECT().AllClaimedPairs(gomock.Any()).Return(map[cards.Pair]struct{}{}, nil)
	f.repo.EXPECT().CreateUnits(gomock.Any(), gomock.Len(2)).DoAndReturn(assignIDs)

	e := f.engine(t, map[rarity.Tier]float64{rarity.Common: 70, rarity.Rare: 7})
	units, err := e.OpenSpawn(context.Background(), 3)
	if err != nil {
		t.Fatalf("OpenSpawn() error = %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("OpenSpawn() returned %d units, want 2", len(units))
	}

	seen := map[rarity.Tier]bool{}
	for _, u := range units {
		if u.CardID != 1 || u.CardName != "Fireball" || u.State != cards.StateOpen {
			t.Errorf("unexpected unit %+v", u)
		}
		if u.ID == 0 {
			t.Error("unit has no spawn id")
		}
		if !u.CreatedAt.Equal(fixedNow) {
			t.Errorf("CreatedAt = %v, want %v", u.CreatedAt, fixedNow)
		}
		seen[u.Rarity] = true
	}
	if !seen[rarity.Common] || !seen[rarity.Rare] {
		t.Errorf("expected both common and rare, got %v", seen)
	}
	if units[0].SessionID == "" || units[0].SessionID != units[1].SessionID {
		t.Errorf("units do not share a session id: %q, %q", units[0].SessionID, units[1].SessionID)
	}
}

func TestEngine_OpenSpawn_Exhausted(t *testing.T) {
	f := newFixture(t)
	f.templates.EXPECT().ListTemplates(gomock.Any()).Return(makeTemplates(1), nil)
	f.claimed.EXPECT().AllClaimedPairs(gomock.Any()).Return(map[cards.Pair]struct{}{
		{CardID: 1, Rarity: rarity.Common}: {},
		{CardID: 1, Rarity: rarity.Rare}:   {},
	}, nil)
	f.repo.EXPECT().CreateUnits(gomock.Any(), gomock.Any()).Times(0)

	e := f.engine(t, map[rarity.Tier]float64{rarity.Common: 70, rarity.Rare: 7})
	units, err := e.OpenSpawn(context.Background(), 3)
	if err != nil {
		t.Fatalf("OpenSpawn() error = %v", err)
	}
	if units == nil || len(units) != 0 {
		t.Errorf("OpenSpawn() = %v, want empty non-nil slice", units)
	}
}

func TestEngine_OpenSpawn_EmptyCatalog(t *testing.T) {
	f := newFixture(t)
	f.templates.EXPECT().ListTemplates(gomock.Any()).Return(nil, nil)
	f.claimed.EXPECT().AllClaimedPairs(gomock.Any()).Return(nil, nil)

	units, err := f.engine(t, rarity.DefaultWeights).OpenSpawn(context.Background(), 3)
	if err != nil || len(units) != 0 {
		t.Errorf("OpenSpawn() = %v, %v; want empty, nil", units, err)
	}
}

func TestEngine_OpenSpawn_DistinctAndUnclaimed(t *testing.T) {
	claimed := map[cards.Pair]struct{}{
		{CardID: 1, Rarity: rarity.Common}:   {},
		{CardID: 2, Rarity: rarity.Uncommon}: {},
		{CardID: 3, Rarity: rarity.Rare}:     {},
		{CardID: 4, Rarity: rarity.Epic}:     {},
	}

	for seed := int64(0); seed < 50; seed++ {
		f := newFixture(t)
		f.templates.EXPECT().ListTemplates(gomock.Any()).Return(makeTemplates(4), nil)
		f.claimed.EXPECT().AllClaimedPairs(gomock.Any()).Return(claimed, nil)
		f.repo.EXPECT().CreateUnits(gomock.Any(), gomock.Len(3)).DoAndReturn(assignIDs)

		e := f.engine(t, rarity.DefaultWeights, WithRand(rand.New(rand.NewSource(seed))))
		units, err := e.OpenSpawn(context.Background(), 3)
		if err != nil {
			t.Fatalf("seed %d: OpenSpawn() error = %v", seed, err)
		}

		seen := map[cards.Pair]bool{}
		for _, u := range units {
			if seen[u.Pair()] {
				t.Errorf("seed %d: duplicate pair %s", seed, u.Pair())
			}
			seen[u.Pair()] = true
			if _, ok := claimed[u.Pair()]; ok {
				t.Errorf("seed %d: spawned already claimed pair %s", seed, u.Pair())
			}
		}
	}
}

func TestEngine_OpenSpawn_CoversEveryEligiblePair(t *testing.T) {
	weights := map[rarity.Tier]float64{rarity.Common: 1, rarity.Legendary: 1}
	seen := map[cards.Pair]bool{}

	for seed := int64(0); seed < 200; seed++ {
		f := newFixture(t)
		f.templates.EXPECT().ListTemplates(gomock.Any()).Return(makeTemplates(3), nil)
		f.claimed.EXPECT().AllClaimedPairs(gomock.Any()).Return(nil, nil)
		f.repo.EXPECT().CreateUnits(gomock.Any(), gomock.Len(1)).DoAndReturn(assignIDs)

		units, err := f.engine(t, weights, WithRand(rand.New(rand.NewSource(seed)))).OpenSpawn(context.Background(), 1)
		if err != nil {
			t.Fatalf("OpenSpawn() error = %v", err)
		}
		seen[units[0].Pair()] = true
	}

	if len(seen) != 6 {
		t.Errorf("drew %d distinct pairs over 200 sessions, want all 6", len(seen))
	}
}

func TestEngine_OpenSpawn_Infinite(t *testing.T) {
	f := newFixture(t)
	f.templates.EXPECT().ListTemplates(gomock.Any()).Return(makeTemplates(5), nil)
	f.repo.EXPECT().CreateUnits(gomock.Any(), gomock.Len(3)).DoAndReturn(assignIDs)

	e := f.engine(t, rarity.DefaultWeights, WithMode(ModeInfinite))
	units, err := e.OpenSpawn(context.Background(), 3)
	if err != nil {
		t.Fatalf("OpenSpawn() error = %v", err)
	}

	cardsSeen := map[int64]bool{}
	for _, u := range units {
		if cardsSeen[u.CardID] {
			t.Errorf("card %d spawned twice in one session", u.CardID)
		}
		cardsSeen[u.CardID] = true
		if !u.Rarity.Valid() {
			t.Errorf("invalid rarity %q", u.Rarity)
		}
	}
}

func TestEngine_OpenSpawn_InfiniteFewerTemplates(t *testing.T) {
	f := newFixture(t)
	f.templates.EXPECT().ListTemplates(gomock.Any()).Return(makeTemplates(2), nil)
	f.repo.EXPECT().CreateUnits(gomock.Any(), gomock.Len(2)).DoAndReturn(assignIDs)

	units, err := f.engine(t, rarity.DefaultWeights, WithMode(ModeInfinite)).OpenSpawn(context.Background(), 5)
	if err != nil || len(units) != 2 {
		t.Errorf("OpenSpawn() = %d units, %v; want 2, nil", len(units), err)
	}
}

func TestEngine_OpenSpawn_Errors(t *testing.T) {
	listErr := errors.New("db down")

	t.Run("Invalid count", func(t *testing.T) {
		f := newFixture(t)
		for _, n := range []int{0, -1} {
			if _, err := f.engine(t, rarity.DefaultWeights).OpenSpawn(context.Background(), n); !errors.Is(err, ErrInvalidCount) {
				t.Errorf("OpenSpawn(%d) error = %v, want ErrInvalidCount", n, err)
			}
		}
	})

	t.Run("List failure", func(t *testing.T) {
		f := newFixture(t)
		f.templates.EXPECT().ListTemplates(gomock.Any()).Return(nil, listErr)
		if _, err := f.engine(t, rarity.DefaultWeights).OpenSpawn(context.Background(), 3); !errors.Is(err, listErr) {
			t.Errorf("OpenSpawn() error = %v, want %v", err, listErr)
		}
	})

	t.Run("Persist failure", func(t *testing.T) {
		f := newFixture(t)
		f.templates.EXPECT().ListTemplates(gomock.Any()).Return(makeTemplates(2), nil)
		f.claimed.EXPECT().AllClaimedPairs(gomock.Any()).Return(nil, nil)
		f.repo.EXPECT().CreateUnits(gomock.Any(), gomock.Any()).Return(listErr)
		if _, err := f.engine(t, rarity.DefaultWeights).OpenSpawn(context.Background(), 3); !errors.Is(err, listErr) {
			t.Errorf("OpenSpawn() error = %v, want %v", err, listErr)
		}
	})
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModeExhaustible},
		{in: "Exhaustible", want: ModeExhaustible},
		{in: " infinite ", want: ModeInfinite},
		{in: "endless", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}
