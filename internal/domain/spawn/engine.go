package spawn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/rarity"
	"github.com/google/uuid"
)

var (
	ErrInvalidCount = errors.New("spawn count must be positive")
	ErrUnknownMode  = errors.New("unknown spawn mode")
)

type Mode string

const (
	// ModeExhaustible never spawns a (card, rarity) pair somebody already owns.
	ModeExhaustible Mode = "exhaustible"
	// ModeInfinite picks distinct cards and rolls a rarity for each, ignoring ownership.
	ModeInfinite Mode = "infinite"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeExhaustible:
		return ModeExhaustible, nil
	case ModeInfinite:
		return ModeInfinite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

//go:generate mockgen -destination=mock/spawn.go -package=mock . TemplateLister,ClaimedPairs,Repository

type TemplateLister interface {
	ListTemplates(ctx context.Context) ([]cards.CardTemplate, error)
}

type ClaimedPairs interface {
	AllClaimedPairs(ctx context.Context) (map[cards.Pair]struct{}, error)
}

// Repository persists a session. CreateUnits must assign IDs to every unit or none.
type Repository interface {
	CreateUnits(ctx context.Context, units []*cards.SpawnedUnit) error
}

type TierPicker interface {
	PickRarity() rarity.Tier
	Tiers() []rarity.Tier
}

type Engine struct {
	templates TemplateLister
	claimed   ClaimedPairs
	repo      Repository
	policy    TierPicker
	mode      Mode
	now       func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

type Option func(*Engine)

func WithMode(m Mode) Option {
	return func(e *Engine) { e.mode = m }
}

// WithRand replaces the time-seeded generator, mainly for tests.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rnd = r }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(templates TemplateLister, claimed ClaimedPairs, repo Repository, policy TierPicker, opts ...Option) *Engine {
	e := &Engine{
		templates: templates,
		claimed:   claimed,
		repo:      repo,
		policy:    policy,
		mode:      ModeExhaustible,
		now:       time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Mode() Mode {
	return e.mode
}

// OpenSpawn draws up to desiredCount units and persists them as one session.
// An empty result means nothing is left to spawn.
func (e *Engine) OpenSpawn(ctx context.Context, desiredCount int) ([]cards.SpawnedUnit, error) {
	if desiredCount <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, desiredCount)
	}

	templates, err := e.templates.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })

	var picked []draw
	switch e.mode {
	case ModeInfinite:
		picked = e.drawInfinite(templates, desiredCount)
	default:
		claimed, err := e.claimed.AllClaimedPairs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load claimed pairs: %w", err)
		}
		picked = e.drawExhaustible(templates, claimed, desiredCount)
	}

	if len(picked) == 0 {
		slog.Info("Spawn pool exhausted",
			slog.String("type", "sys"),
			slog.String("mode", string(e.mode)),
			slog.Int("templates", len(templates)))
		return []cards.SpawnedUnit{}, nil
	}

	sessionID := uuid.NewString()
	createdAt := e.now().UTC()
	units := make([]*cards.SpawnedUnit, len(picked))
	for i, d := range picked {
		units[i] = &cards.SpawnedUnit{
			SessionID: sessionID,
			CardID:    d.template.ID,
			Rarity:    d.tier,
			State:     cards.StateOpen,
			CreatedAt: createdAt,
			CardName:  d.template.Name,
			ArtRef:    d.template.ArtRef,
		}
	}

	if err := e.repo.CreateUnits(ctx, units); err != nil {
		return nil, fmt.Errorf("failed to persist spawn session: %w", err)
	}

	out := make([]cards.SpawnedUnit, len(units))
	for i, u := range units {
		out[i] = *u
	}

	slog.Info("Spawn opened",
		slog.String("type", "sys"),
		slog.String("session_id", sessionID),
		slog.String("mode", string(e.mode)),
		slog.Int("units", len(out)))
	return out, nil
}

type draw struct {
	template cards.CardTemplate
	tier     rarity.Tier
}

func (e *Engine) drawExhaustible(templates []cards.CardTemplate, claimed map[cards.Pair]struct{}, n int) []draw {
	tiers := e.policy.Tiers()
	eligible := make([]draw, 0, len(templates)*len(tiers))
	for _, t := range templates {
		for _, tier := range tiers {
			if _, taken := claimed[cards.Pair{CardID: t.ID, Rarity: tier}]; taken {
				continue
			}
			eligible = append(eligible, draw{template: t, tier: tier})
		}
	}

	if len(eligible) <= n {
		return eligible
	}
	e.shuffleHead(len(eligible), n, func(i, j int) { eligible[i], eligible[j] = eligible[j], eligible[i] })
	return eligible[:n]
}

func (e *Engine) drawInfinite(templates []cards.CardTemplate, n int) []draw {
	pool := make([]cards.CardTemplate, len(templates))
	copy(pool, templates)

	n = min(n, len(pool))
	e.shuffleHead(len(pool), n, func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	out := make([]draw, n)
	for i := 0; i < n; i++ {
		out[i] = draw{template: pool[i], tier: e.policy.PickRarity()}
	}
	return out
}

// shuffleHead runs the first k steps of a Fisher-Yates shuffle, leaving a
// uniform k-subset in positions [0, k).
func (e *Engine) shuffleHead(length, k int, swap func(i, j int)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := 0; i < k; i++ {
		j := i + e.rnd.Intn(length-i)
		swap(i, j)
	}
}
