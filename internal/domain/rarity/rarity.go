package rarity

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

type Tier string

const (
	Common    Tier = "common"
	Uncommon  Tier = "uncommon"
	Rare      Tier = "rare"
	Epic      Tier = "epic"
	Legendary Tier = "legendary"
)

// All lists every tier from most to least common.
var All = []Tier{Common, Uncommon, Rare, Epic, Legendary}

var (
	ErrUnknownTier   = errors.New("unknown rarity tier")
	ErrInvalidWeight = errors.New("invalid rarity weight")
)

// DefaultWeights are relative spawn weights; they do not need to sum to 100.
var DefaultWeights = map[Tier]float64{
	Common:    70,
	Uncommon:  20,
	Rare:      7,
	Epic:      2.5,
	Legendary: 0.5,
}

type Meta struct {
	Color int
	Label string
	Emoji string
}

var metadata = map[Tier]Meta{
	Common:    {Color: 0x808080, Label: "Common", Emoji: "⚪"},
	Uncommon:  {Color: 0x00FF00, Label: "Uncommon", Emoji: "🟢"},
	Rare:      {Color: 0x0080FF, Label: "Rare", Emoji: "🔵"},
	Epic:      {Color: 0x8000FF, Label: "Epic", Emoji: "🟣"},
	Legendary: {Color: 0xFFD700, Label: "Legendary", Emoji: "🟡"},
}

// Metadata returns display information for a tier.
func Metadata(t Tier) (Meta, error) {
	m, ok := metadata[t]
	if !ok {
		return Meta{}, fmt.Errorf("%w: %q", ErrUnknownTier, string(t))
	}
	return m, nil
}

// ParseTier accepts tier names case-insensitively.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := metadata[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return t, nil
}

func (t Tier) Valid() bool {
	_, ok := metadata[t]
	return ok
}

func (t Tier) String() string {
	return string(t)
}

// Rank orders tiers, 0 being common. Unknown tiers rank last.
func (t Tier) Rank() int {
	for i, tier := range All {
		if tier == t {
			return i
		}
	}
	return len(All)
}

// Source is the random source a Policy draws from. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Policy draws tiers from a fixed categorical distribution.
type Policy struct {
	tiers      []Tier
	cumulative []float64
	total      float64

	mu  sync.Mutex
	src Source
}

// NewPolicy builds a policy from relative weights. Tiers missing from the map or
// weighted 0 are disabled. A nil src falls back to a time-seeded source.
func NewPolicy(weights map[Tier]float64, src Source) (*Policy, error) {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	for t, w := range weights {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTier, string(t))
		}
		if w < 0 {
			return nil, fmt.Errorf("%w: %s has weight %v", ErrInvalidWeight, t, w)
		}
	}

	p := &Policy{src: src}
	for _, t := range All {
		w := weights[t]
		if w == 0 {
			continue
		}
		p.total += w
		p.tiers = append(p.tiers, t)
		p.cumulative = append(p.cumulative, p.total)
	}
	if p.total == 0 {
		return nil, fmt.Errorf("%w: no tier has a positive weight", ErrInvalidWeight)
	}
	return p, nil
}

// PickRarity draws one tier. Safe for concurrent use.
func (p *Policy) PickRarity() Tier {
	p.mu.Lock()
	r := p.src.Float64() * p.total
	p.mu.Unlock()

	for i, c := range p.cumulative {
		if r < c {
			return p.tiers[i]
		}
	}
	return p.tiers[len(p.tiers)-1]
}

// Tiers returns the enabled tiers in rank order.
func (p *Policy) Tiers() []Tier {
	out := make([]Tier, len(p.tiers))
	copy(out, p.tiers)
	return out
}

// Weight returns the relative weight of t, 0 when disabled.
func (p *Policy) Weight(t Tier) float64 {
	prev := 0.0
	for i, tier := range p.tiers {
		if tier == t {
			return p.cumulative[i] - prev
		}
		prev = p.cumulative[i]
	}
	return 0
}

// Metadata is a convenience wrapper around the package-level lookup.
func (p *Policy) Metadata(t Tier) (Meta, error) {
	return Metadata(t)
}
