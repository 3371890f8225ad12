package rarity

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestPolicy_PickRarity_Distribution(t *testing.T) {
	weights := map[Tier]float64{Common: 70, Legendary: 0.5}
	p, err := NewPolicy(weights, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}

	const draws = 100_000
	counts := map[Tier]int{}
	for i := 0; i < draws; i++ {
		counts[p.PickRarity()]++
	}

	if counts[Common]+counts[Legendary] != draws {
		t.Fatalf("drew disabled tiers: %v", counts)
	}

	prob := 0.5 / 70.5
	expected := prob * draws
	sd := math.Sqrt(draws * prob * (1 - prob))
	got := float64(counts[Legendary])
	if math.Abs(got-expected) > 5*sd {
		t.Errorf("legendary count = %v, want %v ± %v", got, expected, 5*sd)
	}
}

func TestPolicy_PickRarity_Deterministic(t *testing.T) {
	a, _ := NewPolicy(DefaultWeights, rand.New(rand.NewSource(7)))
	b, _ := NewPolicy(DefaultWeights, rand.New(rand.NewSource(7)))
	for i := 0; i < 1000; i++ {
		if x, y := a.PickRarity(), b.PickRarity(); x != y {
			t.Fatalf("draw %d differs: %s vs %s", i, x, y)
		}
	}
}

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func TestPolicy_PickRarity_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		r    float64
		want Tier
	}{
		{"lowest", 0, Common},
		{"end of common", 0.6999, Common},
		{"start of uncommon", 0.705, Uncommon},
		{"rare", 0.95, Rare},
		{"epic", 0.98, Epic},
		{"legendary", 0.9999, Legendary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPolicy(DefaultWeights, fixedSource(tt.r))
			if err != nil {
				t.Fatalf("NewPolicy() error = %v", err)
			}
			if got := p.PickRarity(); got != tt.want {
				t.Errorf("PickRarity() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewPolicy_Errors(t *testing.T) {
	tests := []struct {
		name    string
		weights map[Tier]float64
		wantErr error
	}{
		{"unknown tier", map[Tier]float64{"mythic": 1}, ErrUnknownTier},
		{"negative", map[Tier]float64{Common: -1}, ErrInvalidWeight},
		{"all zero", map[Tier]float64{Common: 0}, ErrInvalidWeight},
		{"empty", nil, ErrInvalidWeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPolicy(tt.weights, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewPolicy() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPolicy_TiersAndWeight(t *testing.T) {
	p, err := NewPolicy(map[Tier]float64{Rare: 3, Common: 1}, nil)
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	tiers := p.Tiers()
	if len(tiers) != 2 || tiers[0] != Common || tiers[1] != Rare {
		t.Errorf("Tiers() = %v, want [common rare]", tiers)
	}
	if w := p.Weight(Rare); w != 3 {
		t.Errorf("Weight(rare) = %v, want 3", w)
	}
	if w := p.Weight(Epic); w != 0 {
		t.Errorf("Weight(epic) = %v, want 0", w)
	}
}

func TestMetadata(t *testing.T) {
	m, err := Metadata(Legendary)
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if m.Color != 0xFFD700 || m.Label != "Legendary" {
		t.Errorf("Metadata(legendary) = %+v", m)
	}

	if _, err := Metadata(Tier("shiny")); !errors.Is(err, ErrUnknownTier) {
		t.Errorf("Metadata(shiny) error = %v, want ErrUnknownTier", err)
	}
}

func TestParseTier(t *testing.T) {
	if got, err := ParseTier(" EPIC "); err != nil || got != Epic {
		t.Errorf("ParseTier(EPIC) = %v, %v", got, err)
	}
	if _, err := ParseTier("gold"); !errors.Is(err, ErrUnknownTier) {
		t.Errorf("ParseTier(gold) error = %v", err)
	}
	if Legendary.Rank() != 4 || Tier("x").Rank() != len(All) {
		t.Errorf("unexpected ranks")
	}
}
