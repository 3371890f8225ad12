package cards

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cardcaptor-bot/cardcaptor/internal/domain/rarity"
)

var ErrInvalidTemplate = errors.New("invalid card template")

type CardTemplate struct {
	ID        int64
	Name      string
	ArtRef    string
	CreatedAt time.Time
}

// NewCardTemplate validates and normalizes a template before it is persisted.
func NewCardTemplate(name, artRef string) (CardTemplate, error) {
	name = strings.TrimSpace(name)
	artRef = strings.TrimSpace(artRef)
	if name == "" {
		return CardTemplate{}, fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if artRef == "" {
		return CardTemplate{}, fmt.Errorf("%w: art reference is required", ErrInvalidTemplate)
	}
	return CardTemplate{Name: name, ArtRef: artRef}, nil
}

// Pair is a (card, rarity) combination, the unit of exhaustion and ownership.
type Pair struct {
	CardID int64
	Rarity rarity.Tier
}

func (p Pair) String() string {
	return fmt.Sprintf("%d:%s", p.CardID, p.Rarity)
}

type ClaimState string

const (
	StateOpen    ClaimState = "open"
	StateClaimed ClaimState = "claimed"
)

type SpawnedUnit struct {
	ID        int64
	SessionID string
	CardID    int64
	Rarity    rarity.Tier
	State     ClaimState
	ClaimedBy string
	ClaimedAt time.Time
	CreatedAt time.Time

	// Denormalized from the template for display.
	CardName string
	ArtRef   string
}

func (u SpawnedUnit) Pair() Pair {
	return Pair{CardID: u.CardID, Rarity: u.Rarity}
}

func (u SpawnedUnit) Claimed() bool {
	return u.State == StateClaimed
}

type OwnershipRecord struct {
	ID         int64
	UserID     string
	Username   string
	CardID     int64
	Rarity     rarity.Tier
	AcquiredAt time.Time

	CardName string
	ArtRef   string
}

func (r OwnershipRecord) Pair() Pair {
	return Pair{CardID: r.CardID, Rarity: r.Rarity}
}
