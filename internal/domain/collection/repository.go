package collection

import (
	"context"

	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/rarity"
)

//go:generate mockgen -destination=mock/repository.go -package=mock . Repository

// Repository reads the ownership ledger. Writes only happen inside claim transactions.
type Repository interface {
	// RecordsFor returns a user's records, newest first.
	RecordsFor(ctx context.Context, userID string) ([]cards.OwnershipRecord, error)
	Exists(ctx context.Context, userID string, cardID int64, tier rarity.Tier) (bool, error)
	ClaimedPairs(ctx context.Context) ([]cards.Pair, error)
}
