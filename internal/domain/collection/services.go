package collection

import (
	"context"
	"fmt"
	"sort"

	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/rarity"
)

type Service struct {
	repository Repository
}

func NewService(repository Repository) *Service {
	return &Service{
		repository: repository,
	}
}

func (s *Service) RecordsFor(ctx context.Context, userID string) ([]cards.OwnershipRecord, error) {
	records, err := s.repository.RecordsFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection: %w", err)
	}

	// the store already orders, but ties on acquired_at must stay stable
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].AcquiredAt.After(records[j].AcquiredAt)
	})
	return records, nil
}

func (s *Service) Exists(ctx context.Context, userID string, cardID int64, tier rarity.Tier) (bool, error) {
	ok, err := s.repository.Exists(ctx, userID, cardID, tier)
	if err != nil {
		return false, fmt.Errorf("failed to check ownership: %w", err)
	}
	return ok, nil
}

// AllClaimedPairs is the exhausted set used by the spawn engine.
func (s *Service) AllClaimedPairs(ctx context.Context) (map[cards.Pair]struct{}, error) {
	pairs, err := s.repository.ClaimedPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch claimed pairs: %w", err)
	}

	set := make(map[cards.Pair]struct{}, len(pairs))
	for _, p := range pairs {
		set[p] = struct{}{}
	}
	return set, nil
}

type Stats struct {
	Total  int
	ByTier map[rarity.Tier]int
}

func Summarize(records []cards.OwnershipRecord) Stats {
	stats := Stats{
		Total:  len(records),
		ByTier: make(map[rarity.Tier]int, len(rarity.All)),
	}
	for _, t := range rarity.All {
		stats.ByTier[t] = 0
	}
	for _, r := range records {
		stats.ByTier[r.Rarity]++
	}
	return stats
}
