package repositories

import (
	"github.com/cardcaptor-bot/cardcaptor/cardcaptor/database/models"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"
	"github.com/cardcaptor-bot/cardcaptor/internal/domain/rarity"
)

func toTemplate(m *models.CardTemplate) *cards.CardTemplate {
	return &cards.CardTemplate{
		ID:        m.ID,
		Name:      m.Name,
		ArtRef:    m.ArtRef,
		CreatedAt: m.CreatedAt,
	}
}

func toUnit(m *models.SpawnedUnit) *cards.SpawnedUnit {
	u := &cards.SpawnedUnit{
		ID:        m.ID,
		SessionID: m.SessionID,
		CardID:    m.CardID,
		Rarity:    rarity.Tier(m.Rarity),
		State:     cards.StateOpen,
		ClaimedBy: m.ClaimedBy,
		ClaimedAt: m.ClaimedAt,
		CreatedAt: m.CreatedAt,
	}
	if m.Claimed {
		u.State = cards.StateClaimed
	}
	if m.Card != nil {
		u.CardName = m.Card.Name
		u.ArtRef = m.Card.ArtRef
	}
	return u
}

func toRecord(m *models.OwnershipRecord) cards.OwnershipRecord {
	r := cards.OwnershipRecord{
		ID:         m.ID,
		UserID:     m.UserID,
		Username:   m.Username,
		CardID:     m.CardID,
		Rarity:     rarity.Tier(m.Rarity),
		AcquiredAt: m.AcquiredAt,
	}
	if m.Card != nil {
		r.CardName = m.Card.Name
		r.ArtRef = m.Card.ArtRef
	}
	return r
}
