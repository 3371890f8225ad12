package models

import (
	"time"

	"github.com/uptrace/bun"
)

type SpawnedUnit struct {
	bun.BaseModel `bun:"table:spawned_units,alias:su"`

	ID        int64     `bun:"id,pk,autoincrement"`
	SessionID string    `bun:"session_id,notnull"`
	CardID    int64     `bun:"card_id,notnull"`
	Rarity    string    `bun:"rarity,notnull"`
	Claimed   bool      `bun:"claimed,notnull,default:false"`
	ClaimedBy string    `bun:"claimed_by,nullzero"`
	ClaimedAt time.Time `bun:"claimed_at,nullzero"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`

	Card *CardTemplate `bun:"rel:belongs-to,join:card_id=id"`
}
