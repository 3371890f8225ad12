package models

import (
	"time"

	"github.com/uptrace/bun"
)

// OwnershipRecord is append-only. (user_id, card_id, rarity) carries a unique index.
type OwnershipRecord struct {
	bun.BaseModel `bun:"table:ownership_records,alias:orec"`

	ID         int64     `bun:"id,pk,autoincrement"`
	UserID     string    `bun:"user_id,notnull"`
	Username   string    `bun:"username,notnull,default:''"`
	CardID     int64     `bun:"card_id,notnull"`
	Rarity     string    `bun:"rarity,notnull"`
	AcquiredAt time.Time `bun:"acquired_at,notnull,default:current_timestamp"`

	Card *CardTemplate `bun:"rel:belongs-to,join:card_id=id"`
}
