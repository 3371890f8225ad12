package models

import (
	"time"

	"github.com/uptrace/bun"
)

type CardTemplate struct {
	bun.BaseModel `bun:"table:card_templates,alias:ct"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	ArtRef    string    `bun:"art_ref,notnull,unique"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
