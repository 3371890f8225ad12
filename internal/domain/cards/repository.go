package cards

import (
	"context"
	"errors"
)

var (
	ErrDuplicateReference = errors.New("art reference already registered")
	ErrTemplateNotFound   = errors.New("card template not found")
	ErrTemplateInUse      = errors.New("card template has been spawned")
)

//go:generate mockgen -destination=mock/repository.go -package=mock . Repository

type Repository interface {
	// Create fills in ID and CreatedAt. Returns ErrDuplicateReference when ArtRef exists.
	Create(ctx context.Context, card *CardTemplate) error
	GetAll(ctx context.Context) ([]*CardTemplate, error)
	GetByArtRef(ctx context.Context, artRef string) (*CardTemplate, error)
	// Delete removes a template never referenced by a spawned unit.
	Delete(ctx context.Context, artRef string) error
}
