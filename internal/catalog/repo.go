package catalog

import (
	"context"

	"github.com/google/uuid"
)

type MenuItemRepo interface {
	Create(ctx context.Context, item *MenuItem) error
	Get(ctx context.Context, id uuid.UUID) (*MenuItem, error)
	GetByShortCode(ctx context.Context, shortCode string) (*MenuItem, error)
	List(ctx context.Context) ([]*MenuItem, error)
	ListActive(ctx context.Context) ([]*MenuItem, error)
	ListByCategory(ctx context.Context, category string) ([]*MenuItem, error)
	Save(ctx context.Context, item *MenuItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}
