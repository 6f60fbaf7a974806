package pricing

import (
	"context"

	"github.com/google/uuid"
)

type CampaignRepo interface {
	Create(ctx context.Context, campaign *Campaign) error
	Get(ctx context.Context, id uuid.UUID) (*Campaign, error)
	List(ctx context.Context) ([]*Campaign, error)
	ListActive(ctx context.Context) ([]*Campaign, error)
	Save(ctx context.Context, campaign *Campaign) error
	Delete(ctx context.Context, id uuid.UUID) error
}
