package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/appetiteclub/storefront/internal/pricing"
)

type CampaignRepo struct {
	collection *mongo.Collection
}

func NewCampaignRepo(db *mongo.Database) *CampaignRepo {
	return &CampaignRepo{
		collection: db.Collection("campaigns"),
	}
}

func (r *CampaignRepo) Create(ctx context.Context, campaign *pricing.Campaign) error {
	if campaign == nil {
		return fmt.Errorf("campaign is nil")
	}

	if _, err := r.collection.InsertOne(ctx, campaign); err != nil {
		return fmt.Errorf("cannot create campaign: %w", err)
	}

	return nil
}

func (r *CampaignRepo) Get(ctx context.Context, id uuid.UUID) (*pricing.Campaign, error) {
	var campaign pricing.Campaign
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&campaign)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get campaign: %w", err)
	}
	return &campaign, nil
}

func (r *CampaignRepo) List(ctx context.Context) ([]*pricing.Campaign, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("cannot list campaigns: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*pricing.Campaign
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode campaigns: %w", err)
	}

	return result, nil
}

func (r *CampaignRepo) ListActive(ctx context.Context) ([]*pricing.Campaign, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"is_active": true})
	if err != nil {
		return nil, fmt.Errorf("cannot list active campaigns: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*pricing.Campaign
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode campaigns: %w", err)
	}

	return result, nil
}

func (r *CampaignRepo) Save(ctx context.Context, campaign *pricing.Campaign) error {
	if campaign == nil {
		return fmt.Errorf("campaign is nil")
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": campaign.ID}, campaign)
	if err != nil {
		return fmt.Errorf("cannot save campaign: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("campaign %s not found", campaign.ID)
	}

	return nil
}

func (r *CampaignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("cannot delete campaign: %w", err)
	}
	return nil
}
