package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Seeds returns all seeds for campaign data
func Seeds(db *mongo.Database) []seed.Seed {
	return []seed.Seed{
		{
			ID:          "2026-08-20_storefront_demo_campaigns",
			Description: "Seed demo promotional campaigns and coupons",
			Run: func(ctx context.Context) error {
				return seedDemoCampaigns(ctx, db)
			},
		},
	}
}

func seedDemoCampaigns(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection("campaigns")
	now := time.Now()
	weekOut := now.Add(7 * 24 * time.Hour)

	demo := []Campaign{
		{
			Name:          "Grand Opening",
			Type:          DiscountPercentage,
			DiscountValue: 10,
			TargetType:    TargetAll,
			IsActive:      true,
			EndDate:       &weekOut,
		},
		{
			Name:          "Beverage Happy Hour",
			Type:          DiscountPercentage,
			DiscountValue: 20,
			TargetType:    TargetCategory,
			TargetID:      "beverages",
			IsActive:      true,
		},
		{
			Name:          "Welcome Coupon",
			Code:          "WELCOME10",
			Type:          DiscountPercentage,
			DiscountValue: 10,
			TargetType:    TargetAll,
			IsActive:      true,
		},
	}

	for i := range demo {
		campaign := &demo[i]
		campaign.BeforeCreate()
		campaign.CreatedBy = "seed"
		campaign.UpdatedBy = "seed"

		_, err := collection.UpdateOne(ctx,
			bson.M{"name": campaign.Name},
			bson.M{"$setOnInsert": campaign},
			options.Update().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("seed campaign %s: %w", campaign.Name, err)
		}
	}

	return nil
}

// SeedingFunc returns a lifecycle hook that applies campaign seeds.
func SeedingFunc(appName string, dbFn func() *mongo.Database, logger apt.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		logger.Info("Applying campaign seeds...")
		db := dbFn()
		tracker := seed.NewMongoTracker(db)
		if err := seed.Apply(ctx, tracker, Seeds(db), appName); err != nil {
			return fmt.Errorf("apply seeds: %w", err)
		}
		logger.Info("Campaign seeds applied successfully")
		return nil
	}
}
