package catalog

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Seeds returns all seeds for the storefront menu
func Seeds(db *mongo.Database) []seed.Seed {
	return []seed.Seed{
		{
			ID:          "2026-08-20_storefront_demo_menu",
			Description: "Seed representative menu items for the demo storefront",
			Run: func(ctx context.Context) error {
				return seedDemoMenu(ctx, db)
			},
		},
	}
}

func seedDemoMenu(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection("menu_items")

	demo := []MenuItem{
		{
			ShortCode:   "NASI-GORENG",
			Name:        "Nasi Goreng Spesial",
			Description: "Fried rice with chicken, prawns and a fried egg",
			Category:    "mains",
			Price:       48000,
			Variants: []Variant{
				{Label: "Regular", Price: 48000},
				{Label: "Jumbo", Price: 62000},
			},
			Active: true,
		},
		{
			ShortCode:   "SATE-AYAM",
			Name:        "Sate Ayam",
			Description: "Chicken skewers with peanut sauce",
			Category:    "mains",
			Price:       35000,
			Active:      true,
		},
		{
			ShortCode: "ES-TEH",
			Name:      "Es Teh Manis",
			Category:  "beverages",
			Price:     8000,
			Active:    true,
		},
		{
			ShortCode: "KOPI-SUSU",
			Name:      "Kopi Susu",
			Category:  "beverages",
			Price:     18000,
			Variants: []Variant{
				{Label: "Hot", Price: 18000},
				{Label: "Iced", Price: 20000},
			},
			Active: true,
		},
	}

	for i := range demo {
		item := &demo[i]
		item.BeforeCreate()
		item.CreatedBy = "seed"
		item.UpdatedBy = "seed"

		_, err := collection.UpdateOne(ctx,
			bson.M{"short_code": item.ShortCode},
			bson.M{"$setOnInsert": item},
			options.Update().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("seed menu item %s: %w", item.ShortCode, err)
		}
	}

	return nil
}

// SeedingFunc returns a lifecycle hook that applies menu seeds.
func SeedingFunc(appName string, dbFn func() *mongo.Database, logger apt.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		logger.Info("Applying storefront menu seeds...")
		db := dbFn()
		tracker := seed.NewMongoTracker(db)
		if err := seed.Apply(ctx, tracker, Seeds(db), appName); err != nil {
			return fmt.Errorf("apply seeds: %w", err)
		}
		logger.Info("Storefront menu seeds applied successfully")
		return nil
	}
}
