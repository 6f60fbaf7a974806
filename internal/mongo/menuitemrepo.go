package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/storefront/internal/catalog"
)

type MenuItemRepo struct {
	collection *mongo.Collection
}

func NewMenuItemRepo(db *mongo.Database) *MenuItemRepo {
	return &MenuItemRepo{
		collection: db.Collection("menu_items"),
	}
}

// EnsureIndexes creates the unique short_code index and the lookup
// indexes used by storefront listings.
func (r *MenuItemRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "short_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "active", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}},
		},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("cannot create menu item indexes: %w", err)
	}
	return nil
}

func (r *MenuItemRepo) Create(ctx context.Context, item *catalog.MenuItem) error {
	if item == nil {
		return fmt.Errorf("menu item is nil")
	}

	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("menu item with short_code %s already exists", item.ShortCode)
		}
		return fmt.Errorf("cannot create menu item: %w", err)
	}

	return nil
}

func (r *MenuItemRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.MenuItem, error) {
	var item catalog.MenuItem
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get menu item: %w", err)
	}
	return &item, nil
}

func (r *MenuItemRepo) GetByShortCode(ctx context.Context, shortCode string) (*catalog.MenuItem, error) {
	var item catalog.MenuItem
	err := r.collection.FindOne(ctx, bson.M{"short_code": shortCode}).Decode(&item)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get menu item by short_code: %w", err)
	}
	return &item, nil
}

func (r *MenuItemRepo) List(ctx context.Context) ([]*catalog.MenuItem, error) {
	return r.find(ctx, bson.M{})
}

func (r *MenuItemRepo) ListActive(ctx context.Context) ([]*catalog.MenuItem, error) {
	return r.find(ctx, bson.M{"active": true})
}

func (r *MenuItemRepo) ListByCategory(ctx context.Context, category string) ([]*catalog.MenuItem, error) {
	return r.find(ctx, bson.M{"category": category, "active": true})
}

func (r *MenuItemRepo) Save(ctx context.Context, item *catalog.MenuItem) error {
	if item == nil {
		return fmt.Errorf("menu item is nil")
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		return fmt.Errorf("cannot save menu item: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("menu item %s not found", item.ID)
	}

	return nil
}

func (r *MenuItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("cannot delete menu item: %w", err)
	}
	return nil
}

func (r *MenuItemRepo) find(ctx context.Context, filter bson.M) ([]*catalog.MenuItem, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("cannot list menu items: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*catalog.MenuItem
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode menu items: %w", err)
	}

	return result, nil
}
