package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/storefront/internal/cart"
)

// CartSnapshotRepo stores serialized cart snapshots keyed by session id.
// The snapshot bytes are opaque here; the cart aggregate owns the format
// and degrades to an empty cart on any shape mismatch.
type CartSnapshotRepo struct {
	collection *mongo.Collection
}

type cartSnapshotDoc struct {
	SessionID uuid.UUID `bson:"_id"`
	Snapshot  []byte    `bson:"snapshot"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func NewCartSnapshotRepo(db *mongo.Database) *CartSnapshotRepo {
	return &CartSnapshotRepo{
		collection: db.Collection("cart_snapshots"),
	}
}

// StoreFor returns the cart.Store view for one session.
func (r *CartSnapshotRepo) StoreFor(sessionID uuid.UUID) cart.Store {
	return &sessionStore{repo: r, sessionID: sessionID}
}

func (r *CartSnapshotRepo) load(ctx context.Context, sessionID uuid.UUID) ([]byte, error) {
	var doc cartSnapshotDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot load cart snapshot: %w", err)
	}
	return doc.Snapshot, nil
}

func (r *CartSnapshotRepo) save(ctx context.Context, sessionID uuid.UUID, snapshot []byte) error {
	doc := cartSnapshotDoc{
		SessionID: sessionID,
		Snapshot:  snapshot,
		UpdatedAt: time.Now(),
	}
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": sessionID},
		doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("cannot save cart snapshot: %w", err)
	}
	return nil
}

type sessionStore struct {
	repo      *CartSnapshotRepo
	sessionID uuid.UUID
}

func (s *sessionStore) Load(ctx context.Context) ([]byte, error) {
	return s.repo.load(ctx, s.sessionID)
}

func (s *sessionStore) Save(ctx context.Context, snapshot []byte) error {
	return s.repo.save(ctx, s.sessionID, snapshot)
}
