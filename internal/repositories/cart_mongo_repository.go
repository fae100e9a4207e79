package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCartRepository is a MongoDB implementation of CartRepository.
type MongoCartRepository struct {
	carts *mongo.Collection
}

// NewMongoCartRepository creates a new instance of MongoCartRepository.
func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{carts: db.Collection(cartsCollection)}
}

func (r *MongoCartRepository) Get(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	var cart models.Cart
	err := r.carts.FindOne(ctx, bson.M{"userId": owner}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("cart %s: %w", owner, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart %s: %w", owner, err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

// Save replaces the owner's cart document, inserting it if missing.
func (r *MongoCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	now := time.Now().UTC()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.carts.ReplaceOne(ctx, bson.M{"userId": cart.UserID}, cart, opts); err != nil {
		return fmt.Errorf("failed to save cart %s: %w", cart.UserID, err)
	}
	return nil
}

func (r *MongoCartRepository) Clear(ctx context.Context, owner models.CartOwner) error {
	res, err := r.carts.UpdateOne(ctx, bson.M{"userId": owner}, bson.M{"$set": bson.M{
		"items":     bson.A{},
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("failed to clear cart %s: %w", owner, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("cart %s: %w", owner, ErrNotFound)
	}
	return nil
}
