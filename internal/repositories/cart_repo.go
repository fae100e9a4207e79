package repositories

import (
	"context"

	"storefront/internal/models"
)

// CartRepository defines the interface for cart data access. There is at most one
// cart per owner.
type CartRepository interface {
	Get(ctx context.Context, owner models.CartOwner) (*models.Cart, error)
	// Save inserts or replaces the owner's cart.
	Save(ctx context.Context, cart *models.Cart) error
	// Clear empties an existing cart. It returns ErrNotFound when there is none.
	Clear(ctx context.Context, owner models.CartOwner) error
}
