package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	carts map[models.CartOwner]models.Cart
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[models.CartOwner]models.Cart),
	}
}

func (r *MockCartRepository) Get(_ context.Context, owner models.CartOwner) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[owner]
	if !ok {
		return nil, fmt.Errorf("cart %s: %w", owner, ErrNotFound)
	}
	cart.Items = append([]models.CartItem{}, cart.Items...)
	return &cart, nil
}

func (r *MockCartRepository) Save(_ context.Context, cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if existing, ok := r.carts[cart.UserID]; ok {
		cart.CreatedAt = existing.CreatedAt
	} else if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	stored := *cart
	stored.Items = append([]models.CartItem{}, cart.Items...)
	r.carts[cart.UserID] = stored
	return nil
}

func (r *MockCartRepository) Clear(_ context.Context, owner models.CartOwner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[owner]
	if !ok {
		return fmt.Errorf("cart %s: %w", owner, ErrNotFound)
	}
	cart.Items = []models.CartItem{}
	cart.UpdatedAt = time.Now()
	r.carts[owner] = cart
	return nil
}
