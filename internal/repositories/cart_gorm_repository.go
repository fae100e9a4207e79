package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

func (r *GORMCartRepository) Get(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).First(&cart, "user_id = ?", owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart %s: %w", owner, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart %s: %w", owner, err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

// Save updates the cart row, inserting it when it does not exist yet.
func (r *GORMCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	if err := r.db.WithContext(ctx).Save(cart).Error; err != nil {
		return fmt.Errorf("failed to save cart %s: %w", cart.UserID, err)
	}
	return nil
}

func (r *GORMCartRepository) Clear(ctx context.Context, owner models.CartOwner) error {
	res := r.db.WithContext(ctx).Model(&models.Cart{UserID: owner}).
		Select("Items", "UpdatedAt").
		Updates(&models.Cart{Items: []models.CartItem{}, UpdatedAt: time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to clear cart %s: %w", owner, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart %s: %w", owner, ErrNotFound)
	}
	return nil
}
