package repositories

import (
	"context"

	"storefront/internal/models"
)

// ProductRepository defines the interface for product data access.
//
// Stock cells are only mutated through AdjustStock and SetStock. Both recompute the
// product's stock label from the changed cell in the same write, and AdjustStock never
// lets a cell go below zero: a decrement that would do so fails with
// ErrInsufficientStock and leaves the product untouched.
type ProductRepository interface {
	GetAll(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetByIDs(ctx context.Context, ids []string, activeOnly bool) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, id, size, color string, delta int) (*models.Product, error)
	SetStock(ctx context.Context, id, size, color string, quantity int) (*models.Product, error)
}
