package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// Stored products are deep-copied on the way in and out so callers never share maps
// with the store.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

// GetAll returns the products matching filter and the total match count before paging.
func (r *MockProductRepository) GetAll(_ context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if matchesProductFilter(&p, filter) {
			productList = append(productList, cloneProduct(p))
		}
	}
	sortProducts(productList, filter.SortBy, filter.SortAsc)
	total := int64(len(productList))
	return paginate(productList, filter.Skip, filter.Limit), total, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	out := cloneProduct(product)
	return &out, nil
}

// GetByIDs returns the products whose ids are listed, in the order given.
func (r *MockProductRepository) GetByIDs(_ context.Context, ids []string, activeOnly bool) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := r.products[id]
		if !ok || (activeOnly && !p.IsActive) {
			continue
		}
		productList = append(productList, cloneProduct(p))
	}
	return productList, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.ID]; exists {
		return fmt.Errorf("product %s: %w", product.ID, ErrDuplicate)
	}
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	r.products[product.ID] = cloneProduct(*product)
	return nil
}

// Update replaces an existing product.
func (r *MockProductRepository) Update(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return fmt.Errorf("product %s: %w", product.ID, ErrNotFound)
	}
	product.UpdatedAt = time.Now()
	r.products[product.ID] = cloneProduct(*product)
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

// AdjustStock adds delta to one cell under the write lock.
func (r *MockProductRepository) AdjustStock(_ context.Context, id, size, color string, delta int) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	cell, ok := product.StockDetails.Cell(size, color)
	if !ok {
		return nil, fmt.Errorf("product %s %s/%s: %w", id, size, color, ErrStockCellNotFound)
	}
	next := int(cell.Quantity) + delta
	if next < 0 {
		return nil, fmt.Errorf("product %s %s/%s has %d: %w", id, size, color, cell.Quantity, ErrInsufficientStock)
	}
	product.StockDetails.SetQuantity(size, color, next)
	product.Stock = models.StockStatusFor(next)
	product.UpdatedAt = time.Now()
	r.products[id] = product

	out := cloneProduct(product)
	return &out, nil
}

// SetStock overwrites one cell, creating the size and color branches if needed.
func (r *MockProductRepository) SetStock(_ context.Context, id, size, color string, quantity int) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if product.StockDetails == nil {
		product.StockDetails = make(models.StockDetails)
	}
	product.StockDetails.SetQuantity(size, color, quantity)
	product.Stock = models.StockStatusFor(quantity)
	product.UpdatedAt = time.Now()
	r.products[id] = product

	out := cloneProduct(product)
	return &out, nil
}
