package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

func productFilterScope(f models.ProductFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if f.Collection != "" {
			q = q.Where("LOWER(collection) = ?", strings.ToLower(f.Collection))
		}
		if f.Stock != "" {
			q = q.Where("stock = ?", f.Stock)
		}
		if f.IsActive != nil {
			q = q.Where("is_active = ?", *f.IsActive)
		}
		if f.MinPrice != nil {
			q = q.Where("selling_price >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			q = q.Where("selling_price <= ?", *f.MaxPrice)
		}
		if f.Search != "" {
			like := "%" + strings.ToLower(f.Search) + "%"
			q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(collection) LIKE ? OR LOWER(colors) LIKE ?",
				like, like, like, like)
		}
		return q
	}
}

// GetAll retrieves the products matching filter and the total match count.
func (r *GORMProductRepository) GetAll(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	scope := productFilterScope(filter)

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	q := r.db.WithContext(ctx).Scopes(scope).Order(clause.OrderByColumn{
		Column: clause.Column{Name: productSortColumns[productSortKey(filter.SortBy)]},
		Desc:   !filter.SortAsc,
	})
	if filter.Skip > 0 {
		q = q.Offset(filter.Skip)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	products := []models.Product{}
	if err := q.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get products: %w", err)
	}
	return products, total, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// GetByIDs retrieves every listed product, ordered as ids.
func (r *GORMProductRepository) GetByIDs(ctx context.Context, ids []string, activeOnly bool) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	q := r.db.WithContext(ctx).Where("id IN ?", ids)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var found []models.Product
	if err := q.Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to get products by IDs: %w", err)
	}
	return orderByIDs(found, ids), nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("product %s: %w", product.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update writes every column of an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).Model(product).Select("*").Omit("created_at").Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// AdjustStock adds delta to one cell inside a transaction holding the row lock.
// SQLite has no row locks; its writer lock serialises the transaction instead.
func (r *GORMProductRepository) AdjustStock(ctx context.Context, id, size, color string, delta int) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.lockProduct(tx, id, &product); err != nil {
			return err
		}
		cell, ok := product.StockDetails.Cell(size, color)
		if !ok {
			return fmt.Errorf("product %s %s/%s: %w", id, size, color, ErrStockCellNotFound)
		}
		next := int(cell.Quantity) + delta
		if next < 0 {
			return fmt.Errorf("product %s %s/%s has %d: %w", id, size, color, cell.Quantity, ErrInsufficientStock)
		}
		product.StockDetails.SetQuantity(size, color, next)
		product.Stock = models.StockStatusFor(next)
		return r.saveStock(tx, &product)
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// SetStock overwrites one cell, creating the size and color branches if needed.
func (r *GORMProductRepository) SetStock(ctx context.Context, id, size, color string, quantity int) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.lockProduct(tx, id, &product); err != nil {
			return err
		}
		if product.StockDetails == nil {
			product.StockDetails = make(models.StockDetails)
		}
		product.StockDetails.SetQuantity(size, color, quantity)
		product.Stock = models.StockStatusFor(quantity)
		return r.saveStock(tx, &product)
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GORMProductRepository) lockProduct(tx *gorm.DB, id string, product *models.Product) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock product %s: %w", id, err)
	}
	return nil
}

func (r *GORMProductRepository) saveStock(tx *gorm.DB, product *models.Product) error {
	if err := tx.Model(product).Select("StockDetails", "Stock", "UpdatedAt").Updates(product).Error; err != nil {
		return fmt.Errorf("failed to save stock for product %s: %w", product.ID, err)
	}
	return nil
}

func orderByIDs(products []models.Product, ids []string) []models.Product {
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	ordered := make([]models.Product, 0, len(products))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
			delete(byID, id)
		}
	}
	return ordered
}
