package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
)

const (
	defaultNewArrivals = 20
	budgetPriceCeiling = 499
	defaultBudgetLimit = 50
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo     repositories.ProductRepository
	validate *validator.Validate
	now      func() time.Time
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo:     repo,
		validate: validate,
		now:      time.Now,
	}
}

// CreateProduct validates and stores a new product. The stock label is derived from
// the cells when the client leaves it empty.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := s.validateProduct(product); err != nil {
		return err
	}
	if product.Stock == "" {
		total := 0
		for _, colors := range product.StockDetails {
			for _, cell := range colors {
				total += int(cell.Quantity)
			}
		}
		product.Stock = models.StockStatusFor(total)
	}
	now := s.now()
	product.CreatedAt = now
	product.UpdatedAt = now

	err := s.repo.Create(ctx, product)
	if errors.Is(err, repositories.ErrDuplicate) {
		return newError(ErrConflict, "Product with this ID already exists")
	}
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// ListProducts returns one page of products and the total number of matches.
func (s *ProductService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	products, total, err := s.repo.GetAll(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, total, nil
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	return product, nil
}

// UpdateProduct loads the product, lets apply change it, and saves the result. The
// id and creation time cannot be changed.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, apply func(*models.Product) error) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	createdAt := product.CreatedAt
	if err := apply(product); err != nil {
		return nil, newError(ErrValidation, "%s", err.Error())
	}
	product.ID = id
	product.CreatedAt = createdAt
	product.UpdatedAt = s.now()

	if err := s.validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "Product not found")
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// DeactivateProduct hides a product from the storefront without deleting it.
func (s *ProductService) DeactivateProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.UpdateProduct(ctx, id, func(p *models.Product) error {
		p.IsActive = false
		return nil
	})
}

// DeleteProductPermanently removes the product record.
func (s *ProductService) DeleteProductPermanently(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return newError(ErrNotFound, "Product not found")
	}
	if err != nil {
		return fmt.Errorf("failed to permanently delete product: %w", err)
	}
	return nil
}

// ProductsByCollection lists active products of a collection, newest first. The slug
// may use hyphens for spaces; matching ignores case. It also returns the resolved name.
func (s *ProductService) ProductsByCollection(ctx context.Context, slug string) ([]models.Product, string, error) {
	name := strings.TrimSpace(strings.ReplaceAll(slug, "-", " "))
	products, _, err := s.ListProducts(ctx, models.ProductFilter{
		Collection: name,
		IsActive:   boolPtr(true),
	})
	if err != nil {
		return nil, "", err
	}
	return products, name, nil
}

// SearchProducts matches active products on title, description, collection or colors.
func (s *ProductService) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, newError(ErrValidation, "Search query is required")
	}
	products, _, err := s.ListProducts(ctx, models.ProductFilter{Search: query, IsActive: boolPtr(true)})
	return products, err
}

// NewArrivals returns the most recently created active products.
func (s *ProductService) NewArrivals(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = defaultNewArrivals
	}
	products, _, err := s.ListProducts(ctx, models.ProductFilter{IsActive: boolPtr(true), Limit: limit})
	return products, err
}

// ProductsByPriceRange lists active products whose selling price is within the bounds,
// cheapest first. Nil bounds are open.
func (s *ProductService) ProductsByPriceRange(ctx context.Context, minPrice, maxPrice *float64) ([]models.Product, error) {
	if minPrice != nil && maxPrice != nil && *minPrice > *maxPrice {
		return nil, newError(ErrValidation, "min must not exceed max")
	}
	products, _, err := s.ListProducts(ctx, models.ProductFilter{
		IsActive: boolPtr(true),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		SortBy:   "sellingPrice",
		SortAsc:  true,
	})
	return products, err
}

// BudgetProducts lists active products selling at or below 499, cheapest first.
func (s *ProductService) BudgetProducts(ctx context.Context, limit, skip int) ([]models.Product, int64, error) {
	if limit <= 0 {
		limit = defaultBudgetLimit
	}
	if skip < 0 {
		skip = 0
	}
	ceiling := float64(budgetPriceCeiling)
	return s.ListProducts(ctx, models.ProductFilter{
		IsActive: boolPtr(true),
		MaxPrice: &ceiling,
		SortBy:   "sellingPrice",
		SortAsc:  true,
		Limit:    limit,
		Skip:     skip,
	})
}

// ProductsByIDs returns the active products among ids, in request order.
func (s *ProductService) ProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, newError(ErrValidation, "Product IDs array is required")
	}
	products, err := s.repo.GetByIDs(ctx, ids, true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	if len(products) == 0 {
		return nil, newError(ErrNotFound, "No products found for the given IDs")
	}
	return products, nil
}

// UpdateStockQuantity overwrites one stock cell, creating the size and color if they
// do not exist yet.
func (s *ProductService) UpdateStockQuantity(ctx context.Context, id, size, color string, quantity int) (*models.Product, error) {
	if strings.TrimSpace(size) == "" || strings.TrimSpace(color) == "" {
		return nil, newError(ErrValidation, "Size and color are required")
	}
	if quantity < 0 {
		return nil, newError(ErrValidation, "Quantity must not be negative")
	}
	product, err := s.repo.SetStock(ctx, id, size, color, quantity)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}
	return product, nil
}

func (s *ProductService) validateProduct(product *models.Product) error {
	if err := s.validate.Struct(product); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return newError(ErrValidation, "Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
		}
		return newError(ErrValidation, "%s", err.Error())
	}
	if product.Stock != "" && !product.Stock.Valid() {
		return newError(ErrValidation, "Invalid stock status: %s", product.Stock)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }
