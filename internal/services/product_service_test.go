package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCatalog(t *testing.T, repo *repositories.MockProductRepository) {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	products := []models.Product{
		{ID: "P1", Title: "Cotton Saree", Collection: "Womens", Colors: "Red,Blue", Price: 999, SellingPrice: 450, IsActive: true},
		{ID: "P2", Title: "Linen Shirt", Collection: "Mens", Colors: "White", Price: 1299, SellingPrice: 899, IsActive: true},
		{ID: "P3", Title: "Bed Sheet", Collection: "Home Textiles", Description: "cotton double", Price: 600, SellingPrice: 299, IsActive: true},
		{ID: "P4", Title: "Old Saree", Collection: "Womens", Price: 500, SellingPrice: 350, IsActive: false},
	}
	for i := range products {
		products[i].CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Create(context.Background(), &products[i]))
	}
}

func TestProductService_CreateProduct(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	svc := services.NewProductService(repo)
	ctx := context.Background()

	details := models.StockDetails{}
	details.SetQuantity("M", "Red", 3)
	product := &models.Product{ID: "P1", Title: "Cotton Saree", Collection: "Womens", Price: 999, SellingPrice: 799, StockDetails: details, IsActive: true}
	require.NoError(t, svc.CreateProduct(ctx, product))
	assert.Equal(t, models.StockLowStock, product.Stock)

	err := svc.CreateProduct(ctx, &models.Product{ID: "P1", Title: "Again", Collection: "Womens", Price: 10})
	require.ErrorIs(t, err, services.ErrConflict)
	assert.Equal(t, "Product with this ID already exists", err.Error())

	err = svc.CreateProduct(ctx, &models.Product{ID: "P2", Collection: "Womens", Price: 10})
	require.ErrorIs(t, err, services.ErrValidation)

	err = svc.CreateProduct(ctx, &models.Product{ID: "P3", Title: "X", Collection: "Womens", Price: 10, Stock: "Plenty"})
	require.ErrorIs(t, err, services.ErrValidation)
}

func TestProductService_Listings(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	seedCatalog(t, repo)
	svc := services.NewProductService(repo)
	ctx := context.Background()

	products, total, err := svc.ListProducts(ctx, models.ProductFilter{Collection: "womens", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "P4", products[0].ID)

	products, name, err := svc.ProductsByCollection(ctx, "home-textiles")
	require.NoError(t, err)
	assert.Equal(t, "home textiles", name)
	require.Len(t, products, 1)
	assert.Equal(t, "P3", products[0].ID)

	products, err = svc.SearchProducts(ctx, "COTTON")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"P1", "P3"}, productIDs(products))

	_, err = svc.SearchProducts(ctx, "  ")
	require.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, "Search query is required", err.Error())

	products, err = svc.NewArrivals(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"P3", "P2", "P1"}, productIDs(products))

	lo, hi := 300.0, 900.0
	products, err = svc.ProductsByPriceRange(ctx, &lo, &hi)
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P2"}, productIDs(products))

	products, total, err = svc.BudgetProducts(ctx, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{"P3", "P1"}, productIDs(products))
}

func TestProductService_ProductsByIDs(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	seedCatalog(t, repo)
	svc := services.NewProductService(repo)
	ctx := context.Background()

	products, err := svc.ProductsByIDs(ctx, []string{"P3", "P4", "P1", "nope"})
	require.NoError(t, err)
	assert.Equal(t, []string{"P3", "P1"}, productIDs(products))

	_, err = svc.ProductsByIDs(ctx, nil)
	require.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, "Product IDs array is required", err.Error())

	_, err = svc.ProductsByIDs(ctx, []string{"P4"})
	require.ErrorIs(t, err, services.ErrNotFound)
	assert.Equal(t, "No products found for the given IDs", err.Error())
}

func TestProductService_UpdateAndDelete(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	seedCatalog(t, repo)
	svc := services.NewProductService(repo)
	ctx := context.Background()

	updated, err := svc.UpdateProduct(ctx, "P1", func(p *models.Product) error {
		p.ID = "HIJACK"
		p.Title = "Cotton Saree Deluxe"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "P1", updated.ID)
	assert.Equal(t, "Cotton Saree Deluxe", updated.Title)
	_, err = repo.GetByID(ctx, "HIJACK")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = svc.UpdateProduct(ctx, "P1", func(*models.Product) error { return errors.New("bad body") })
	require.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.UpdateProduct(ctx, "missing", func(*models.Product) error { return nil })
	require.ErrorIs(t, err, services.ErrNotFound)

	deactivated, err := svc.DeactivateProduct(ctx, "P2")
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)
	stored, err := svc.GetProduct(ctx, "P2")
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	require.NoError(t, svc.DeleteProductPermanently(ctx, "P2"))
	_, err = svc.GetProduct(ctx, "P2")
	require.ErrorIs(t, err, services.ErrNotFound)
	assert.Equal(t, "Product not found", err.Error())
	assert.ErrorIs(t, svc.DeleteProductPermanently(ctx, "P2"), services.ErrNotFound)
}

func TestProductService_UpdateStockQuantity(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	seedCatalog(t, repo)
	svc := services.NewProductService(repo)
	ctx := context.Background()

	product, err := svc.UpdateStockQuantity(ctx, "P1", "XL", "Green", 10)
	require.NoError(t, err)
	cell, ok := product.StockDetails.Cell("XL", "Green")
	require.True(t, ok)
	assert.EqualValues(t, 10, cell.Quantity)
	assert.Equal(t, models.StockInStock, product.Stock)

	product, err = svc.UpdateStockQuantity(ctx, "P1", "XL", "Green", 0)
	require.NoError(t, err)
	assert.Equal(t, models.StockOutOfStock, product.Stock)

	_, err = svc.UpdateStockQuantity(ctx, "P1", "XL", "Green", -1)
	assert.ErrorIs(t, err, services.ErrValidation)
	_, err = svc.UpdateStockQuantity(ctx, "nope", "M", "Red", 1)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func productIDs(products []models.Product) []string {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}
