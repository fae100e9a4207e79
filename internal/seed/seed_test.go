package seed_test

import (
	"context"
	"testing"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/seed"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeeder(t *testing.T) (*seed.Seeder, *repositories.MockProductRepository) {
	t.Helper()
	db, err := database.OpenTest(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	products := repositories.NewMockProductRepository()
	return &seed.Seeder{
		Products:    services.NewProductService(products),
		Collections: services.NewCollectionService(repositories.NewGORMCollectionRepository(db)),
		BestSelling: services.NewBestSellingService(repositories.NewGORMBestSellingRepository(db), products),
		Content: services.NewContentService(
			repositories.NewGORMBannerRepository(db),
			repositories.NewGORMQuoteRepository(db),
			repositories.NewGORMNavItemRepository(db),
		),
	}, products
}

func TestLoadCatalog(t *testing.T) {
	catalog, err := seed.LoadCatalog("testdata/catalog.yaml")
	require.NoError(t, err)

	require.Len(t, catalog.Products, 2)
	assert.Len(t, catalog.Collections, 2)
	assert.Equal(t, []string{"SAR-KAN-001"}, catalog.BestSelling)

	p := catalog.Products[0].Product()
	assert.True(t, p.IsActive)
	assert.Equal(t, 7499.0, p.SellingPrice)
	cell, ok := p.StockDetails.Cell("Free", "Maroon")
	require.True(t, ok)
	assert.Equal(t, models.Quantity(4), cell.Quantity)
	assert.Equal(t, "https://cdn.example.com/p/sar-kan-001-maroon.jpg", p.DisplayImage("Free", "Maroon"))
}

func TestParseCatalogRejectsMalformedYAML(t *testing.T) {
	_, err := seed.ParseCatalog([]byte("products: [unterminated"))
	assert.Error(t, err)
}

func TestApplyIsRepeatable(t *testing.T) {
	seeder, products := newSeeder(t)
	catalog, err := seed.LoadCatalog("testdata/catalog.yaml")
	require.NoError(t, err)
	ctx := context.Background()

	report, err := seeder.Apply(ctx, catalog)
	require.NoError(t, err)
	assert.Equal(t, seed.Report{Collections: 2, Products: 2, BestSelling: 1, Quotes: 1}, report)

	stored, err := products.GetByID(ctx, "BED-COT-002")
	require.NoError(t, err)
	assert.Equal(t, models.StockInStock, stored.Stock)

	report, err = seeder.Apply(ctx, catalog)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Skipped)
	assert.Zero(t, report.Products)
}

func TestApplyStopsOnInvalidProduct(t *testing.T) {
	seeder, _ := newSeeder(t)
	catalog := &seed.Catalog{Products: []seed.ProductSeed{{ID: "BAD-1", Collection: "Womens", Title: "No price"}}}

	_, err := seeder.Apply(context.Background(), catalog)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)
}
