// Package seed loads a YAML catalog fixture into the storefront stores.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"storefront/internal/models"
	"storefront/internal/services"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Catalog is the fixture file layout.
type Catalog struct {
	Collections []CollectionSeed `yaml:"collections"`
	Products    []ProductSeed    `yaml:"products"`
	BestSelling []string         `yaml:"best_selling"`
	Quotes      []QuoteSeed      `yaml:"quotes"`
}

type CollectionSeed struct {
	Name         string `yaml:"name"`
	Image        string `yaml:"image"`
	Enabled      *bool  `yaml:"enabled"`
	OfferEnabled bool   `yaml:"offer_enabled"`
}

// ProductSeed describes one product. Stock maps size -> color -> quantity.
type ProductSeed struct {
	ID           string                    `yaml:"id"`
	Collection   string                    `yaml:"collection"`
	Title        string                    `yaml:"title"`
	Description  string                    `yaml:"description"`
	Price        float64                   `yaml:"price"`
	SellingPrice float64                   `yaml:"selling_price"`
	Discount     float64                   `yaml:"discount"`
	Colors       string                    `yaml:"colors"`
	Size         string                    `yaml:"size"`
	Age          string                    `yaml:"age"`
	SareeType    string                    `yaml:"saree_type"`
	SleeveType   string                    `yaml:"sleeve_type"`
	Inactive     bool                      `yaml:"inactive"`
	Stock        map[string]map[string]int `yaml:"stock"`
	ColorImages  map[string][]string       `yaml:"color_images"`
}

type QuoteSeed struct {
	Text   string `yaml:"text"`
	Author string `yaml:"author"`
}

// Product converts the seed into a catalog product.
func (p ProductSeed) Product() *models.Product {
	details := models.StockDetails{}
	for size, colors := range p.Stock {
		for color, qty := range colors {
			details.SetQuantity(size, color, qty)
		}
	}
	return &models.Product{
		ID:           p.ID,
		Collection:   p.Collection,
		Title:        p.Title,
		Description:  p.Description,
		Price:        p.Price,
		SellingPrice: p.SellingPrice,
		Discount:     p.Discount,
		Colors:       p.Colors,
		Size:         p.Size,
		Age:          p.Age,
		SareeType:    p.SareeType,
		SleeveType:   p.SleeveType,
		IsActive:     !p.Inactive,
		StockDetails: details,
		ColorImages:  p.ColorImages,
	}
}

// LoadCatalog reads and parses a fixture file.
func LoadCatalog(path string) (*Catalog, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(file)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	catalog := &Catalog{}
	if err := yaml.Unmarshal(data, catalog); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return catalog, nil
}

// Report counts what Apply created and what already existed.
type Report struct {
	Collections int
	Products    int
	BestSelling int
	Quotes      int
	Skipped     int
}

// Seeder writes a catalog through the services so their validation applies.
type Seeder struct {
	Products    *services.ProductService
	Collections *services.CollectionService
	BestSelling *services.BestSellingService
	Content     *services.ContentService
	Logger      *zap.Logger
}

// Apply creates everything in catalog. Entries that already exist are skipped, so a
// fixture can be applied repeatedly; any other error stops the run.
func (s *Seeder) Apply(ctx context.Context, catalog *Catalog) (Report, error) {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	var report Report

	for _, c := range catalog.Collections {
		_, err := s.Collections.CreateCollection(ctx, services.CollectionInput{
			Name:         c.Name,
			Image:        c.Image,
			Enabled:      c.Enabled,
			OfferEnabled: c.OfferEnabled,
		})
		if err := tally(err, &report.Collections, &report.Skipped); err != nil {
			return report, fmt.Errorf("collection %q: %w", c.Name, err)
		}
	}

	for _, p := range catalog.Products {
		err := s.Products.CreateProduct(ctx, p.Product())
		if err := tally(err, &report.Products, &report.Skipped); err != nil {
			return report, fmt.Errorf("product %q: %w", p.ID, err)
		}
	}

	for _, id := range catalog.BestSelling {
		_, err := s.BestSelling.Add(ctx, id)
		if err := tally(err, &report.BestSelling, &report.Skipped); err != nil {
			return report, fmt.Errorf("best selling %q: %w", id, err)
		}
	}

	for _, q := range catalog.Quotes {
		if _, err := s.Content.CreateQuote(ctx, q.Text, q.Author); err != nil {
			return report, fmt.Errorf("quote: %w", err)
		}
		report.Quotes++
	}

	log.Info("catalog seeded",
		zap.Int("collections", report.Collections),
		zap.Int("products", report.Products),
		zap.Int("best_selling", report.BestSelling),
		zap.Int("quotes", report.Quotes),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

// tally counts a create outcome and returns err unless it was a conflict.
func tally(err error, created, skipped *int) error {
	switch {
	case err == nil:
		*created++
	case errors.Is(err, services.ErrConflict):
		*skipped++
	default:
		return err
	}
	return nil
}
