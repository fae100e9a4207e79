package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ContentService manages homepage content: banners, quotes and navigation entries.
type ContentService struct {
	banners repositories.BannerRepository
	quotes  repositories.QuoteRepository
	nav     repositories.NavItemRepository
	now     func() time.Time
}

// NewContentService creates a new ContentService.
func NewContentService(banners repositories.BannerRepository, quotes repositories.QuoteRepository, nav repositories.NavItemRepository) *ContentService {
	return &ContentService{banners: banners, quotes: quotes, nav: nav, now: time.Now}
}

func (s *ContentService) ListBanners(ctx context.Context) ([]models.Banner, error) {
	return s.banners.List(ctx)
}

func (s *ContentService) CreateBanners(ctx context.Context, banners []models.Banner) ([]models.Banner, error) {
	if len(banners) == 0 {
		return nil, newError(ErrValidation, "Invalid banner data")
	}
	now := s.now()
	for i := range banners {
		if err := checkStruct(banners[i], nil, "Invalid banner data"); err != nil {
			return nil, err
		}
		banners[i].ID = ""
		banners[i].CreatedAt = now
	}
	if err := s.banners.CreateMany(ctx, banners); err != nil {
		return nil, err
	}
	return banners, nil
}

func (s *ContentService) UpdateBannerLink(ctx context.Context, id, link string) (*models.Banner, error) {
	banner, err := s.banners.UpdateLink(ctx, id, link)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "Banner not found")
	}
	return banner, err
}

func (s *ContentService) DeleteBanner(ctx context.Context, id string) error {
	return notFoundAs(s.banners.Delete(ctx, id), "Banner not found")
}

func (s *ContentService) ListQuotes(ctx context.Context) ([]models.Quote, error) {
	return s.quotes.List(ctx)
}

func (s *ContentService) CreateQuote(ctx context.Context, text, author string) (*models.Quote, error) {
	now := s.now()
	quote := &models.Quote{Text: text, Author: author, CreatedAt: now, UpdatedAt: now}
	if err := checkStruct(quote, nil, "Quote text is required"); err != nil {
		return nil, err
	}
	if err := s.quotes.Create(ctx, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *ContentService) UpdateQuote(ctx context.Context, id, text, author string) (*models.Quote, error) {
	quote := &models.Quote{ID: id, Text: text, Author: author, UpdatedAt: s.now()}
	if err := checkStruct(quote, nil, "Quote text is required"); err != nil {
		return nil, err
	}
	if err := notFoundAs(s.quotes.Update(ctx, quote), "Quote not found"); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *ContentService) DeleteQuote(ctx context.Context, id string) error {
	return notFoundAs(s.quotes.Delete(ctx, id), "Quote not found")
}

func (s *ContentService) ClearQuotes(ctx context.Context) (int64, error) {
	return s.quotes.DeleteAll(ctx)
}

func (s *ContentService) ListNavItems(ctx context.Context) ([]models.NavItem, error) {
	return s.nav.List(ctx)
}

func (s *ContentService) CreateNavItem(ctx context.Context, item models.NavItem) (*models.NavItem, error) {
	if err := checkStruct(item, nil, "Nav item label is required"); err != nil {
		return nil, err
	}
	now := s.now()
	item.ID = ""
	item.CreatedAt = now
	item.UpdatedAt = now
	if err := s.nav.Create(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateNavItem replaces label, link and position of an entry.
func (s *ContentService) UpdateNavItem(ctx context.Context, id string, item models.NavItem) (*models.NavItem, error) {
	if err := checkStruct(item, nil, "Nav item label is required"); err != nil {
		return nil, err
	}
	item.ID = id
	item.UpdatedAt = s.now()
	if err := notFoundAs(s.nav.Update(ctx, &item), "Nav item not found"); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *ContentService) DeleteNavItem(ctx context.Context, id string) error {
	return notFoundAs(s.nav.Delete(ctx, id), "Nav item not found")
}

func (s *ContentService) ClearNavItems(ctx context.Context) (int64, error) {
	return s.nav.DeleteAll(ctx)
}

// BestSellingPosition moves one best-selling entry.
type BestSellingPosition struct {
	ProductID string
	Position  int
}

// BestSellingService curates the best-selling strip.
type BestSellingService struct {
	entries  repositories.BestSellingRepository
	products repositories.ProductRepository
	now      func() time.Time
}

// NewBestSellingService creates a new BestSellingService.
func NewBestSellingService(entries repositories.BestSellingRepository, products repositories.ProductRepository) *BestSellingService {
	return &BestSellingService{entries: entries, products: products, now: time.Now}
}

// List returns active entries joined with their active products, in strip order.
// Entries whose product is gone or inactive are omitted.
func (s *BestSellingService) List(ctx context.Context) ([]models.BestSellingProduct, error) {
	entries, err := s.entries.List(ctx, true)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ProductID
	}
	products, err := s.products.GetByIDs(ctx, ids, true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch best selling products: %w", err)
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]models.BestSellingProduct, 0, len(entries))
	for _, e := range entries {
		p, ok := byID[e.ProductID]
		if !ok {
			continue
		}
		out = append(out, models.BestSellingProduct{Product: p, BestSellingOrder: e.Position, BestSellingID: e.ID})
	}
	return out, nil
}

func (s *BestSellingService) Add(ctx context.Context, productID string) (*models.BestSellingProduct, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, newError(ErrValidation, "Product ID is required")
	}
	product, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && !product.IsActive) {
		return nil, newError(ErrNotFound, "Product not found or inactive")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}

	if _, err := s.entries.GetByProductID(ctx, productID); err == nil {
		return nil, newError(ErrConflict, "Product is already in best selling list")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	position, err := s.entries.NextPosition(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	entry := &models.BestSelling{ProductID: productID, Position: position, IsActive: true, CreatedAt: now, UpdatedAt: now}
	if err := s.entries.Create(ctx, entry); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, newError(ErrConflict, "Product is already in best selling list")
		}
		return nil, err
	}
	return &models.BestSellingProduct{Product: *product, BestSellingOrder: entry.Position, BestSellingID: entry.ID}, nil
}

func (s *BestSellingService) Remove(ctx context.Context, productID string) error {
	n, err := s.entries.DeleteByProductIDs(ctx, productID)
	if err != nil {
		return err
	}
	if n == 0 {
		return newError(ErrNotFound, "Product not found in best selling list")
	}
	return nil
}

func (s *BestSellingService) Toggle(ctx context.Context, productID string) (*models.BestSelling, error) {
	entry, err := s.entries.GetByProductID(ctx, productID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "Product not found in best selling list")
	}
	if err != nil {
		return nil, err
	}
	entry.IsActive = !entry.IsActive
	entry.UpdatedAt = s.now()
	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Reorder sets new positions. Unknown product ids are ignored.
func (s *BestSellingService) Reorder(ctx context.Context, items []BestSellingPosition) error {
	if items == nil {
		return newError(ErrValidation, "Items array is required")
	}
	for _, item := range items {
		entry, err := s.entries.GetByProductID(ctx, item.ProductID)
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		entry.Position = item.Position
		entry.UpdatedAt = s.now()
		if err := s.entries.Update(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (s *BestSellingService) Clear(ctx context.Context) (int64, error) {
	return s.entries.DeleteAll(ctx)
}

// Sync drops entries whose product was deleted or deactivated and returns how many
// were removed.
func (s *BestSellingService) Sync(ctx context.Context) (int64, error) {
	entries, err := s.entries.List(ctx, false)
	if err != nil {
		return 0, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ProductID
	}
	active, err := s.products.GetByIDs(ctx, ids, true)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch products: %w", err)
	}
	keep := make(map[string]bool, len(active))
	for _, p := range active {
		keep[p.ID] = true
	}
	var stale []string
	for _, id := range ids {
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	return s.entries.DeleteByProductIDs(ctx, stale...)
}

func notFoundAs(err error, message string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return newError(ErrNotFound, "%s", message)
	}
	return err
}
