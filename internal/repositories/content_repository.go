package repositories

import (
	"context"

	"storefront/internal/models"
)

// CollectionFilter selects which collections List returns.
type CollectionFilter struct {
	EnabledOnly bool
	OffersOnly  bool
}

// CollectionRepository defines the interface for storefront collections.
// Lists are ordered by position, then creation time.
type CollectionRepository interface {
	List(ctx context.Context, filter CollectionFilter) ([]models.Collection, error)
	GetByID(ctx context.Context, id string) (*models.Collection, error)
	GetByNormalizedName(ctx context.Context, normalized string) (*models.Collection, error)
	Create(ctx context.Context, collections ...*models.Collection) error
	Update(ctx context.Context, collection *models.Collection) error
	Delete(ctx context.Context, id string) error
	NextPosition(ctx context.Context) (int, error)
	Count(ctx context.Context) (int64, error)
}

// BannerRepository defines the interface for homepage banners, listed newest first.
type BannerRepository interface {
	List(ctx context.Context) ([]models.Banner, error)
	CreateMany(ctx context.Context, banners []models.Banner) error
	UpdateLink(ctx context.Context, id, link string) (*models.Banner, error)
	Delete(ctx context.Context, id string) error
}

type QuoteRepository interface {
	List(ctx context.Context) ([]models.Quote, error)
	Create(ctx context.Context, quote *models.Quote) error
	Update(ctx context.Context, quote *models.Quote) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// NavItemRepository lists navigation entries by position.
type NavItemRepository interface {
	List(ctx context.Context) ([]models.NavItem, error)
	Create(ctx context.Context, item *models.NavItem) error
	Update(ctx context.Context, item *models.NavItem) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// BestSellingRepository stores best-selling entries keyed by product id.
type BestSellingRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.BestSelling, error)
	GetByProductID(ctx context.Context, productID string) (*models.BestSelling, error)
	Create(ctx context.Context, entry *models.BestSelling) error
	Update(ctx context.Context, entry *models.BestSelling) error
	DeleteByProductIDs(ctx context.Context, productIDs ...string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	NextPosition(ctx context.Context) (int, error)
}
