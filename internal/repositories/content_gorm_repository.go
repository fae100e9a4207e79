package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func firstWhere[T any](ctx context.Context, db *gorm.DB, label, query string, args ...any) (*T, error) {
	var out T
	if err := db.WithContext(ctx).Where(query, args...).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", label, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s: %w", label, err)
	}
	return &out, nil
}

func deleteByID[T any](ctx context.Context, db *gorm.DB, label, id string) error {
	var model T
	res := db.WithContext(ctx).Delete(&model, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete %s %s: %w", label, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", label, id, ErrNotFound)
	}
	return nil
}

func deleteAll[T any](ctx context.Context, db *gorm.DB, label string) (int64, error) {
	var model T
	res := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", label, res.Error)
	}
	return res.RowsAffected, nil
}

func saveExisting(ctx context.Context, db *gorm.DB, label, id string, value any) error {
	res := db.WithContext(ctx).Model(value).Select("*").Omit("created_at").Updates(value)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%s %s: %w", label, id, ErrDuplicate)
		}
		return fmt.Errorf("failed to update %s %s: %w", label, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", label, id, ErrNotFound)
	}
	return nil
}

func nextPosition(ctx context.Context, db *gorm.DB, model any) (int, error) {
	var last sql.NullInt64
	if err := db.WithContext(ctx).Model(model).Select("MAX(position)").Scan(&last).Error; err != nil {
		return 0, fmt.Errorf("failed to read last position: %w", err)
	}
	if !last.Valid {
		return 0, nil
	}
	return int(last.Int64) + 1, nil
}

// GORMCollectionRepository is a GORM implementation of CollectionRepository.
type GORMCollectionRepository struct {
	db *gorm.DB
}

// NewGORMCollectionRepository creates a new instance of GORMCollectionRepository.
func NewGORMCollectionRepository(db *gorm.DB) *GORMCollectionRepository {
	return &GORMCollectionRepository{db: db}
}

func (r *GORMCollectionRepository) List(ctx context.Context, filter CollectionFilter) ([]models.Collection, error) {
	q := r.db.WithContext(ctx)
	if filter.EnabledOnly || filter.OffersOnly {
		q = q.Where("enabled = ?", true)
	}
	if filter.OffersOnly {
		q = q.Where("offer_enabled = ?", true)
	}
	collections := []models.Collection{}
	if err := q.Order("position ASC").Order("created_at ASC").Find(&collections).Error; err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return collections, nil
}

func (r *GORMCollectionRepository) GetByID(ctx context.Context, id string) (*models.Collection, error) {
	return firstWhere[models.Collection](ctx, r.db, "collection "+id, "id = ?", id)
}

func (r *GORMCollectionRepository) GetByNormalizedName(ctx context.Context, normalized string) (*models.Collection, error) {
	return firstWhere[models.Collection](ctx, r.db, "collection "+normalized, "normalized_name = ?", normalized)
}

// Create inserts one or more collections in a single statement.
func (r *GORMCollectionRepository) Create(ctx context.Context, collections ...*models.Collection) error {
	if len(collections) == 0 {
		return nil
	}
	for _, c := range collections {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
	}
	if err := r.db.WithContext(ctx).Create(collections).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("collection: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (r *GORMCollectionRepository) Update(ctx context.Context, collection *models.Collection) error {
	return saveExisting(ctx, r.db, "collection", collection.ID, collection)
}

func (r *GORMCollectionRepository) Delete(ctx context.Context, id string) error {
	return deleteByID[models.Collection](ctx, r.db, "collection", id)
}

func (r *GORMCollectionRepository) NextPosition(ctx context.Context) (int, error) {
	return nextPosition(ctx, r.db, &models.Collection{})
}

func (r *GORMCollectionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Collection{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count collections: %w", err)
	}
	return n, nil
}

// GORMBannerRepository is a GORM implementation of BannerRepository.
type GORMBannerRepository struct {
	db *gorm.DB
}

// NewGORMBannerRepository creates a new instance of GORMBannerRepository.
func NewGORMBannerRepository(db *gorm.DB) *GORMBannerRepository {
	return &GORMBannerRepository{db: db}
}

func (r *GORMBannerRepository) List(ctx context.Context) ([]models.Banner, error) {
	banners := []models.Banner{}
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&banners).Error; err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}
	return banners, nil
}

func (r *GORMBannerRepository) CreateMany(ctx context.Context, banners []models.Banner) error {
	if len(banners) == 0 {
		return nil
	}
	for i := range banners {
		if banners[i].ID == "" {
			banners[i].ID = uuid.New().String()
		}
	}
	if err := r.db.WithContext(ctx).Create(&banners).Error; err != nil {
		return fmt.Errorf("failed to create banners: %w", err)
	}
	return nil
}

func (r *GORMBannerRepository) UpdateLink(ctx context.Context, id, link string) (*models.Banner, error) {
	res := r.db.WithContext(ctx).Model(&models.Banner{ID: id}).Update("link", link)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update banner %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("banner %s: %w", id, ErrNotFound)
	}
	return firstWhere[models.Banner](ctx, r.db, "banner "+id, "id = ?", id)
}

func (r *GORMBannerRepository) Delete(ctx context.Context, id string) error {
	return deleteByID[models.Banner](ctx, r.db, "banner", id)
}

// GORMQuoteRepository is a GORM implementation of QuoteRepository.
type GORMQuoteRepository struct {
	db *gorm.DB
}

// NewGORMQuoteRepository creates a new instance of GORMQuoteRepository.
func NewGORMQuoteRepository(db *gorm.DB) *GORMQuoteRepository {
	return &GORMQuoteRepository{db: db}
}

func (r *GORMQuoteRepository) List(ctx context.Context) ([]models.Quote, error) {
	quotes := []models.Quote{}
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&quotes).Error; err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	return quotes, nil
}

func (r *GORMQuoteRepository) Create(ctx context.Context, quote *models.Quote) error {
	if quote.ID == "" {
		quote.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(quote).Error; err != nil {
		return fmt.Errorf("failed to create quote: %w", err)
	}
	return nil
}

func (r *GORMQuoteRepository) Update(ctx context.Context, quote *models.Quote) error {
	return saveExisting(ctx, r.db, "quote", quote.ID, quote)
}

func (r *GORMQuoteRepository) Delete(ctx context.Context, id string) error {
	return deleteByID[models.Quote](ctx, r.db, "quote", id)
}

func (r *GORMQuoteRepository) DeleteAll(ctx context.Context) (int64, error) {
	return deleteAll[models.Quote](ctx, r.db, "quotes")
}

// GORMNavItemRepository is a GORM implementation of NavItemRepository.
type GORMNavItemRepository struct {
	db *gorm.DB
}

// NewGORMNavItemRepository creates a new instance of GORMNavItemRepository.
func NewGORMNavItemRepository(db *gorm.DB) *GORMNavItemRepository {
	return &GORMNavItemRepository{db: db}
}

func (r *GORMNavItemRepository) List(ctx context.Context) ([]models.NavItem, error) {
	items := []models.NavItem{}
	if err := r.db.WithContext(ctx).Order("position ASC").Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list nav items: %w", err)
	}
	return items, nil
}

func (r *GORMNavItemRepository) Create(ctx context.Context, item *models.NavItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create nav item: %w", err)
	}
	return nil
}

func (r *GORMNavItemRepository) Update(ctx context.Context, item *models.NavItem) error {
	return saveExisting(ctx, r.db, "nav item", item.ID, item)
}

func (r *GORMNavItemRepository) Delete(ctx context.Context, id string) error {
	return deleteByID[models.NavItem](ctx, r.db, "nav item", id)
}

func (r *GORMNavItemRepository) DeleteAll(ctx context.Context) (int64, error) {
	return deleteAll[models.NavItem](ctx, r.db, "nav items")
}

// GORMBestSellingRepository is a GORM implementation of BestSellingRepository.
type GORMBestSellingRepository struct {
	db *gorm.DB
}

// NewGORMBestSellingRepository creates a new instance of GORMBestSellingRepository.
func NewGORMBestSellingRepository(db *gorm.DB) *GORMBestSellingRepository {
	return &GORMBestSellingRepository{db: db}
}

func (r *GORMBestSellingRepository) List(ctx context.Context, activeOnly bool) ([]models.BestSelling, error) {
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	entries := []models.BestSelling{}
	if err := q.Order("position ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list best selling: %w", err)
	}
	return entries, nil
}

func (r *GORMBestSellingRepository) GetByProductID(ctx context.Context, productID string) (*models.BestSelling, error) {
	return firstWhere[models.BestSelling](ctx, r.db, "best selling "+productID, "product_id = ?", productID)
}

func (r *GORMBestSellingRepository) Create(ctx context.Context, entry *models.BestSelling) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("best selling %s: %w", entry.ProductID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create best selling entry: %w", err)
	}
	return nil
}

func (r *GORMBestSellingRepository) Update(ctx context.Context, entry *models.BestSelling) error {
	return saveExisting(ctx, r.db, "best selling", entry.ProductID, entry)
}

func (r *GORMBestSellingRepository) DeleteByProductIDs(ctx context.Context, productIDs ...string) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("product_id IN ?", productIDs).Delete(&models.BestSelling{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete best selling entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GORMBestSellingRepository) DeleteAll(ctx context.Context) (int64, error) {
	return deleteAll[models.BestSelling](ctx, r.db, "best selling")
}

func (r *GORMBestSellingRepository) NextPosition(ctx context.Context) (int, error) {
	return nextPosition(ctx, r.db, &models.BestSelling{})
}
