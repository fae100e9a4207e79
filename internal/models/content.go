package models

import (
	"regexp"
	"strings"
	"time"
)

// Collection groups products on the storefront. Name is the display form,
// NormalizedName the unique lookup key.
type Collection struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name           string    `json:"name" gorm:"type:varchar(100)"`
	NormalizedName string    `json:"normalizedName" gorm:"uniqueIndex;type:varchar(100)"`
	Enabled        bool      `json:"enabled" gorm:"index"`
	Image          string    `json:"image"`
	OfferEnabled   bool      `json:"offerEnabled"`
	IsDefault      bool      `json:"isDefault"`
	Position       int       `json:"order"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeCollectionName trims and replaces whitespace runs with underscores.
func NormalizeCollectionName(name string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(name), "_")
}

// DisplayCollectionName turns a normalized name back into its display form.
func DisplayCollectionName(normalized string) string {
	return strings.ReplaceAll(normalized, "_", " ")
}

// Banner is a homepage image with an optional link.
type Banner struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Image     string    `json:"image" validate:"notblank"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

type Quote struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Text      string    `json:"text" validate:"notblank"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NavItem struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Label     string    `json:"label" validate:"notblank"`
	Link      string    `json:"link"`
	Position  int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BestSelling pins a product to the best-selling strip.
type BestSelling struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"productId" gorm:"uniqueIndex;type:varchar(64)"`
	Position  int       `json:"order"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BestSellingProduct is a best-selling entry joined with its product.
type BestSellingProduct struct {
	Product
	BestSellingOrder int    `json:"bestSellingOrder"`
	BestSellingID    string `json:"bestSellingId"`
}
