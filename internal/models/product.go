package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// StockStatus is the denormalised availability label of a product.
type StockStatus string

const (
	StockInStock    StockStatus = "In Stock"
	StockLowStock   StockStatus = "Low Stock"
	StockOutOfStock StockStatus = "Out of Stock"
)

// LowStockThreshold is the cell quantity below which a product is labelled "Low Stock".
const LowStockThreshold = 5

// Valid reports whether s is one of the known labels.
func (s StockStatus) Valid() bool {
	switch s {
	case StockInStock, StockLowStock, StockOutOfStock:
		return true
	}
	return false
}

// StockStatusFor derives the availability label from the quantity of the cell that
// was last changed.
func StockStatusFor(quantity int) StockStatus {
	switch {
	case quantity <= 0:
		return StockOutOfStock
	case quantity < LowStockThreshold:
		return StockLowStock
	default:
		return StockInStock
	}
}

// Quantity is a stock counter. It decodes leniently from JSON and BSON: numbers,
// numeric strings and null are accepted, anything else reads as zero. Negative input is
// clamped to zero.
type Quantity int

func (q *Quantity) UnmarshalJSON(data []byte) error {
	*q = ParseQuantity(strings.Trim(strings.TrimSpace(string(data)), `"`))
	return nil
}

// UnmarshalBSONValue accepts the same loose shapes as UnmarshalJSON so documents
// written by older clients with string quantities still load.
func (q *Quantity) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Int32:
		*q = clampQuantity(int(raw.Int32()))
	case bsontype.Int64:
		*q = clampQuantity(int(raw.Int64()))
	case bsontype.Double:
		*q = clampFloat(raw.Double())
	case bsontype.String:
		*q = ParseQuantity(raw.StringValue())
	default:
		*q = 0
	}
	return nil
}

// ParseQuantity converts a loosely typed quantity into a non-negative counter.
func ParseQuantity(raw string) Quantity {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return clampQuantity(n)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return clampFloat(f)
	}
	return 0
}

func clampFloat(f float64) Quantity {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return clampQuantity(int(f))
}

func clampQuantity(n int) Quantity {
	if n < 0 {
		return 0
	}
	return Quantity(n)
}

// StockCell is the counter for one (size, color) pair of a product.
type StockCell struct {
	Quantity Quantity `json:"quantity" bson:"quantity"`
	Codename string   `json:"codename,omitempty" bson:"codename,omitempty"`
	Images   []string `json:"images,omitempty" bson:"images,omitempty"`
}

// StockDetails maps size -> color -> cell.
type StockDetails map[string]map[string]StockCell

// Cell returns the cell for size/color and whether both branches exist.
func (d StockDetails) Cell(size, color string) (StockCell, bool) {
	colors, ok := d[size]
	if !ok {
		return StockCell{}, false
	}
	cell, ok := colors[color]
	return cell, ok
}

// HasSize reports whether the size branch exists.
func (d StockDetails) HasSize(size string) bool {
	_, ok := d[size]
	return ok
}

// SetQuantity writes quantity into the cell, creating missing branches.
func (d StockDetails) SetQuantity(size, color string, quantity int) {
	colors, ok := d[size]
	if !ok {
		colors = make(map[string]StockCell)
		d[size] = colors
	}
	cell := colors[color]
	cell.Quantity = clampQuantity(quantity)
	colors[color] = cell
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (d StockDetails) Clone() StockDetails {
	if d == nil {
		return nil
	}
	out := make(StockDetails, len(d))
	for size, colors := range d {
		cp := make(map[string]StockCell, len(colors))
		for color, cell := range colors {
			cell.Images = append([]string(nil), cell.Images...)
			cp[color] = cell
		}
		out[size] = cp
	}
	return out
}

// Product represents a catalog entry. ID is the external identifier used by every
// other entity; storage-engine identities never leave the repository layer.
type Product struct {
	ID            string              `json:"id" gorm:"primaryKey;type:varchar(64)" bson:"id" validate:"required,max=64"`
	Collection    string              `json:"collection" gorm:"index;type:varchar(100)" bson:"collection" validate:"required,max=100"`
	Title         string              `json:"title" gorm:"type:varchar(200)" bson:"title" validate:"required,max=200"`
	Description   string              `json:"description" bson:"description"`
	Price         float64             `json:"price" bson:"price" validate:"gt=0"`
	SellingPrice  float64             `json:"sellingPrice" bson:"sellingPrice" validate:"gte=0"`
	Discount      float64             `json:"discount" bson:"discount" validate:"gte=0"`
	Stock         StockStatus         `json:"stock" gorm:"index;type:varchar(20)" bson:"stock"`
	StockDetails  StockDetails        `json:"stockDetails" gorm:"serializer:json" bson:"stockDetails"`
	Colors        string              `json:"colors" bson:"colors"`
	Size          string              `json:"size" bson:"size"`
	Age           string              `json:"age" bson:"age"`
	ColorImages   map[string][]string `json:"colorImages" gorm:"serializer:json" bson:"colorImages"`
	SareeType     string              `json:"sareeType" bson:"sareeType"`
	SleeveType    string              `json:"sleeveType" bson:"sleeveType"`
	InstructionID string              `json:"instructionId" bson:"instructionId"`
	IsActive      bool                `json:"isActive" gorm:"index" bson:"isActive"`
	CreatedBy     string              `json:"createdBy" bson:"createdBy"`
	CreatedAt     time.Time           `json:"createdAt" gorm:"index" bson:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// EffectivePrice is the price a customer pays.
func (p *Product) EffectivePrice() float64 {
	if p.SellingPrice > 0 {
		return p.SellingPrice
	}
	return p.Price
}

// DisplayImage picks the first image of the cell, then the first color image.
func (p *Product) DisplayImage(size, color string) string {
	if cell, ok := p.StockDetails.Cell(size, color); ok && len(cell.Images) > 0 {
		return cell.Images[0]
	}
	if imgs := p.ColorImages[color]; len(imgs) > 0 {
		return imgs[0]
	}
	return ""
}

// ProductFilter narrows catalog listings. Zero values mean "no constraint".
type ProductFilter struct {
	Collection string
	Stock      StockStatus
	IsActive   *bool
	Search     string
	MinPrice   *float64
	MaxPrice   *float64
	SortBy     string
	SortAsc    bool
	Limit      int
	Skip       int
}
