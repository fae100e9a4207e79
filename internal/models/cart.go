package models

import (
	"encoding/json"
	"strings"
	"time"
)

// CartOwner identifies whose cart is addressed. Anonymous visitors share the guest owner.
type CartOwner string

// GuestCartOwner is the owner used when no user identity was supplied.
const GuestCartOwner CartOwner = "guest"

// ParseCartOwner resolves a raw path value. Empty, "guest", "null" and "undefined"
// all resolve to the guest owner.
func ParseCartOwner(raw string) CartOwner {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "", "guest", "null", "undefined":
		return GuestCartOwner
	}
	return CartOwner(raw)
}

// IsGuest reports whether o is the shared guest owner.
func (o CartOwner) IsGuest() bool { return o == GuestCartOwner }

// CartItem is a snapshot of a product line in a cart.
type CartItem struct {
	ProductID     string  `json:"productId" bson:"productId"`
	Title         string  `json:"title" bson:"title"`
	Image         string  `json:"image" bson:"image"`
	Price         float64 `json:"price" bson:"price"`
	OriginalPrice float64 `json:"originalPrice" bson:"originalPrice"`
	Discount      float64 `json:"discount" bson:"discount"`
	SelectedSize  string  `json:"selectedSize" bson:"selectedSize"`
	SelectedColor string  `json:"selectedColor" bson:"selectedColor"`
	Quantity      int     `json:"quantity" bson:"quantity"`
	Collection    string  `json:"collection" bson:"collection"`
}

// Cart is the per-owner basket.
type Cart struct {
	UserID    CartOwner  `json:"userId" gorm:"primaryKey;type:varchar(64)" bson:"userId"`
	Items     []CartItem `json:"items" gorm:"serializer:json" bson:"items"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// FindItem returns the index of the line matching product, size and color, or -1.
func (c *Cart) FindItem(productID, size, color string) int {
	for i, item := range c.Items {
		if item.ProductID == productID && item.SelectedSize == size && item.SelectedColor == color {
			return i
		}
	}
	return -1
}

// TotalItems is the sum of line quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice is the sum of price * quantity over all lines.
func (c *Cart) TotalPrice() float64 {
	total := 0.0
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

type cartJSON Cart

// MarshalJSON adds the computed totals; they are never stored.
func (c Cart) MarshalJSON() ([]byte, error) {
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	return json.Marshal(struct {
		cartJSON
		TotalItems int     `json:"totalItems"`
		TotalPrice float64 `json:"totalPrice"`
	}{
		cartJSON:   cartJSON(c),
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
	})
}
