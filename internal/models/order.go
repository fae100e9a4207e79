package models

import (
	"strings"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusOrderPlaced OrderStatus = "Order Placed"
	StatusProcessing  OrderStatus = "Processing"
	StatusShipped     OrderStatus = "Shipped"
	StatusDelivered   OrderStatus = "Delivered"
	StatusCancelled   OrderStatus = "Cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusOrderPlaced,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// ParseOrderStatus maps the wire value onto the closed status set.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	for _, s := range OrderStatuses {
		if string(s) == raw {
			return s, true
		}
	}
	return "", false
}

// Cancellable reports whether a customer may still cancel an order in this state.
func (s OrderStatus) Cancellable() bool {
	switch s {
	case StatusOrderPlaced, StatusProcessing:
		return true
	default:
		return false
	}
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "online"
	PaymentCOD    PaymentMethod = "cod"
)

// ParsePaymentMethod defaults to online when raw is empty.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PaymentOnline:
		return PaymentOnline, true
	case PaymentCOD:
		return PaymentCOD, true
	}
	return "", false
}

// PaymentStatus is the gateway outcome recorded on an order.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// OrderItem is a snapshot of a product line at placement time. It is never
// re-read from the catalog.
type OrderItem struct {
	ProductID     string  `json:"id" bson:"id"`
	Title         string  `json:"title" bson:"title"`
	Price         float64 `json:"price" bson:"price"`
	Quantity      int     `json:"quantity" bson:"quantity"`
	SelectedSize  string  `json:"selectedSize" bson:"selectedSize"`
	SelectedColor string  `json:"selectedColor" bson:"selectedColor"`
	Image         string  `json:"image,omitempty" bson:"image,omitempty"`
	Collection    string  `json:"collection,omitempty" bson:"collection,omitempty"`
	OriginalPrice float64 `json:"originalPrice,omitempty" bson:"originalPrice,omitempty"`
	Discount      float64 `json:"discount,omitempty" bson:"discount,omitempty"`
}

// DisplayName is how the item is referred to in customer-facing errors.
func (i OrderItem) DisplayName() string {
	if i.Title != "" {
		return i.Title
	}
	return i.ProductID
}

// PaymentDetails records the gateway identifiers of an online payment.
type PaymentDetails struct {
	RazorpayOrderID   string        `json:"razorpay_order_id,omitempty" bson:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string        `json:"razorpay_payment_id,omitempty" bson:"razorpay_payment_id,omitempty"`
	PaymentStatus     PaymentStatus `json:"payment_status" bson:"payment_status"`
	PaidAt            *time.Time    `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
}

// ShippingAddress is where an order ships. PO and Taluk are optional.
type ShippingAddress struct {
	Street   string `json:"street" bson:"street" validate:"notblank"`
	Village  string `json:"village" bson:"village" validate:"notblank"`
	PO       string `json:"po" bson:"po"`
	Taluk    string `json:"taluk" bson:"taluk"`
	District string `json:"district" bson:"district" validate:"notblank"`
	State    string `json:"state" bson:"state" validate:"notblank"`
	Pincode  string `json:"pincode" bson:"pincode" validate:"notblank"`
	Country  string `json:"country" bson:"country" validate:"notblank"`
}

// StatusChange is one entry of the append-only order history.
type StatusChange struct {
	Status    OrderStatus `json:"status" bson:"status"`
	Timestamp time.Time   `json:"timestamp" bson:"timestamp"`
	Note      string      `json:"note" bson:"note"`
}

// Order represents a placed order.
type Order struct {
	OrderID         string          `json:"orderId" gorm:"primaryKey;type:varchar(40)" bson:"orderId"`
	UserID          string          `json:"userId" gorm:"index;type:varchar(64)" bson:"userId"`
	UserEmail       string          `json:"userEmail" bson:"userEmail"`
	UserName        string          `json:"userName" bson:"userName"`
	Items           []OrderItem     `json:"items" gorm:"serializer:json" bson:"items"`
	TotalAmount     float64         `json:"totalAmount" bson:"totalAmount"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" gorm:"type:varchar(10)" bson:"paymentMethod"`
	PaymentDetails  *PaymentDetails `json:"paymentDetails,omitempty" gorm:"serializer:json" bson:"paymentDetails,omitempty"`
	ShippingAddress ShippingAddress `json:"shippingAddress" gorm:"embedded;embeddedPrefix:shipping_" bson:"shippingAddress"`
	Status          OrderStatus     `json:"status" gorm:"index;type:varchar(20)" bson:"status"`
	StatusHistory   []StatusChange  `json:"statusHistory" gorm:"serializer:json" bson:"statusHistory"`
	CreatedAt       time.Time       `json:"createdAt" gorm:"index" bson:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// Transition moves the order to status and appends the matching history entry.
func (o *Order) Transition(status OrderStatus, note string, at time.Time) {
	o.Status = status
	o.StatusHistory = append(o.StatusHistory, StatusChange{
		Status:    status,
		Timestamp: at,
		Note:      note,
	})
	o.UpdatedAt = at
}
