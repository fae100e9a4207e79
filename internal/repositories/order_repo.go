package repositories

import (
	"context"

	"storefront/internal/models"
)

// OrderRepository defines the interface for order data access. Orders are addressed
// by their public order id.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	// Transition sets the status and appends change to the history in one write,
	// provided the current status is one of from. An empty from accepts any status.
	Transition(ctx context.Context, orderID string, change models.StatusChange, from ...models.OrderStatus) (*models.Order, error)
}

func statusAllowed(current models.OrderStatus, from []models.OrderStatus) bool {
	if len(from) == 0 {
		return true
	}
	for _, s := range from {
		if s == current {
			return true
		}
	}
	return false
}
