package services

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/repositories"
	"storefront/pkg/logging"
	"storefront/pkg/rabbitmq"
	"storefront/pkg/sms"

	"go.uber.org/zap"
)

// NotificationService turns order events into customer text messages.
type NotificationService struct {
	users  repositories.UserRepository
	sender sms.Sender
	logger *zap.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(users repositories.UserRepository, sender sms.Sender, logger *zap.Logger) *NotificationService {
	return &NotificationService{users: users, sender: sender, logger: logger}
}

// OrderMessage renders the text sent for an event, or "" when the event is not
// customer facing.
func OrderMessage(event rabbitmq.OrderEvent) string {
	switch event.Type {
	case rabbitmq.EventOrderPlaced:
		return fmt.Sprintf("Your order %s for Rs. %.2f has been placed.", event.OrderID, event.TotalAmount)
	case rabbitmq.EventOrderCancelled:
		return fmt.Sprintf("Your order %s has been cancelled.", event.OrderID)
	case rabbitmq.EventOrderStatusUpdated:
		return fmt.Sprintf("Your order %s is now %s.", event.OrderID, event.Status)
	}
	return ""
}

// HandleOrderEvent is the consumer callback for the order events queue. Events for
// unknown users or without a message are acknowledged without sending. A missing SMS
// configuration is not retried.
func (s *NotificationService) HandleOrderEvent(ctx context.Context, event rabbitmq.OrderEvent) error {
	log := logging.FromContextOr(ctx, s.logger).With(
		zap.String("event", event.Type),
		zap.String("order_id", event.OrderID),
	)
	body := OrderMessage(event)
	if body == "" || event.UserID == "" {
		log.Debug("order event skipped")
		return nil
	}

	user, err := s.users.GetByID(ctx, event.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		log.Info("order event for unknown user", zap.String("user_id", event.UserID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.sender.Send(ctx, user.Phone, body); err != nil {
		if errors.Is(err, sms.ErrNotConfigured) {
			return nil
		}
		return err
	}
	log.Info("order notification sent")
	return nil
}
