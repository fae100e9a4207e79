package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/metrics"
	"storefront/pkg/rabbitmq"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultOrderIDPrefix = "CKT"
	defaultUserEmail     = "N/A"
	defaultUserName      = "Customer"
)

// EventPublisher delivers order lifecycle events to other processes.
type EventPublisher interface {
	Publish(ctx context.Context, event rabbitmq.OrderEvent) error
}

// PlaceOrderInput is what a client submits to place an order.
type PlaceOrderInput struct {
	UserID          string `validate:"required"`
	UserEmail       string
	UserName        string
	Items           []models.OrderItem `validate:"notblank"`
	TotalAmount     float64            `validate:"required,gt=0"`
	PaymentMethod   string
	ShippingAddress *models.ShippingAddress `validate:"required"`
	PaymentDetails  *models.PaymentDetails
}

var placeOrderMessages = fieldMessages{
	"ShippingAddress.required": "Missing required fields",
	"ShippingAddress":          "Incomplete shipping address",
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	cartRepo  repositories.CartRepository
	stock     *StockReserver
	publisher EventPublisher
	logger    *zap.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	idPrefix  string
	now       func() time.Time
}

// OrderOption customises an OrderService.
type OrderOption func(*OrderService)

// WithOrderIDPrefix sets the prefix of generated order ids.
func WithOrderIDPrefix(prefix string) OrderOption {
	return func(s *OrderService) {
		if prefix != "" {
			s.idPrefix = prefix
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

// WithPublisher enables order events. Without it events are skipped.
func WithPublisher(p EventPublisher) OrderOption {
	return func(s *OrderService) { s.publisher = p }
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, cartRepo repositories.CartRepository, logger *zap.Logger, m *metrics.Metrics, opts ...OrderOption) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &OrderService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		stock:     NewStockReserver(productRepo, logger, m),
		logger:    logger,
		metrics:   m,
		tracer:    otel.Tracer("storefront/orders"),
		idPrefix:  DefaultOrderIDPrefix,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateOrderID builds "<prefix>_<last 8 digits of epoch ms>_<5 digit random>".
func GenerateOrderID(prefix string, now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	return fmt.Sprintf("%s_%s_%d", prefix, ms, 10000+rand.IntN(90000))
}

// PlaceOrder reserves stock for every item and persists a new order.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	return s.place(ctx, in, false)
}

// PlaceOrderWithPayment is PlaceOrder for checkouts that went through the gateway.
// Online orders must carry the gateway payment id; the signature is verified
// by a separate call beforehand.
func (s *OrderService) PlaceOrderWithPayment(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	return s.place(ctx, in, true)
}

func (s *OrderService) place(ctx context.Context, in PlaceOrderInput, withPayment bool) (order *models.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOrder", trace.WithAttributes(
		attribute.String("user.id", in.UserID),
		attribute.Int("order.items", len(in.Items)),
		attribute.Bool("order.with_payment", withPayment),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := checkStruct(in, placeOrderMessages, "Missing required fields"); err != nil {
		return nil, err
	}
	method, ok := models.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return nil, newError(ErrValidation, "Invalid payment method")
	}
	online := withPayment && method == models.PaymentOnline
	if online && (in.PaymentDetails == nil || in.PaymentDetails.RazorpayPaymentID == "") {
		return nil, newError(ErrValidation, "Payment details are required for online payment")
	}

	reservation, err := s.stock.Reserve(ctx, stockLinesFromItems(in.Items))
	if err != nil {
		return nil, err
	}

	now := s.now()
	order = &models.Order{
		OrderID:         GenerateOrderID(s.idPrefix, now),
		UserID:          in.UserID,
		UserEmail:       firstNonEmpty(in.UserEmail, defaultUserEmail),
		UserName:        firstNonEmpty(in.UserName, defaultUserName),
		Items:           in.Items,
		TotalAmount:     in.TotalAmount,
		PaymentMethod:   method,
		ShippingAddress: *in.ShippingAddress,
		CreatedAt:       now,
	}

	note := "Order placed by user"
	if online {
		paidAt := now
		order.PaymentDetails = &models.PaymentDetails{
			RazorpayOrderID:   in.PaymentDetails.RazorpayOrderID,
			RazorpayPaymentID: in.PaymentDetails.RazorpayPaymentID,
			PaymentStatus:     models.PaymentCompleted,
			PaidAt:            &paidAt,
		}
		note = fmt.Sprintf("Order placed with online payment (%s)", in.PaymentDetails.RazorpayPaymentID)
	}
	order.Transition(models.StatusOrderPlaced, note, now)

	if err := s.orderRepo.Create(ctx, order); err != nil {
		reservation.Release(ctx)
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	span.SetAttributes(attribute.String("order.id", order.OrderID))
	s.metrics.OrderPlaced(string(method))
	s.logger.Info("order placed",
		zap.String("order_id", order.OrderID),
		zap.String("user_id", order.UserID),
		zap.Float64("total_amount", order.TotalAmount),
		zap.String("payment_method", string(method)),
	)

	s.clearCart(ctx, order.UserID)
	s.publish(ctx, rabbitmq.EventOrderPlaced, order)
	return order, nil
}

func (s *OrderService) clearCart(ctx context.Context, userID string) {
	err := s.cartRepo.Clear(ctx, models.ParseCartOwner(userID))
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		s.logger.Warn("failed to clear cart after order", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	event := rabbitmq.OrderEvent{
		Type:        eventType,
		OrderID:     order.OrderID,
		UserID:      order.UserID,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
		At:          s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish order event",
			zap.String("type", eventType),
			zap.String("order_id", order.OrderID),
			zap.Error(err),
		)
	}
}

// ListUserOrders returns the user's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetOrder retrieves a single order by its public id.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderID(ctx, orderID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// CancelOrder cancels an order that has not shipped yet and puts its stock back.
// The status change is a conditional write, so stock is restored at most once even
// when two cancellations race.
func (s *OrderService) CancelOrder(ctx context.Context, orderID string) (order *models.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CancelOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	current, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := cancellable(current.Status); err != nil {
		return nil, err
	}

	change := models.StatusChange{Status: models.StatusCancelled, Timestamp: s.now(), Note: "Order cancelled by user"}
	order, err = s.orderRepo.Transition(ctx, orderID, change, models.StatusOrderPlaced, models.StatusProcessing)
	switch {
	case errors.Is(err, repositories.ErrStatusMismatch):
		latest, getErr := s.GetOrder(ctx, orderID)
		if getErr != nil {
			return nil, getErr
		}
		if err := cancellable(latest.Status); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("failed to cancel order %s: %w", orderID, err)
	case errors.Is(err, repositories.ErrNotFound):
		return nil, newError(ErrNotFound, "Order not found")
	case err != nil:
		return nil, fmt.Errorf("failed to cancel order %s: %w", orderID, err)
	}

	if err := s.stock.Restore(ctx, stockLinesFromItems(order.Items)); err != nil {
		s.logger.Error("order cancelled but stock restore failed", zap.String("order_id", orderID), zap.Error(err))
	}

	s.metrics.OrderCancelled()
	s.logger.Info("order cancelled", zap.String("order_id", orderID))
	s.publish(ctx, rabbitmq.EventOrderCancelled, order)
	return order, nil
}

func cancellable(status models.OrderStatus) error {
	switch {
	case status == models.StatusCancelled:
		return newError(ErrAlreadyCancelled, "Order already cancelled")
	case !status.Cancellable():
		return newError(ErrNotCancellable, "Cannot cancel order that has been shipped or delivered")
	}
	return nil
}

// UpdateOrderStatus moves an order to any status of the closed set. Stock is not
// touched.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID, rawStatus, note string) (*models.Order, error) {
	status, ok := models.ParseOrderStatus(rawStatus)
	if !ok {
		return nil, newError(ErrInvalidStatus, "Invalid status")
	}
	if note == "" {
		note = fmt.Sprintf("Order status updated to %s", status)
	}

	order, err := s.orderRepo.Transition(ctx, orderID, models.StatusChange{Status: status, Timestamp: s.now(), Note: note})
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order status for order %s: %w", orderID, err)
	}

	s.logger.Info("order status updated", zap.String("order_id", orderID), zap.String("status", string(status)))
	s.publish(ctx, rabbitmq.EventOrderStatusUpdated, order)
	return order, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
