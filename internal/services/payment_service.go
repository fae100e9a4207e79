package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"storefront/pkg/metrics"
	"storefront/pkg/razorpay"

	"go.uber.org/zap"
)

// PaymentGateway is the subset of the gateway client the payment flow needs.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
	KeyID() string
	VerifySignature(orderID, paymentID, signature string) bool
}

// PaymentService creates gateway orders and verifies checkout signatures.
type PaymentService struct {
	gateway PaymentGateway
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(gateway PaymentGateway, logger *zap.Logger, m *metrics.Metrics) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{gateway: gateway, logger: logger, metrics: m, now: time.Now}
}

// CreateGatewayOrder registers amount (in rupees) with the gateway and returns the
// gateway order together with the public key id for the checkout widget.
func (s *PaymentService) CreateGatewayOrder(ctx context.Context, amount float64, currency, receipt string) (*razorpay.Order, string, error) {
	if amount <= 0 {
		return nil, "", newError(ErrValidation, "Amount is required")
	}
	if currency == "" {
		currency = razorpay.DefaultCurrency
	}
	if receipt == "" {
		receipt = "receipt_" + strconv.FormatInt(s.now().UnixMilli(), 10)
	}

	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:         razorpay.ToPaise(amount),
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create gateway order: %w", err)
	}

	s.logger.Info("gateway order created", zap.String("gateway_order_id", order.ID), zap.Int64("amount", order.Amount))
	return order, s.gateway.KeyID(), nil
}

// VerifyPayment checks the checkout callback signature. It has no side effects.
func (s *PaymentService) VerifyPayment(_ context.Context, orderID, paymentID, signature string) error {
	if orderID == "" || paymentID == "" || signature == "" {
		return newError(ErrValidation, "Missing payment verification parameters")
	}
	ok := s.gateway.VerifySignature(orderID, paymentID, signature)
	s.metrics.PaymentVerified(ok)
	if !ok {
		s.logger.Warn("payment signature mismatch", zap.String("gateway_order_id", orderID), zap.String("payment_id", paymentID))
		return newError(ErrPaymentVerificationFailed, "Payment verification failed")
	}
	return nil
}
