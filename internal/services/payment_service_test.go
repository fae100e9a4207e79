package services_test

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/services"
	"storefront/pkg/razorpay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGateway is a mock implementation of services.PaymentGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*razorpay.Order), args.Error(1)
}

func (m *MockGateway) KeyID() string {
	return "rzp_test_key"
}

func (m *MockGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return razorpay.VerifySignature("secret", orderID, paymentID, signature)
}

func TestPaymentService_CreateGatewayOrder(t *testing.T) {
	gateway := new(MockGateway)
	svc := services.NewPaymentService(gateway, nil, nil)
	ctx := context.Background()

	gateway.On("CreateOrder", mock.Anything, razorpay.OrderRequest{
		Amount:         149950,
		Currency:       "INR",
		Receipt:        "rcpt_1",
		PaymentCapture: 1,
	}).Return(&razorpay.Order{ID: "order_abc", Amount: 149950, Currency: "INR"}, nil).Once()

	order, keyID, err := svc.CreateGatewayOrder(ctx, 1499.5, "", "rcpt_1")
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, "rzp_test_key", keyID)
	gateway.AssertExpectations(t)
}

func TestPaymentService_CreateGatewayOrder_Errors(t *testing.T) {
	gateway := new(MockGateway)
	svc := services.NewPaymentService(gateway, nil, nil)
	ctx := context.Background()

	_, _, err := svc.CreateGatewayOrder(ctx, 0, "", "")
	require.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, "Amount is required", err.Error())

	gateway.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req razorpay.OrderRequest) bool {
		return len(req.Receipt) > len("receipt_")
	})).Return(nil, errors.New("gateway down")).Once()
	_, _, err = svc.CreateGatewayOrder(ctx, 10, "INR", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway down")
}

func TestPaymentService_VerifyPayment(t *testing.T) {
	svc := services.NewPaymentService(new(MockGateway), nil, nil)
	ctx := context.Background()
	valid := razorpay.Sign("secret", "order_1", "pay_1")

	assert.NoError(t, svc.VerifyPayment(ctx, "order_1", "pay_1", valid))

	err := svc.VerifyPayment(ctx, "order_1", "pay_2", valid)
	require.ErrorIs(t, err, services.ErrPaymentVerificationFailed)
	assert.Equal(t, "Payment verification failed", err.Error())

	err = svc.VerifyPayment(ctx, "order_1", "", valid)
	require.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, "Missing payment verification parameters", err.Error())
}
