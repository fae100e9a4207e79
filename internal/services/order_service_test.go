package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/metrics"
	"storefront/pkg/rabbitmq"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event rabbitmq.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// failingOrderRepository rejects every insert.
type failingOrderRepository struct {
	*repositories.MockOrderRepository
}

func (r failingOrderRepository) Create(context.Context, *models.Order) error {
	return errors.New("disk full")
}

type orderFixture struct {
	products *repositories.MockProductRepository
	orders   *repositories.MockOrderRepository
	carts    *repositories.MockCartRepository
	metrics  *metrics.Metrics
	service  *services.OrderService
}

func newOrderFixture(t *testing.T, opts ...services.OrderOption) *orderFixture {
	t.Helper()
	f := &orderFixture{
		products: repositories.NewMockProductRepository(),
		orders:   repositories.NewMockOrderRepository(),
		carts:    repositories.NewMockCartRepository(),
		metrics:  metrics.New(),
	}
	f.service = services.NewOrderService(f.orders, f.products, f.carts, zap.NewNop(), f.metrics, opts...)
	return f
}

func (f *orderFixture) addProduct(t *testing.T, id, title string, cells map[string]map[string]int) {
	t.Helper()
	details := models.StockDetails{}
	for size, colors := range cells {
		for color, qty := range colors {
			details.SetQuantity(size, color, qty)
		}
	}
	require.NoError(t, f.products.Create(context.Background(), &models.Product{
		ID:           id,
		Title:        title,
		Collection:   "Womens",
		Price:        999,
		SellingPrice: 799,
		Stock:        models.StockInStock,
		StockDetails: details,
		IsActive:     true,
	}))
}

func (f *orderFixture) quantity(t *testing.T, id, size, color string) int {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	cell, ok := p.StockDetails.Cell(size, color)
	require.True(t, ok)
	return int(cell.Quantity)
}

func testAddress() *models.ShippingAddress {
	return &models.ShippingAddress{
		Street:   "12 MG Road",
		Village:  "Kottayam",
		District: "Kottayam",
		State:    "Kerala",
		Pincode:  "686001",
		Country:  "India",
	}
}

func orderInput(items ...models.OrderItem) services.PlaceOrderInput {
	return services.PlaceOrderInput{
		UserID:          "user-1",
		Items:           items,
		TotalAmount:     1598,
		PaymentMethod:   "cod",
		ShippingAddress: testAddress(),
	}
}

func item(productID, size, color string, qty int) models.OrderItem {
	return models.OrderItem{ProductID: productID, Title: "Cotton Saree", Price: 799, Quantity: qty, SelectedSize: size, SelectedColor: color}
}

func TestOrderService_PlaceOrder_DecrementsAndRelabels(t *testing.T) {
	f := newOrderFixture(t)
	f.addProduct(t, "P1", "Cotton Saree", map[string]map[string]int{"M": {"Red": 3}})
	ctx := context.Background()

	order, err := f.service.PlaceOrder(ctx, orderInput(item("P1", "M", "Red", 2)))
	require.NoError(t, err)
	assert.Equal(t, models.StatusOrderPlaced, order.Status)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, "Order placed by user", order.StatusHistory[0].Note)
	assert.Equal(t, models.PaymentCOD, order.PaymentMethod)
	assert.Equal(t, "N/A", order.UserEmail)
	assert.Equal(t, "Customer", order.UserName)
	assert.Regexp(t, `^CKT_\d{1,8}_\d{5}$`, order.OrderID)

	p, err := f.products.GetByID(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 1, f.quantity(t, "P1", "M", "Red"))
	assert.Equal(t, models.StockLowStock, p.Stock)

	_, err = f.service.PlaceOrder(ctx, orderInput(item("P1", "M", "Red", 2)))
	var stockErr *services.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.ErrorIs(t, err, services.ErrInsufficientStock)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, "Insufficient stock for Cotton Saree. Available: 1, Requested: 2", err.Error())
	assert.Equal(t, 1, f.quantity(t, "P1", "M", "Red"))

	expected := `
# HELP storefront_orders_placed_total Orders persisted, by payment method.
# TYPE storefront_orders_placed_total counter
storefront_orders_placed_total{payment_method="cod"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "storefront_orders_placed_total"))
}

func TestOrderService_PlaceOrder_AllOrNothing(t *testing.T) {
	f := newOrderFixture(t)
	f.addProduct(t, "P1", "Cotton Saree", map[string]map[string]int{"M": {"Red": 10}})
	f.addProduct(t, "P2", "Silk Kurta", map[string]map[string]int{"L": {"Blue": 1}})

	_, err := f.service.PlaceOrder(context.Background(), orderInput(
		item("P1", "M", "Red", 4),
		item("P2", "L", "Blue", 2),
	))
	require.ErrorIs(t, err, services.ErrInsufficientStock)

	assert.Equal(t, 10, f.quantity(t, "P1", "M", "Red"))
	assert.Equal(t, 1, f.quantity(t, "P2", "L", "Blue"))
	orders, err := f.orders.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderService_PlaceOrder_SumsDuplicateCells(t *testing.T) {
	f := newOrderFixture(t)
	f.addProduct(t, "P1", "Cotton Saree", map[string]map[string]int{"M": {"Red": 3}})

	_, err := f.service.PlaceOrder(context.Background(), orderInput(
		item("P1", "M", "Red", 2),
		item("P1", "M", "Red", 2),
	))
	var stockErr *services.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Available)
	assert.Equal(t, 4, stockErr.Requested)
	assert.Equal(t, 3, f.quantity(t, "P1", "M", "Red"))
}

func TestOrderService_PlaceOrder_Validation(t *testing.T) {
	f := newOrderFixture(t)
	f.addProduct(t, "P1", "Cotton Saree", map[string]map[string]int{"M": {"Red": 3}})
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*services.PlaceOrderInput)
		kind    error
		message string
	}{
		{"no items", func(in *services.PlaceOrderInput) { in.Items = nil }, services.ErrValidation, "Missing required fields"},
		{"no user", func(in *services.PlaceOrderInput) { in.UserID = "" }, services.ErrValidation, "Missing required fields"},
		{"zero total", func(in *services.PlaceOrderInput) { in.TotalAmount = 0 }, services.ErrValidation, "Missing required fields"},
		{"partial address", func(in *services.PlaceOrderInput) { in.ShippingAddress.Pincode = "" }, services.ErrValidation, "Incomplete shipping address"},
		{"bad payment method", func(in *services.PlaceOrderInput) { in.PaymentMethod = "barter" }, services.ErrValidation, "Invalid payment method"},
		{"unknown size", func(in *services.PlaceOrderInput) { in.Items[0].SelectedSize = "XXL" }, services.ErrInvalidSelection, "Size XXL not available for Cotton Saree"},
		{"unknown color", func(in *services.PlaceOrderInput) { in.Items[0].SelectedColor = "Green" }, services.ErrInvalidSelection, "Color Green not available for Cotton Saree"},
		{"unknown product", func(in *services.PlaceOrderInput) { in.Items[0].ProductID = "NOPE" }, services.ErrNotFound, "Product not found: Cotton Saree"},
		{"zero quantity", func(in *services.PlaceOrderInput) { in.Items[0].Quantity = 0 }, services.ErrValidation, "Invalid quantity for item: Cotton Saree"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := orderInput(item("P1", "M", "Red", 1))
			tt.mutate(&in)
			_, err := f.service.PlaceOrder(ctx, in)
			require.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.message, err.Error())
			assert.Equal(t, 3, f.quantity(t, "P1", "M", "Red"))
		})
	}
}

func TestOrderService_PlaceOrder_CompensatesFailedInsert(t *testing.T) {
	products := repositories.NewMockProductRepository()
	f := &orderFixture{products: products}
	f.addProduct(t, "P1", "Cotton Saree", map[string]map[string]int{"M": {"Red": 3}})

	svc := services.NewOrderService(
		failingOrderRepository{repositories.NewMockOrderRepository()},
		products, repositories.NewMockCartRepository(), zap.NewNop(), nil,
	)
	_, err := svc.PlaceOrder(context.Background(), orderInput(item("P1", "M", "Red", 2)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 3, f.quantity(t, "P1", "M", "Red"))
}

func TestOrderService_PlaceOrder_ClearsCartAndPublishes(t *testing.T) {
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e rabbitmq.OrderEvent) bool {
		return e.Type == rabbitmq.EventOrderPlaced && e.UserID == "user-1"
	})).Return(nil).Once()

	f := newOrderFixture(t, services.WithPublisher(publisher), services.WithOrderIDPrefix("TST"))
	f.addProduct(t, "P1", "Cotton Saree", map[string]map[string]int{"M": {"Red": 3}})
	ctx := context.Background()
	require.NoError(t, f.carts.Save(ctx, &models.Cart{
		UserID: "user-1",
		Items:  []models.CartItem{{ProductID: "P1", SelectedSize: "M", SelectedColor: "Red", Quantity: 1}},
	}))

	order, err := f.service.PlaceOrder(ctx, orderInput(item("P1", "M", "Red", 1)))
	require.NoError(t, err)
	assert.Regexp(t, `^TST_`, order.OrderID)

	cart, err := f.carts.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	publisher.AssertExpectations(t)
}

func TestOrderService_PlaceOrderWithPayment(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newOrderFixture(t, services.WithClock(func() time.Time { return now }))
	f.addProduct(t, "P1", "Cotton Saree", map[string]map[string]int{"M": {"Red": 3}})
	ctx := context.Background()

	in := orderInput(item("P1", "M", "Red", 1))
	in.PaymentMethod = "online"
	_, err := f.service.PlaceOrderWithPayment(ctx, in)
	require.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, "Payment details are required for online payment", err.Error())

	in.PaymentDetails = &models.PaymentDetails{RazorpayOrderID: "order_1", RazorpayPaymentID: "pay_1"}
	order, err := f.service.PlaceOrderWithPayment(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, order.PaymentDetails)
	assert.Equal(t, models.PaymentCompleted, order.PaymentDetails.PaymentStatus)
	assert.Equal(t, now, *order.PaymentDetails.PaidAt)
	assert.Equal(t, "Order placed with online payment (pay_1)", order.StatusHistory[0].Note)
	assert.Equal(t, 2, f.quantity(t, "P1", "M", "Red"))

	cod := orderInput(item("P1", "M", "Red", 1))
	order, err = f.service.PlaceOrderWithPayment(ctx, cod)
	require.NoError(t, err)
	assert.Nil(t, order.PaymentDetails)
}

func TestOrderService_CancelOrder_RestoresStockOnce(t *testing.T) {
	f := newOrderFixture(t)
	f.addProduct(t, "P1", "Cotton Saree", map[string]map[string]int{"M": {"Red": 3}})
	ctx := context.Background()

	order, err := f.service.PlaceOrder(ctx, orderInput(item("P1", "M", "Red", 2)))
	require.NoError(t, err)

	cancelled, err := f.service.CancelOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	require.Len(t, cancelled.StatusHistory, 2)
	assert.Equal(t, "Order cancelled by user", cancelled.StatusHistory[1].Note)
	assert.Equal(t, 3, f.quantity(t, "P1", "M", "Red"))

	_, err = f.service.CancelOrder(ctx, order.OrderID)
	require.ErrorIs(t, err, services.ErrAlreadyCancelled)
	assert.Equal(t, "Order already cancelled", err.Error())
	assert.Equal(t, 3, f.quantity(t, "P1", "M", "Red"))

	stored, err := f.service.GetOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Len(t, stored.StatusHistory, 2)
}

func TestOrderService_CancelOrder_RejectsShipped(t *testing.T) {
	f := newOrderFixture(t)
	f.addProduct(t, "P1", "Cotton Saree", map[string]map[string]int{"M": {"Red": 3}})
	ctx := context.Background()

	order, err := f.service.PlaceOrder(ctx, orderInput(item("P1", "M", "Red", 2)))
	require.NoError(t, err)
	_, err = f.service.UpdateOrderStatus(ctx, order.OrderID, "Shipped", "")
	require.NoError(t, err)

	_, err = f.service.CancelOrder(ctx, order.OrderID)
	require.ErrorIs(t, err, services.ErrNotCancellable)
	assert.Equal(t, 1, f.quantity(t, "P1", "M", "Red"))

	stored, err := f.service.GetOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, stored.Status)
	assert.Len(t, stored.StatusHistory, 2)
}

func TestOrderService_CancelOrder_SkipsDeletedProduct(t *testing.T) {
	f := newOrderFixture(t)
	f.addProduct(t, "P1", "Cotton Saree", map[string]map[string]int{"M": {"Red": 3}})
	ctx := context.Background()

	order, err := f.service.PlaceOrder(ctx, orderInput(item("P1", "M", "Red", 2)))
	require.NoError(t, err)
	require.NoError(t, f.products.Delete(ctx, "P1"))

	cancelled, err := f.service.CancelOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
}

func TestOrderService_CancelOrder_Concurrent(t *testing.T) {
	f := newOrderFixture(t)
	f.addProduct(t, "P1", "Cotton Saree", map[string]map[string]int{"M": {"Red": 3}})
	ctx := context.Background()

	order, err := f.service.PlaceOrder(ctx, orderInput(item("P1", "M", "Red", 2)))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.service.CancelOrder(ctx, order.OrderID); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 3, f.quantity(t, "P1", "M", "Red"))
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	f := newOrderFixture(t)
	f.addProduct(t, "P1", "Cotton Saree", map[string]map[string]int{"M": {"Red": 3}})
	ctx := context.Background()

	order, err := f.service.PlaceOrder(ctx, orderInput(item("P1", "M", "Red", 1)))
	require.NoError(t, err)

	_, err = f.service.UpdateOrderStatus(ctx, order.OrderID, "Banana", "")
	require.ErrorIs(t, err, services.ErrInvalidStatus)
	stored, err := f.service.GetOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOrderPlaced, stored.Status)
	assert.Len(t, stored.StatusHistory, 1)

	updated, err := f.service.UpdateOrderStatus(ctx, order.OrderID, "Processing", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, updated.Status)
	assert.Equal(t, "Order status updated to Processing", updated.StatusHistory[1].Note)

	updated, err = f.service.UpdateOrderStatus(ctx, order.OrderID, "Cancelled", "Cancelled by admin")
	require.NoError(t, err)
	assert.Equal(t, "Cancelled by admin", updated.StatusHistory[2].Note)
	assert.Equal(t, 2, f.quantity(t, "P1", "M", "Red"))

	_, err = f.service.UpdateOrderStatus(ctx, "missing", "Shipped", "")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestOrderService_ListUserOrders(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f := newOrderFixture(t, services.WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	f.addProduct(t, "P1", "Cotton Saree", map[string]map[string]int{"M": {"Red": 5}})
	ctx := context.Background()

	first, err := f.service.PlaceOrder(ctx, orderInput(item("P1", "M", "Red", 1)))
	require.NoError(t, err)
	second, err := f.service.PlaceOrder(ctx, orderInput(item("P1", "M", "Red", 1)))
	require.NoError(t, err)

	orders, err := f.service.ListUserOrders(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.OrderID, orders[0].OrderID)
	assert.Equal(t, first.OrderID, orders[1].OrderID)

	orders, err = f.service.ListUserOrders(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestGenerateOrderID(t *testing.T) {
	now := time.UnixMilli(1735712345678)
	id := services.GenerateOrderID("CKT", now)
	assert.Regexp(t, `^CKT_12345678_[1-9]\d{4}$`, id)
}
