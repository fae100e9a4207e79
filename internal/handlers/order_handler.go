package handlers

import (
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders and checkout payments.
type OrderHandler struct {
	service  *services.OrderService
	payments *services.PaymentService
	errorWriter
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, payments *services.PaymentService, debug bool) *OrderHandler {
	return &OrderHandler{
		service:     service,
		payments:    payments,
		errorWriter: errorWriter{debug: debug},
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/place", h.HandlePlaceOrder)
	orderRoutes.Post("/create-razorpay-order", h.HandleCreateRazorpayOrder)
	orderRoutes.Post("/verify-payment", h.HandleVerifyPayment)
	orderRoutes.Post("/place-with-payment", h.HandlePlaceOrderWithPayment)
	orderRoutes.Get("/user/:userId", h.HandleGetUserOrders)
	orderRoutes.Get("/:orderId", h.HandleGetOrder)
	orderRoutes.Patch("/:orderId/cancel", h.HandleCancelOrder)
	orderRoutes.Patch("/:orderId/status", h.HandleUpdateOrderStatus)
}

// orderItemRequest accepts the product id as either "id" or "productId".
type orderItemRequest struct {
	ID            string  `json:"id"`
	ProductID     string  `json:"productId"`
	Title         string  `json:"title"`
	Price         float64 `json:"price"`
	Quantity      int     `json:"quantity"`
	SelectedSize  string  `json:"selectedSize"`
	SelectedColor string  `json:"selectedColor"`
	Image         string  `json:"image"`
	Collection    string  `json:"collection"`
	OriginalPrice float64 `json:"originalPrice"`
	Discount      float64 `json:"discount"`
}

// PlaceOrderRequest represents the request body for placing an order.
type PlaceOrderRequest struct {
	UserID          string                  `json:"userId"`
	UserEmail       string                  `json:"userEmail"`
	UserName        string                  `json:"userName"`
	Items           []orderItemRequest      `json:"items"`
	TotalAmount     float64                 `json:"totalAmount"`
	PaymentMethod   string                  `json:"paymentMethod"`
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
	PaymentDetails  *models.PaymentDetails  `json:"paymentDetails"`
}

func (r PlaceOrderRequest) input() services.PlaceOrderInput {
	items := make([]models.OrderItem, len(r.Items))
	for i, it := range r.Items {
		id := it.ID
		if id == "" {
			id = it.ProductID
		}
		items[i] = models.OrderItem{
			ProductID:     id,
			Title:         it.Title,
			Price:         it.Price,
			Quantity:      it.Quantity,
			SelectedSize:  it.SelectedSize,
			SelectedColor: it.SelectedColor,
			Image:         it.Image,
			Collection:    it.Collection,
			OriginalPrice: it.OriginalPrice,
			Discount:      it.Discount,
		}
	}
	return services.PlaceOrderInput{
		UserID:          r.UserID,
		UserEmail:       r.UserEmail,
		UserName:        r.UserName,
		Items:           items,
		TotalAmount:     r.TotalAmount,
		PaymentMethod:   r.PaymentMethod,
		ShippingAddress: r.ShippingAddress,
		PaymentDetails:  r.PaymentDetails,
	}
}

// HandlePlaceOrder places a cash-on-delivery or unpaid order.
func (h *OrderHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	return h.place(c, false)
}

// HandlePlaceOrderWithPayment places an order after the checkout widget succeeded.
func (h *OrderHandler) HandlePlaceOrderWithPayment(c *fiber.Ctx) error {
	return h.place(c, true)
}

func (h *OrderHandler) place(c *fiber.Ctx, withPayment bool) error {
	var req PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}

	var (
		order *models.Order
		err   error
	)
	if withPayment {
		order, err = h.service.PlaceOrderWithPayment(c.UserContext(), req.input())
	} else {
		order, err = h.service.PlaceOrder(c.UserContext(), req.input())
	}
	if err != nil {
		return h.fail(c, err, "Failed to place order")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Order placed successfully",
		"orderId": order.OrderID,
		"order":   order,
	})
}

// HandleGetUserOrders lists a user's orders, newest first.
func (h *OrderHandler) HandleGetUserOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListUserOrders(c.UserContext(), c.Params("userId"))
	if err != nil {
		return h.fail(c, err, "Failed to fetch orders")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(orders),
		"orders":  orders,
	})
}

// HandleGetOrder retrieves a single order by its public id.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.UserContext(), c.Params("orderId"))
	if err != nil {
		return h.fail(c, err, "Failed to fetch order")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"order":   order,
	})
}

// HandleCancelOrder cancels an order that has not shipped and restores its stock.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	order, err := h.service.CancelOrder(c.UserContext(), c.Params("orderId"))
	if err != nil {
		return h.fail(c, err, "Failed to cancel order")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Order cancelled successfully",
		"order":   order,
	})
}

// HandleUpdateOrderStatus sets an order's status. Stock is not touched.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var updateData struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		return h.badRequest(c, err)
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), c.Params("orderId"), updateData.Status, updateData.Note)
	if err != nil {
		return h.fail(c, err, "Failed to update order status")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Order status updated successfully",
		"order":   order,
	})
}

// HandleCreateRazorpayOrder registers the checkout amount with the payment gateway.
func (h *OrderHandler) HandleCreateRazorpayOrder(c *fiber.Ctx) error {
	var req struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
		Receipt  string  `json:"receipt"`
	}
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}

	order, keyID, err := h.payments.CreateGatewayOrder(c.UserContext(), req.Amount, req.Currency, req.Receipt)
	if err != nil {
		return h.fail(c, err, "Failed to create Razorpay order")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"order":   order,
		"key_id":  keyID,
	})
}

// HandleVerifyPayment checks the checkout callback signature.
func (h *OrderHandler) HandleVerifyPayment(c *fiber.Ctx) error {
	var req struct {
		OrderID   string `json:"razorpay_order_id"`
		PaymentID string `json:"razorpay_payment_id"`
		Signature string `json:"razorpay_signature"`
	}
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}

	if err := h.payments.VerifyPayment(c.UserContext(), req.OrderID, req.PaymentID, req.Signature); err != nil {
		return h.fail(c, err, "Payment verification failed")
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Payment verified successfully",
		"paymentId": req.PaymentID,
		"orderId":   req.OrderID,
	})
}
