package handlers

import (
	"strconv"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for carts. Carts are addressed by the :userId
// path segment; "guest" and empty-like values share one guest cart.
type CartHandler struct {
	service *services.CartService
	errorWriter
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService, debug bool) *CartHandler {
	return &CartHandler{service: service, errorWriter: errorWriter{debug: debug}}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/:userId", h.HandleGetCart)
	cartRoutes.Get("/:userId/count", h.HandleGetCount)
	cartRoutes.Post("/:userId/add", h.HandleAddItem)
	cartRoutes.Put("/:userId/update/:itemIndex", h.HandleUpdateItem)
	cartRoutes.Delete("/:userId/remove/:itemIndex", h.HandleRemoveItem)
	cartRoutes.Delete("/:userId/clear", h.HandleClearCart)
}

func owner(c *fiber.Ctx) models.CartOwner {
	return models.ParseCartOwner(c.Params("userId"))
}

// itemIndex parses the :itemIndex segment. Non-numeric values become -1, which the
// service rejects as out of range.
func itemIndex(c *fiber.Ctx) int {
	i, err := strconv.Atoi(c.Params("itemIndex"))
	if err != nil {
		return -1
	}
	return i
}

func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.service.GetCart(c.UserContext(), owner(c))
	if err != nil {
		return h.fail(c, err, "Failed to fetch cart")
	}
	return c.JSON(fiber.Map{"cart": cart})
}

func (h *CartHandler) HandleGetCount(c *fiber.Ctx) error {
	count, err := h.service.Count(c.UserContext(), owner(c))
	if err != nil {
		return h.fail(c, err, "Failed to get cart count")
	}
	return c.JSON(fiber.Map{"count": count})
}

// AddToCartRequest represents the request body for adding a cart line.
type AddToCartRequest struct {
	ProductID     string `json:"productId"`
	SelectedSize  string `json:"selectedSize"`
	SelectedColor string `json:"selectedColor"`
	Quantity      int    `json:"quantity"`
}

func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}

	cart, err := h.service.AddItem(c.UserContext(), owner(c), services.AddCartItemInput{
		ProductID:     req.ProductID,
		SelectedSize:  req.SelectedSize,
		SelectedColor: req.SelectedColor,
		Quantity:      req.Quantity,
	})
	if err != nil {
		return h.fail(c, err, "Failed to add item to cart")
	}
	return c.JSON(fiber.Map{
		"message": "Item added to cart successfully",
		"cart":    cart,
	})
}

func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}

	cart, err := h.service.UpdateItem(c.UserContext(), owner(c), itemIndex(c), req.Quantity)
	if err != nil {
		return h.fail(c, err, "Failed to update cart item")
	}
	return c.JSON(fiber.Map{
		"message": "Cart item updated successfully",
		"cart":    cart,
	})
}

func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	cart, err := h.service.RemoveItem(c.UserContext(), owner(c), itemIndex(c))
	if err != nil {
		return h.fail(c, err, "Failed to remove item from cart")
	}
	return c.JSON(fiber.Map{
		"message": "Item removed from cart successfully",
		"cart":    cart,
	})
}

func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	cart, err := h.service.Clear(c.UserContext(), owner(c))
	if err != nil {
		return h.fail(c, err, "Failed to clear cart")
	}
	return c.JSON(fiber.Map{
		"message": "Cart cleared successfully",
		"cart":    cart,
	})
}
