package handlers

import (
	"fmt"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ContentHandler handles HTTP requests for homepage banners, quotes and the
// navigation bar.
type ContentHandler struct {
	service *services.ContentService
	errorWriter
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(service *services.ContentService, debug bool) *ContentHandler {
	return &ContentHandler{service: service, errorWriter: errorWriter{debug: debug}}
}

// RegisterRoutes registers the banner, quote and navbar routes with the Fiber app.
func (h *ContentHandler) RegisterRoutes(router fiber.Router) {
	bannerRoutes := router.Group("/banners")
	bannerRoutes.Get("/", h.HandleListBanners)
	bannerRoutes.Post("/createBanner", h.HandleCreateBanners)
	bannerRoutes.Put("/:id", h.HandleUpdateBanner)
	bannerRoutes.Delete("/:id", h.HandleDeleteBanner)

	quoteRoutes := router.Group("/quotes")
	quoteRoutes.Post("/", h.HandleCreateQuote)
	quoteRoutes.Get("/", h.HandleListQuotes)
	quoteRoutes.Put("/:id", h.HandleUpdateQuote)
	quoteRoutes.Delete("/:id", h.HandleDeleteQuote)
	quoteRoutes.Delete("/", h.HandleClearQuotes)

	navRoutes := router.Group("/navbar")
	navRoutes.Post("/", h.HandleCreateNavItem)
	navRoutes.Get("/", h.HandleListNavItems)
	navRoutes.Put("/:id", h.HandleUpdateNavItem)
	navRoutes.Delete("/:id", h.HandleDeleteNavItem)
	navRoutes.Delete("/", h.HandleClearNavItems)
}

func (h *ContentHandler) HandleListBanners(c *fiber.Ctx) error {
	banners, err := h.service.ListBanners(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Failed to fetch banners")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Banners fetched successfully",
		"data":    banners,
	})
}

func (h *ContentHandler) HandleCreateBanners(c *fiber.Ctx) error {
	var req struct {
		Banners []models.Banner `json:"banners"`
	}
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}
	created, err := h.service.CreateBanners(c.UserContext(), req.Banners)
	if err != nil {
		return h.fail(c, err, "Failed to upload banners")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    created,
	})
}

// HandleUpdateBanner changes only the link of a banner and returns the bare banner.
func (h *ContentHandler) HandleUpdateBanner(c *fiber.Ctx) error {
	var req struct {
		Link string `json:"link"`
	}
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}
	banner, err := h.service.UpdateBannerLink(c.UserContext(), c.Params("id"), req.Link)
	if err != nil {
		return h.fail(c, err, "Failed to update banner")
	}
	return c.JSON(banner)
}

func (h *ContentHandler) HandleDeleteBanner(c *fiber.Ctx) error {
	if err := h.service.DeleteBanner(c.UserContext(), c.Params("id")); err != nil {
		return h.fail(c, err, "Failed to delete banner")
	}
	return c.JSON(fiber.Map{"message": "Banner deleted"})
}

type quoteRequest struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

func (h *ContentHandler) HandleCreateQuote(c *fiber.Ctx) error {
	var req quoteRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}
	quote, err := h.service.CreateQuote(c.UserContext(), req.Text, req.Author)
	if err != nil {
		return h.fail(c, err, "Failed to create quote")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": quote})
}

func (h *ContentHandler) HandleListQuotes(c *fiber.Ctx) error {
	quotes, err := h.service.ListQuotes(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Failed to fetch quotes")
	}
	return c.JSON(fiber.Map{"success": true, "data": quotes})
}

func (h *ContentHandler) HandleUpdateQuote(c *fiber.Ctx) error {
	var req quoteRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}
	quote, err := h.service.UpdateQuote(c.UserContext(), c.Params("id"), req.Text, req.Author)
	if err != nil {
		return h.fail(c, err, "Failed to update quote")
	}
	return c.JSON(fiber.Map{"success": true, "data": quote})
}

func (h *ContentHandler) HandleDeleteQuote(c *fiber.Ctx) error {
	if err := h.service.DeleteQuote(c.UserContext(), c.Params("id")); err != nil {
		return h.fail(c, err, "Failed to delete quote")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Quote deleted"})
}

func (h *ContentHandler) HandleClearQuotes(c *fiber.Ctx) error {
	n, err := h.service.ClearQuotes(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Failed to clear quotes")
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"message":      fmt.Sprintf("Cleared %d quotes", n),
		"deletedCount": n,
	})
}

func (h *ContentHandler) HandleCreateNavItem(c *fiber.Ctx) error {
	var item models.NavItem
	if err := c.BodyParser(&item); err != nil {
		return h.badRequest(c, err)
	}
	created, err := h.service.CreateNavItem(c.UserContext(), item)
	if err != nil {
		return h.fail(c, err, "Failed to create nav item")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": created})
}

func (h *ContentHandler) HandleListNavItems(c *fiber.Ctx) error {
	items, err := h.service.ListNavItems(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Failed to fetch nav items")
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *ContentHandler) HandleUpdateNavItem(c *fiber.Ctx) error {
	var item models.NavItem
	if err := c.BodyParser(&item); err != nil {
		return h.badRequest(c, err)
	}
	updated, err := h.service.UpdateNavItem(c.UserContext(), c.Params("id"), item)
	if err != nil {
		return h.fail(c, err, "Failed to update nav item")
	}
	return c.JSON(fiber.Map{"success": true, "data": updated})
}

func (h *ContentHandler) HandleDeleteNavItem(c *fiber.Ctx) error {
	if err := h.service.DeleteNavItem(c.UserContext(), c.Params("id")); err != nil {
		return h.fail(c, err, "Failed to delete nav item")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Nav item deleted"})
}

func (h *ContentHandler) HandleClearNavItems(c *fiber.Ctx) error {
	n, err := h.service.ClearNavItems(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Failed to clear nav items")
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"message":      fmt.Sprintf("Cleared %d nav items", n),
		"deletedCount": n,
	})
}

// BestSellingHandler handles HTTP requests for the best-selling strip.
type BestSellingHandler struct {
	service *services.BestSellingService
	errorWriter
}

// NewBestSellingHandler creates a new BestSellingHandler.
func NewBestSellingHandler(service *services.BestSellingService, debug bool) *BestSellingHandler {
	return &BestSellingHandler{service: service, errorWriter: errorWriter{debug: debug}}
}

// RegisterRoutes registers the best-selling routes with the Fiber app.
func (h *BestSellingHandler) RegisterRoutes(router fiber.Router) {
	routes := router.Group("/bestselling")
	routes.Get("/", h.HandleList)
	routes.Post("/", h.HandleAdd)
	routes.Put("/reorder", h.HandleReorder)
	routes.Delete("/clear/all", h.HandleClear)
	routes.Post("/sync", h.HandleSync)
	routes.Delete("/:productId", h.HandleRemove)
	routes.Patch("/:productId/toggle", h.HandleToggle)
}

func (h *BestSellingHandler) HandleList(c *fiber.Ctx) error {
	products, err := h.service.List(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Failed to fetch best selling products")
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"products": products,
		"count":    len(products),
	})
}

func (h *BestSellingHandler) HandleAdd(c *fiber.Ctx) error {
	var req struct {
		ProductID string `json:"productId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}
	product, err := h.service.Add(c.UserContext(), req.ProductID)
	if err != nil {
		return h.fail(c, err, "Failed to add product to best selling")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Product added to best selling",
		"product": product,
	})
}

func (h *BestSellingHandler) HandleRemove(c *fiber.Ctx) error {
	if err := h.service.Remove(c.UserContext(), c.Params("productId")); err != nil {
		return h.fail(c, err, "Failed to remove product from best selling")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product removed from best selling",
	})
}

func (h *BestSellingHandler) HandleToggle(c *fiber.Ctx) error {
	entry, err := h.service.Toggle(c.UserContext(), c.Params("productId"))
	if err != nil {
		return h.fail(c, err, "Failed to toggle best selling status")
	}
	state := "deactivated"
	if entry.IsActive {
		state = "activated"
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Best selling " + state,
		"isActive": entry.IsActive,
	})
}

func (h *BestSellingHandler) HandleReorder(c *fiber.Ctx) error {
	var req struct {
		Items []struct {
			ProductID string `json:"productId"`
			Order     int    `json:"order"`
		} `json:"items"`
	}
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}
	var positions []services.BestSellingPosition
	if req.Items != nil {
		positions = make([]services.BestSellingPosition, len(req.Items))
		for i, item := range req.Items {
			positions[i] = services.BestSellingPosition{ProductID: item.ProductID, Position: item.Order}
		}
	}
	if err := h.service.Reorder(c.UserContext(), positions); err != nil {
		return h.fail(c, err, "Failed to update best selling order")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Best selling order updated successfully",
	})
}

func (h *BestSellingHandler) HandleClear(c *fiber.Ctx) error {
	n, err := h.service.Clear(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Failed to clear best selling")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Cleared %d best selling items", n),
	})
}

func (h *BestSellingHandler) HandleSync(c *fiber.Ctx) error {
	removed, err := h.service.Sync(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Failed to sync best selling")
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "Best selling synced successfully",
		"removedCount": removed,
	})
}
