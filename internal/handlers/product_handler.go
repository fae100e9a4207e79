package handlers

import (
	"encoding/json"
	"strconv"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service *services.ProductService
	errorWriter
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, debug bool) *ProductHandler {
	return &ProductHandler{service: service, errorWriter: errorWriter{debug: debug}}
}

// RegisterRoutes registers the product routes. Fixed paths are registered before
// "/:id" so they are not captured by it.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/search/query", h.HandleSearch)
	productRoutes.Get("/newarrivals/all", h.HandleNewArrivals)
	productRoutes.Get("/price/range", h.HandlePriceRange)
	productRoutes.Get("/below499", h.HandleBelow499)
	productRoutes.Get("/collection/:collection", h.HandleByCollection)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Post("/batch", h.HandleBatch)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
	productRoutes.Delete("/:id/permanent", h.HandleDeletePermanently)
	productRoutes.Patch("/:id/stock", h.HandleUpdateStock)
}

func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	product := models.Product{IsActive: true}
	if err := c.BodyParser(&product); err != nil {
		return h.badRequest(c, err)
	}
	if err := h.service.CreateProduct(c.UserContext(), &product); err != nil {
		return h.fail(c, err, "Failed to create product")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"product": product,
	})
}

// HandleGetProducts lists products. Query: collection, stock, isActive, limit, skip,
// sortBy (default createdAt) and sortOrder (asc|desc, default desc).
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	filter := models.ProductFilter{
		Collection: c.Query("collection"),
		Stock:      models.StockStatus(c.Query("stock")),
		SortBy:     c.Query("sortBy", "createdAt"),
		SortAsc:    c.Query("sortOrder") == "asc",
		Limit:      c.QueryInt("limit", 0),
		Skip:       c.QueryInt("skip", 0),
	}
	if raw := c.Query("isActive"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}

	products, total, err := h.service.ListProducts(c.UserContext(), filter)
	if err != nil {
		return h.fail(c, err, "Failed to fetch products")
	}

	pageSize := filter.Limit
	if pageSize <= 0 {
		pageSize = 10
	}
	return c.JSON(fiber.Map{
		"products":    products,
		"totalCount":  total,
		"currentPage": filter.Skip/pageSize + 1,
	})
}

func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Failed to fetch product")
	}
	return c.JSON(fiber.Map{"product": product})
}

// HandleUpdateProduct applies the fields present in the body onto the stored product.
// Map fields that are present replace the stored map instead of merging into it.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	body := c.Body()
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return h.badRequest(c, err)
	}

	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), func(p *models.Product) error {
		if _, ok := fields["stockDetails"]; ok {
			p.StockDetails = nil
		}
		if _, ok := fields["colorImages"]; ok {
			p.ColorImages = nil
		}
		return json.Unmarshal(body, p)
	})
	if err != nil {
		return h.fail(c, err, "Failed to update product")
	}
	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"product": product,
	})
}

// HandleDeleteProduct is a soft delete: the product is deactivated.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	product, err := h.service.DeactivateProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Failed to delete product")
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
		"product": product,
	})
}

func (h *ProductHandler) HandleDeletePermanently(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteProductPermanently(c.UserContext(), id); err != nil {
		return h.fail(c, err, "Failed to permanently delete product")
	}
	return c.JSON(fiber.Map{
		"message": "Product permanently deleted",
		"id":      id,
	})
}

func (h *ProductHandler) HandleByCollection(c *fiber.Ctx) error {
	products, name, err := h.service.ProductsByCollection(c.UserContext(), c.Params("collection"))
	if err != nil {
		return h.fail(c, err, "Failed to fetch products")
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"products":   products,
		"count":      len(products),
		"collection": name,
	})
}

func (h *ProductHandler) HandleSearch(c *fiber.Ctx) error {
	products, err := h.service.SearchProducts(c.UserContext(), c.Query("query"))
	if err != nil {
		return h.fail(c, err, "Failed to search products")
	}
	return c.JSON(fiber.Map{"products": products, "count": len(products)})
}

func (h *ProductHandler) HandleNewArrivals(c *fiber.Ctx) error {
	products, err := h.service.NewArrivals(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return h.fail(c, err, "Failed to fetch new arrivals")
	}
	return c.JSON(fiber.Map{"products": products, "count": len(products)})
}

func (h *ProductHandler) HandlePriceRange(c *fiber.Ctx) error {
	minPrice, err := queryFloat(c, "min")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid min price"})
	}
	maxPrice, err := queryFloat(c, "max")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid max price"})
	}

	products, err := h.service.ProductsByPriceRange(c.UserContext(), minPrice, maxPrice)
	if err != nil {
		return h.fail(c, err, "Failed to fetch products")
	}
	return c.JSON(fiber.Map{"products": products, "count": len(products)})
}

func (h *ProductHandler) HandleBelow499(c *fiber.Ctx) error {
	products, total, err := h.service.BudgetProducts(c.UserContext(), c.QueryInt("limit", 0), c.QueryInt("skip", 0))
	if err != nil {
		return h.fail(c, err, "Failed to fetch products below ₹499")
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"products":   products,
		"count":      len(products),
		"totalCount": total,
	})
}

// HandleBatch returns the bare product array for the given ids.
func (h *ProductHandler) HandleBatch(c *fiber.Ctx) error {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}
	products, err := h.service.ProductsByIDs(c.UserContext(), req.IDs)
	if err != nil {
		return h.fail(c, err, "Failed to fetch products")
	}
	return c.JSON(products)
}

func (h *ProductHandler) HandleUpdateStock(c *fiber.Ctx) error {
	var req struct {
		Size     string `json:"size"`
		Color    string `json:"color"`
		Quantity int    `json:"quantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}
	product, err := h.service.UpdateStockQuantity(c.UserContext(), c.Params("id"), req.Size, req.Color, req.Quantity)
	if err != nil {
		return h.fail(c, err, "Failed to update stock")
	}
	return c.JSON(fiber.Map{
		"message": "Stock updated successfully",
		"product": product,
	})
}

func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
