package handlers

import (
	"fmt"

	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CollectionHandler handles HTTP requests for storefront collections.
type CollectionHandler struct {
	service *services.CollectionService
	errorWriter
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(service *services.CollectionService, debug bool) *CollectionHandler {
	return &CollectionHandler{service: service, errorWriter: errorWriter{debug: debug}}
}

// RegisterRoutes registers the collection routes with the Fiber app.
func (h *CollectionHandler) RegisterRoutes(router fiber.Router) {
	collectionRoutes := router.Group("/collections")
	collectionRoutes.Get("/", h.list(repositories.CollectionFilter{}, "Failed to fetch collections"))
	collectionRoutes.Get("/enabled", h.list(repositories.CollectionFilter{EnabledOnly: true}, "Failed to fetch enabled collections"))
	collectionRoutes.Get("/offers", h.list(repositories.CollectionFilter{OffersOnly: true}, "Failed to fetch offer collections"))
	collectionRoutes.Get("/:name", h.HandleGetByName)
	collectionRoutes.Post("/", h.HandleCreate)
	collectionRoutes.Post("/bulk-update", h.HandleBulkUpdate)
	collectionRoutes.Post("/seed", h.HandleSeed)
	collectionRoutes.Put("/:id", h.HandleUpdate)
	collectionRoutes.Delete("/:id", h.HandleDelete)
	collectionRoutes.Patch("/:id/toggle-enabled", h.HandleToggleEnabled)
	collectionRoutes.Patch("/:id/toggle-offer", h.HandleToggleOffer)
}

// collectionRequest is the body of create, update and bulk-update entries.
type collectionRequest struct {
	ID           string  `json:"id"`
	Name         *string `json:"name"`
	Enabled      *bool   `json:"enabled"`
	Image        *string `json:"image"`
	OfferEnabled *bool   `json:"offerEnabled"`
	Order        *int    `json:"order"`
}

func (r collectionRequest) patch(id string) services.CollectionPatch {
	return services.CollectionPatch{
		ID:           id,
		Name:         r.Name,
		Enabled:      r.Enabled,
		Image:        r.Image,
		OfferEnabled: r.OfferEnabled,
		Position:     r.Order,
	}
}

func (h *CollectionHandler) list(filter repositories.CollectionFilter, failure string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		collections, err := h.service.ListCollections(c.UserContext(), filter)
		if err != nil {
			return h.fail(c, err, failure)
		}
		return c.JSON(fiber.Map{"success": true, "data": collections})
	}
}

func (h *CollectionHandler) HandleGetByName(c *fiber.Ctx) error {
	collection, err := h.service.GetCollectionByName(c.UserContext(), c.Params("name"))
	if err != nil {
		return h.fail(c, err, "Failed to fetch collection")
	}
	return c.JSON(fiber.Map{"success": true, "data": collection})
}

func (h *CollectionHandler) HandleCreate(c *fiber.Ctx) error {
	var req collectionRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}
	in := services.CollectionInput{Enabled: req.Enabled}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Image != nil {
		in.Image = *req.Image
	}
	if req.OfferEnabled != nil {
		in.OfferEnabled = *req.OfferEnabled
	}

	collection, err := h.service.CreateCollection(c.UserContext(), in)
	if err != nil {
		return h.fail(c, err, "Failed to create collection")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Collection created successfully",
		"data":    collection,
	})
}

func (h *CollectionHandler) HandleUpdate(c *fiber.Ctx) error {
	var req collectionRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}
	collection, err := h.service.UpdateCollection(c.UserContext(), req.patch(c.Params("id")))
	if err != nil {
		return h.fail(c, err, "Failed to update collection")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Collection updated successfully",
		"data":    collection,
	})
}

// HandleBulkUpdate applies enabled, image, offerEnabled and order to many
// collections at once. Names are not changed here.
func (h *CollectionHandler) HandleBulkUpdate(c *fiber.Ctx) error {
	var req struct {
		Collections []collectionRequest `json:"collections"`
	}
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}
	var patches []services.CollectionPatch
	if req.Collections != nil {
		patches = make([]services.CollectionPatch, 0, len(req.Collections))
		for _, col := range req.Collections {
			p := col.patch(col.ID)
			p.Name = nil
			patches = append(patches, p)
		}
	}

	updated, err := h.service.BulkUpdateCollections(c.UserContext(), patches)
	if err != nil {
		return h.fail(c, err, "Failed to update collections")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Collections updated successfully",
		"data":    updated,
	})
}

func (h *CollectionHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.DeleteCollection(c.UserContext(), c.Params("id")); err != nil {
		return h.fail(c, err, "Failed to delete collection")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Collection deleted successfully",
	})
}

func (h *CollectionHandler) HandleToggleEnabled(c *fiber.Ctx) error {
	collection, err := h.service.ToggleCollection(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Failed to toggle collection")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Collection %s successfully", enabledWord(collection.Enabled)),
		"data":    collection,
	})
}

func (h *CollectionHandler) HandleToggleOffer(c *fiber.Ctx) error {
	collection, err := h.service.ToggleOffer(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Failed to toggle offer")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Offer %s successfully", enabledWord(collection.OfferEnabled)),
		"data":    collection,
	})
}

func (h *CollectionHandler) HandleSeed(c *fiber.Ctx) error {
	created, err := h.service.SeedDefaultCollections(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Failed to seed collections")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Default collections seeded successfully",
		"data":    created,
	})
}

func enabledWord(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
