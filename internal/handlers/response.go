package handlers

import (
	"errors"

	"storefront/internal/services"
	"storefront/pkg/logging"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// errorWriter renders failures as the common JSON envelope. Raw error details are
// only included when debug is set.
type errorWriter struct {
	debug bool
}

// statusFor maps a service error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrInvalidSelection),
		errors.Is(err, services.ErrAlreadyCancelled),
		errors.Is(err, services.ErrNotCancellable),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrPaymentVerificationFailed):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes err. Client-facing errors carry their own message; anything else is
// logged and reported with fallback.
func (w errorWriter) fail(c *fiber.Ctx, err error, fallback string) error {
	status := statusFor(err)
	body := fiber.Map{"success": false}

	var stockErr *services.StockError
	var svcErr *services.Error
	switch {
	case errors.As(err, &stockErr):
		body["message"] = stockErr.Error()
		// Order routes read "available", cart clients read "availableStock".
		body["available"] = stockErr.Available
		body["availableStock"] = stockErr.Available
		body["requested"] = stockErr.Requested
		if stockErr.InCart > 0 {
			body["currentCartQuantity"] = stockErr.InCart
		}
	case errors.As(err, &svcErr):
		body["message"] = svcErr.Message
	default:
		logging.FromContextOr(c.UserContext(), nil).Error(fallback, zap.Error(err))
		body["message"] = fallback
		if w.debug {
			body["error"] = err.Error()
		}
	}
	return c.Status(status).JSON(body)
}

// badRequest reports a malformed body.
func (w errorWriter) badRequest(c *fiber.Ctx, err error) error {
	body := fiber.Map{"success": false, "message": "Invalid request body"}
	if w.debug && err != nil {
		body["error"] = err.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}
