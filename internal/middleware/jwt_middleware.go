package middleware

import (
	"errors"
	"strings"

	"storefront/internal/services"
	"storefront/pkg/logging"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserIDKey is the fiber locals key holding the authenticated user's id.
const UserIDKey = "user_id"

// AuthRequired is a Fiber middleware to check for a valid JWT token and an existing user.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Expected format: "Bearer <token>"
		authHeader := c.Get(fiber.HeaderAuthorization)
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			return unauthorized(c, "Not authorized, no token provided")
		}

		user, err := authService.AuthenticateToken(c.UserContext(), strings.TrimSpace(tokenString))
		if err != nil {
			logging.FromContextOr(c.UserContext(), nil).Debug("jwt validation failed", zap.Error(err))
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				return unauthorized(c, "Token expired, please login again")
			case errors.Is(err, services.ErrTokenInvalid):
				return unauthorized(c, "Invalid token")
			default:
				return unauthorized(c, "User not found or token invalid")
			}
		}

		c.Locals(UserIDKey, user.ID)
		return c.Next()
	}
}

// UserID returns the id stored by AuthRequired, or "" on unprotected routes.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
