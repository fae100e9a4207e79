package handlers

import (
	"fmt"

	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	errorWriter
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, debug bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		errorWriter: errorWriter{debug: debug},
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app. Profile
// routes sit behind AuthRequired.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/send-signup-otp", h.HandleSendSignupOTP)
	authRoutes.Post("/verify-signup-otp", h.HandleVerifySignupOTP)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/forgot-password", h.HandleForgotPassword)
	authRoutes.Post("/verify-reset-otp", h.HandleVerifyResetOTP)
	authRoutes.Post("/reset-password", h.HandleResetPassword)
	authRoutes.Post("/check-phone", h.HandleCheckPhone)

	authRequired := middleware.AuthRequired(h.authService)
	authRoutes.Get("/profile", authRequired, h.HandleGetProfile)
	authRoutes.Put("/profile", authRequired, h.HandleUpdateProfile)
	authRoutes.Put("/change-password", authRequired, h.HandleChangePassword)
}

// AuthRequest carries every field the public auth endpoints accept.
type AuthRequest struct {
	Phone       string `json:"phone"`
	Name        string `json:"name"`
	Password    string `json:"password"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

func (h *AuthHandler) parse(c *fiber.Ctx) (*AuthRequest, error) {
	var req AuthRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// otpSent renders the outcome of an OTP dispatch.
func otpSent(c *fiber.Ctx, dispatch *services.OTPDispatch) error {
	if dispatch.OTP != "" {
		return c.JSON(fiber.Map{
			"success": true,
			"message": fmt.Sprintf("OTP generated: %s (SMS failed - %s)", dispatch.OTP, dispatch.Reason),
			"otp":     dispatch.OTP,
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP sent successfully to your phone",
	})
}

func sessionData(result *services.AuthResult) fiber.Map {
	return fiber.Map{
		"id":              result.User.ID,
		"name":            result.User.Name,
		"phone":           result.User.Phone,
		"isPhoneVerified": result.User.IsPhoneVerified,
		"token":           result.Token,
	}
}

// HandleSendSignupOTP stores a pending signup and texts its OTP.
func (h *AuthHandler) HandleSendSignupOTP(c *fiber.Ctx) error {
	req, err := h.parse(c)
	if err != nil {
		return h.badRequest(c, err)
	}
	dispatch, err := h.authService.SendSignupOTP(c.UserContext(), req.Phone, req.Name, req.Password)
	if err != nil {
		return h.fail(c, err, "Failed to send OTP. Please try again.")
	}
	return otpSent(c, dispatch)
}

// HandleVerifySignupOTP completes a signup and issues a session token.
func (h *AuthHandler) HandleVerifySignupOTP(c *fiber.Ctx) error {
	req, err := h.parse(c)
	if err != nil {
		return h.badRequest(c, err)
	}
	result, err := h.authService.VerifySignupOTP(c.UserContext(), req.Phone, req.OTP)
	if err != nil {
		return h.fail(c, err, "Failed to verify OTP. Please try again.")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Signup successful",
		"data":    sessionData(result),
	})
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	req, err := h.parse(c)
	if err != nil {
		return h.badRequest(c, err)
	}
	result, err := h.authService.Login(c.UserContext(), req.Phone, req.Password)
	if err != nil {
		return h.fail(c, err, "Failed to login. Please try again.")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"data":    sessionData(result),
	})
}

// HandleForgotPassword answers the same way whether or not the phone is registered.
func (h *AuthHandler) HandleForgotPassword(c *fiber.Ctx) error {
	req, err := h.parse(c)
	if err != nil {
		return h.badRequest(c, err)
	}
	dispatch, err := h.authService.ForgotPassword(c.UserContext(), req.Phone)
	if err != nil {
		return h.fail(c, err, "Failed to send OTP. Please try again.")
	}
	if dispatch.OTP != "" {
		return otpSent(c, dispatch)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "If the phone number is registered, OTP will be sent",
	})
}

func (h *AuthHandler) HandleVerifyResetOTP(c *fiber.Ctx) error {
	req, err := h.parse(c)
	if err != nil {
		return h.badRequest(c, err)
	}
	if err := h.authService.VerifyResetOTP(c.UserContext(), req.Phone, req.OTP); err != nil {
		return h.fail(c, err, "Failed to verify OTP. Please try again.")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP verified successfully. You can now reset your password.",
	})
}

func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	req, err := h.parse(c)
	if err != nil {
		return h.badRequest(c, err)
	}
	if err := h.authService.ResetPassword(c.UserContext(), req.Phone, req.OTP, req.NewPassword); err != nil {
		return h.fail(c, err, "Failed to reset password. Please try again.")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password reset successful. You can now login with new password.",
	})
}

func (h *AuthHandler) HandleCheckPhone(c *fiber.Ctx) error {
	req, err := h.parse(c)
	if err != nil {
		return h.badRequest(c, err)
	}
	available, err := h.authService.CheckPhone(c.UserContext(), req.Phone)
	if err != nil {
		return h.fail(c, err, "Failed to check phone availability")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"available": available},
	})
}

func (h *AuthHandler) HandleGetProfile(c *fiber.Ctx) error {
	user, err := h.authService.GetProfile(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return h.fail(c, err, "Failed to get profile")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    user,
	})
}

func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}
	user, err := h.authService.UpdateProfile(c.UserContext(), middleware.UserID(c), req.Name, req.Phone)
	if err != nil {
		return h.fail(c, err, "Failed to update profile")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated successfully",
		"data":    user,
	})
}

func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, err)
	}
	if err := h.authService.ChangePassword(c.UserContext(), middleware.UserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return h.fail(c, err, "Failed to change password")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password changed successfully",
	})
}
