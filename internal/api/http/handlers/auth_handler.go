package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sip-gateway/internal/api/dto"
	"github.com/spec-kit/sip-gateway/internal/auth"
	"github.com/spec-kit/sip-gateway/internal/service"
)

// AuthHandler exposes login and token lifecycle endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	op, token, exp, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": fiber.Map{
				"id":    op.ID,
				"email": op.Email,
				"role":  op.Role,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// SSOLogin handles POST /api/auth/sso-login.
func (h *AuthHandler) SSOLogin(c *fiber.Ctx) error {
	var req dto.SSOLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Token == "" {
		return fiber.NewError(http.StatusBadRequest, "sso token required")
	}

	user, token, exp, err := h.auth.SSOLogin(c.UserContext(), req.Token)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": fiber.Map{
				"id":    user.ID,
				"email": user.Email,
				"role":  user.Role,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	tokenStr, err := auth.BearerToken(c)
	if err != nil {
		return err
	}

	token, exp, err := h.auth.Refresh(c.UserContext(), tokenStr)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{Token: token, ExpiresAt: exp},
	})
}

// Verify handles GET /api/auth/verify.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}

	return c.JSON(fiber.Map{
		"valid": true,
		"user": fiber.Map{
			"userId":      identity.SubjectID,
			"email":       identity.Email,
			"role":        identity.Role,
			"permissions": identity.Capabilities,
		},
	})
}

// Logout handles POST /api/auth/logout. The token is revoked until its
// natural expiry.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	tokenStr, err := auth.BearerToken(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), tokenStr); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
