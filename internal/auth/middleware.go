package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sip-gateway/internal/domain"
	apperrors "github.com/spec-kit/sip-gateway/pkg/util"
)

const identityKey = "auth_identity"

// Middleware validates bearer tokens and stores the caller identity on the
// request context. Validation is stateless: the capability set travels in
// the token, so no account lookup happens per request.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	tokenStr, err := BearerToken(c)
	if err != nil {
		return err
	}

	identity, err := m.tokens.Validate(c.UserContext(), tokenStr)
	if err != nil {
		return mapTokenError(err)
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return parts[1], nil
}

// RequireCapability gates a route on the caller holding the capability.
func RequireCapability(required domain.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !identity.HasCapability(required) {
			held := make([]string, len(identity.Capabilities))
			for i, cap := range identity.Capabilities {
				held[i] = string(cap)
			}
			return apperrors.NewPermissionDenied(string(required), held)
		}
		return c.Next()
	}
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, ErrExpiredToken):
		return apperrors.NewAuthExpired("token expired")
	case errors.Is(err, ErrRevokedToken):
		return apperrors.NewUnauthorized("token revoked")
	case errors.Is(err, ErrInvalidSignature), errors.Is(err, ErrMalformedToken):
		return apperrors.NewUnauthorized("invalid token")
	default:
		return apperrors.MapError(err)
	}
}
