package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type contextKey string

const (
	// SessionContextKey is the fiber Locals key holding the verified *Claims.
	SessionContextKey contextKey = "session"

	bearerPrefix = "Bearer "
)

type AuthMiddleware struct {
	service *Service
	handler *Handler
}

func NewAuthMiddleware(service *Service, handler *Handler) *AuthMiddleware {
	return &AuthMiddleware{
		service: service,
		handler: handler,
	}
}

// Handle requires a valid "Authorization: Bearer <token>" header and stores
// the verified claims in the request locals.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return m.handler.fail(c, newError(KindUnauthorized, "missing bearer token"))
	}

	claims, err := m.service.VerifySession(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
	if err != nil {
		return m.handler.fail(c, err)
	}

	c.Locals(SessionContextKey, claims)
	return c.Next()
}

// ClaimsFromContext returns the claims stored by AuthMiddleware.Handle.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, error) {
	claims, ok := c.Locals(SessionContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, errors.New("session not found in context")
	}
	return claims, nil
}
