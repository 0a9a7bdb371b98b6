// Package middleware provides the Bearer token guard for protected routes.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"flashpay/backend/internal/security"
)

const principalKey = "auth_principal"

// RequireAuth validates the Bearer access token and stores the resolved
// principal in request locals. Requests without a valid access token get 401;
// handlers behind this middleware can trust Principal(c).
func RequireAuth(tokens *security.TokenProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := extractBearer(c.Get("Authorization"))
		if raw == "" {
			return unauthorized(c)
		}
		principal, err := tokens.ValidateAccess(raw)
		if err != nil {
			return unauthorized(c)
		}
		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// Principal returns the authenticated principal set by RequireAuth.
func Principal(c *fiber.Ctx) (security.Principal, bool) {
	p, ok := c.Locals(principalKey).(security.Principal)
	return p, ok
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
		"code":      "INVALID_TOKEN",
		"message":   "missing or invalid authorization",
		"timestamp": time.Now().UTC(),
	})
}

func extractBearer(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
