package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
)

// IdentityKey is the echo.Context key holding the caller's *domain.Identity.
const IdentityKey = "identity"

// Auth verifies the bearer token and injects the caller's identity into
// context. A missing or non-bearer Authorization header counts as no token.
func Auth(authenticator ports.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, err := authenticator.Authenticate(c.Request().Context(), bearerToken(c))
			if err != nil {
				return err
			}

			c.Set(IdentityKey, identity)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// IdentityFrom returns the identity injected by Auth, if any.
func IdentityFrom(c echo.Context) (*domain.Identity, bool) {
	identity, ok := c.Get(IdentityKey).(*domain.Identity)
	return identity, ok && identity != nil
}
