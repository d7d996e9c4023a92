package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cordobacasas/listing-api/internal/core/domain"
	"github.com/cordobacasas/listing-api/internal/core/ports"
)

// identityKey is the echo context key holding the verified domain.Identity.
const identityKey = "identity"

// Auth verifies the bearer token and injects the caller's identity into the
// context. Every failure is a 401.
func Auth(tokens ports.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			// Expired and forged tokens get the same response; the cause is
			// kept as the internal error for debug logging.
			id, err := tokens.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(err)
			}

			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by Auth, if any.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(identityKey).(domain.Identity)
	if !ok || id.PrincipalID == "" {
		return domain.Identity{}, false
	}
	return id, true
}

// SetIdentity stores id the way Auth does. Used by tests that bypass token checks.
func SetIdentity(c echo.Context, id domain.Identity) {
	c.Set(identityKey, id)
}
