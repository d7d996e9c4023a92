package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/cordobacasas/listing-api/internal/api/middleware"
	"github.com/cordobacasas/listing-api/internal/core/domain"
)

// callerIdentity returns the identity injected by the Auth middleware. A
// missing identity means the route was registered without the middleware;
// the request is treated as unauthenticated.
func callerIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}

// bindAndValidate decodes the body into req and runs its validate tags.
// Both failures are validation errors.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return invalidPayload(err)
	}
	if err := c.Validate(req); err != nil {
		return invalidPayload(err)
	}
	return nil
}
