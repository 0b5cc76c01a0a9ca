package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/task-system/internal/api/middleware"
	"github.com/taskdesk/task-system/internal/core/domain"
)

// ctxIdentity returns the identity injected by the Auth middleware. Its
// absence means the route was registered without Auth.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Identity{}, domain.ErrMissingToken
	}
	return *identity, nil
}

// bindAndValidate decodes the request body into req and runs the validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
