package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"success": false, "message": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Success: false, Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrMissingToken):
		return http.StatusUnauthorized, "You have to log in first!"
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, "Token has expired"
	case errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusForbidden, "Wrong login token given"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusForbidden, "Invalid username or password"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "too many failed login attempts, try again later"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, messageOr(err, "not found!")
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, messageOr(err, "you are not permitted for this action")
	case errors.Is(err, domain.ErrDuplicateValue),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrAlreadyInactive):
		return http.StatusBadRequest, messageOr(err, "bad request provided")
	case errors.Is(err, domain.ErrOperationFailed):
		return http.StatusInternalServerError, "Something went wrong"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "Something went wrong!"
}

// messageOr returns the caller-facing message carried by err, or fallback
// for a bare sentinel.
func messageOr(err error, fallback string) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Message
	}
	var dup *domain.DuplicateValueError
	if errors.As(err, &dup) {
		return dup.Error()
	}
	return fallback
}
