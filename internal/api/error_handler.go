package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/user-management/internal/api/handler"
	"github.com/99minutos/user-management/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Error is
// only set on 500s and carries the underlying failure.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps validation and domain errors to 422 and 404.
//   - Logs unexpected errors and renders the message of the failed operation.
//   - Renders a consistent JSON envelope: {"message": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, missing params, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Message: fmt.Sprintf("%v", he.Message)}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, errorResponse{Message: ve.Message}
	}

	switch {
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusUnprocessableEntity, errorResponse{Message: "User with email already exists"}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Message: "User doesn't exist"}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	msg := http.StatusText(http.StatusInternalServerError)
	var oe *handler.OperationError
	if errors.As(err, &oe) {
		msg = oe.Message()
		err = oe.Err
	}
	return http.StatusInternalServerError, errorResponse{Message: msg, Error: err.Error()}
}
