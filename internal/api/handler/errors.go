package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Actions reported in 500 responses.
const (
	ActionCreate = "creating user"
	ActionList   = "fetching users"
	ActionFetch  = "fetching user"
	ActionUpdate = "updating user"
	ActionDelete = "deleting user"
)

var (
	errMissingID        = echo.NewHTTPError(http.StatusNotFound, "params is missing user's id")
	errMissingFirstName = echo.NewHTTPError(http.StatusNotFound, "params is missing user's first name")
	errInvalidPayload   = echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
)

// OperationError records which user operation a service failure belongs to,
// so that the error handler can render the matching message.
type OperationError struct {
	Action string
	Err    error
}

func (e *OperationError) Error() string {
	return e.Action + ": " + e.Err.Error()
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Message is the client-facing text for an unexpected failure.
func (e *OperationError) Message() string {
	if e.Action == ActionCreate {
		return "An error occurred while creating user"
	}
	return "Encountered an error while " + e.Action
}

func failed(action string, err error) error {
	return &OperationError{Action: action, Err: err}
}
