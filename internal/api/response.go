package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nkoval/parley/internal/service"
)

// ErrorBody is the JSON shape for all error responses.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorBody under the "error" key.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func errorJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// serviceErrorJSON maps a service-layer error onto an HTTP response,
// preserving the stable code and message when the error is a
// ServiceError and falling back to a generic 500 otherwise.
func serviceErrorJSON(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	}

	var svcErr *service.ServiceError
	if errors.As(err, &svcErr) {
		return errorJSON(c, status, svcErr.Code, svcErr.Message)
	}
	return errorJSON(c, status, "INTERNAL_ERROR", "something went wrong")
}
