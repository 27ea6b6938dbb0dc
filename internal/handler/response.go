package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"snipbox/backend/internal/service"
	"snipbox/backend/pkg/logger"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Error writes a bare error body with the given status.
func Error(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorResponse{Error: msg})
}

func writeServiceError(c echo.Context, err error) error {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Message: validationErr.Error()})
	case errors.Is(err, service.ErrInvalid):
		return Error(c, http.StatusBadRequest, "invalid request")
	case errors.Is(err, service.ErrUnavailable):
		logger.Warn("store unavailable", "path", c.Path(), "error", err)
		return Error(c, http.StatusServiceUnavailable, "service unavailable")
	default:
		logger.Error("unhandled service error", "path", c.Path(), "error", err)
		return Error(c, http.StatusInternalServerError, "internal error")
	}
}

// HTTPErrorHandler renders errors that never reached a handler, such as unknown routes or
// recovered panics, in the same body shape the handlers use.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", c.Request().URL.Path, "error", err)
	}

	msg := strings.ToLower(http.StatusText(status))
	if status == http.StatusNotFound {
		msg = "resource not found"
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = Error(c, status, msg)
	}
	if werr != nil {
		logger.Warn("write error response", "error", werr)
	}
}

func idPtrToString(id *int64) *string {
	if id == nil {
		return nil
	}
	s := itoa(*id)
	return &s
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
