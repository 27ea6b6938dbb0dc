package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"snipbox/backend/internal/service"
)

var (
	errBadLimit  = errors.New("limit must be an integer")
	errBadCursor = errors.New("cursor must be an integer")
)

// parseLimitParam reads ?limit=, falling back to the default page size when absent.
// Range checks belong to the service.
func parseLimitParam(c echo.Context) (int, error) {
	raw := strings.TrimSpace(c.QueryParam("limit"))
	if raw == "" {
		return service.DefaultPageLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errBadLimit
	}
	return n, nil
}

// parseCursorParam reads ?cursor=. Any integer is accepted: a cursor naming no row is still
// a plain "ids below" filter, so zero or negative values yield an empty page.
func parseCursorParam(c echo.Context) (*int64, error) {
	raw := strings.TrimSpace(c.QueryParam("cursor"))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errBadCursor
	}
	return &id, nil
}
