package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"snipbox/backend/pkg/logger"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store     Pinger
	startedAt time.Time
	now       func() time.Time
}

type statusResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Time      string            `json:"time"`
	Endpoints map[string]string `json:"endpoints"`
}

type healthResponse struct {
	Status            string  `json:"status"`
	Uptime            float64 `json:"uptime"`
	Timestamp         string  `json:"timestamp"`
	DatabaseConnected bool    `json:"databaseConnected"`
}

const pingTimeout = 2 * time.Second

func NewHealthHandler(store Pinger) *HealthHandler {
	now := time.Now
	return &HealthHandler{store: store, startedAt: now(), now: now}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Status)
	e.GET("/health", h.Health)
}

// Status godoc
//
//	@Summary	Service status
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	statusResponse
//	@Router		/ [get]
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{
		Status:  "ok",
		Message: "snipbox API is running",
		Time:    h.now().UTC().Format(time.RFC3339),
		Endpoints: map[string]string{
			"health":           "GET /health",
			"listSubmissions":  "GET /api/submissions?limit=&cursor=",
			"createSubmission": "POST /api/submissions",
		},
	})
}

// Health godoc
//
//	@Summary	Health check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	healthResponse
//	@Failure	503	{object}	healthResponse
//	@Router		/health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
	defer cancel()

	connected := true
	if err := h.store.Ping(ctx); err != nil {
		logger.Warn("health check ping failed", "error", err)
		connected = false
	}

	now := h.now()
	resp := healthResponse{
		Status:            "healthy",
		Uptime:            now.Sub(h.startedAt).Seconds(),
		Timestamp:         now.UTC().Format(time.RFC3339),
		DatabaseConnected: connected,
	}
	if !connected {
		resp.Status = "unhealthy"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
