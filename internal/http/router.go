package http

import (
	nethttp "net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "snipbox/backend/docs"
	"snipbox/backend/internal/handler"
	"snipbox/backend/internal/ratelimit"
)

// RouterOptions carries the edge settings that do not belong to a handler.
type RouterOptions struct {
	TrustedProxies *TrustedProxies
	CORSOrigins    []string
	EnableSwagger  bool
}

func NewRouter(
	submissionHandler *handler.SubmissionHandler,
	healthHandler *handler.HealthHandler,
	limiter ratelimit.Limiter,
	opts RouterOptions,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(RequestLoggerMiddleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{nethttp.MethodGet, nethttp.MethodPost, nethttp.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
		ExposeHeaders: []string{
			HeaderRateLimitLimit,
			HeaderRateLimitRemaining,
			HeaderRateLimitReset,
			"Retry-After",
		},
	}))

	if opts.EnableSwagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	healthHandler.RegisterRoutes(e)

	api := e.Group("/api", RateLimitMiddleware(limiter, ClientIPKey(opts.TrustedProxies)))
	submissionHandler.RegisterRoutes(api)

	return e
}
