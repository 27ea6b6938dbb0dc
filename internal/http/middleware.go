package http

import (
	"log/slog"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"snipbox/backend/internal/ratelimit"
	"snipbox/backend/pkg/logger"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// KeyFunc extracts the rate-limit key from a request.
type KeyFunc func(c echo.Context) string

type rateLimitResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	ResetAt   string `json:"resetAt"`
}

// ClientIPKey keys requests by resolved client address.
func ClientIPKey(trusted *TrustedProxies) KeyFunc {
	return func(c echo.Context) string {
		return ClientIP(c.Request(), trusted)
	}
}

// RateLimitMiddleware admits requests through limiter. Every response carries the
// X-RateLimit-* headers; rejected requests get 429 and never reach the handler.
func RateLimitMiddleware(limiter ratelimit.Limiter, keyFunc KeyFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := keyFunc(c)
			if key == "" {
				key = ratelimit.UnknownKey
			}

			decision, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				logger.Error("rate limiter", "key", key, "error", err)
				return c.JSON(nethttp.StatusServiceUnavailable, map[string]string{
					"error": "rate limiter unavailable",
				})
			}

			h := c.Response().Header()
			h.Set(HeaderRateLimitLimit, strconv.Itoa(decision.Limit))
			h.Set(HeaderRateLimitRemaining, strconv.Itoa(decision.Remaining))
			h.Set(HeaderRateLimitReset, strconv.FormatInt(resetUnix(decision.ResetAt), 10))

			if !decision.Allowed {
				retry := decision.RetryAfter(time.Now())
				h.Set("Retry-After", strconv.Itoa(int(retry/time.Second)))
				logger.Debug("rate limit exceeded", "key", key, "reset_at", decision.ResetAt)
				return c.JSON(nethttp.StatusTooManyRequests, rateLimitResponse{
					Error:     "too many requests",
					Message:   "rate limit exceeded, please try again later",
					Limit:     decision.Limit,
					Remaining: decision.Remaining,
					ResetAt:   decision.ResetAt.UTC().Format(time.RFC3339),
				})
			}
			return next(c)
		}
	}
}

func resetUnix(t time.Time) int64 {
	sec := t.Unix()
	if t.Nanosecond() > 0 {
		sec++
	}
	return sec
}

// RequestLoggerMiddleware logs one line per request, at a level chosen by status class.
func RequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			switch {
			case v.Status >= 500:
				level = slog.LevelError
			case v.Status >= 400:
				level = slog.LevelWarn
			}
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			logger.L().Log(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}
