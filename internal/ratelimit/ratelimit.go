// Package ratelimit implements fixed-window request limiting per client key.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultMaxRequests = 60
	DefaultWindow      = 60 * time.Second
	// UnknownKey is used when a request carries no usable client identity.
	UnknownKey = "unknown"
)

var ErrInvalidConfig = errors.New("rate limiter requires positive limit and window")

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed bool
	// Limit is the window ceiling.
	Limit int
	// Remaining is the number of requests still admitted in the current window, never negative.
	Remaining int
	// ResetAt is when the current window expires.
	ResetAt time.Time
}

// RetryAfter returns how long a rejected caller should wait, rounded up to whole seconds.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return 0
	}
	return ((wait + time.Second - 1) / time.Second) * time.Second
}

// Limiter admits or rejects requests by key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}
