package ratelimit

import (
	"context"
	"sync"
	"time"

	"snipbox/backend/pkg/logger"
)

type fixedWindow struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a process-local fixed-window limiter. The number of tracked keys is
// bounded only by the number of distinct clients; expired windows are dropped on access
// and by Sweep.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*fixedWindow
	limit   int
	window  time.Duration
	now     func() time.Time
}

type MemoryOption func(*MemoryLimiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) { l.now = now }
}

func NewMemoryLimiter(limit int, window time.Duration, opts ...MemoryOption) (*MemoryLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, ErrInvalidConfig
	}
	l := &MemoryLimiter{
		windows: make(map[string]*fixedWindow),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Allow implements Limiter. A rejected request does not consume quota.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	if key == "" {
		key = UnknownKey
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &fixedWindow{resetAt: now.Add(l.window)}
		l.windows[key] = w
	}

	if w.count+1 > l.limit {
		return Decision{Allowed: false, Limit: l.limit, Remaining: 0, ResetAt: w.resetAt}, nil
	}
	w.count++
	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: max(0, l.limit-w.count),
		ResetAt:   w.resetAt,
	}, nil
}

// Sweep drops every window that has expired at now and returns how many were removed.
func (l *MemoryLimiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// SweepExpired is Sweep at the limiter's current time, shaped for scheduler tasks.
func (l *MemoryLimiter) SweepExpired(context.Context) error {
	if removed := l.Sweep(l.now()); removed > 0 {
		logger.Debug("rate limit windows swept", "removed", removed, "tracked", l.Len())
	}
	return nil
}

// Len returns the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
