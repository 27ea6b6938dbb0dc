package client

import (
	"errors"
	"fmt"
	"time"

	"snipbox/backend/pkg/validation"
)

var (
	// ErrUnreachable wraps transport failures: refused connections, DNS errors, timeouts.
	ErrUnreachable = errors.New("server unreachable")
	ErrRateLimited = errors.New("rate limited")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Code)
}

// RateLimitError is a 429 response. It matches ErrRateLimited.
type RateLimitError struct {
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

type Kind int

const (
	KindNone Kind = iota
	KindInvalid
	KindRateLimited
	KindRejected
	KindUnreachable
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalid:
		return "invalid"
	case KindRateLimited:
		return "rate_limited"
	case KindRejected:
		return "rejected"
	case KindUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Classify buckets an error for display. Unreachable and Rejected are kept apart so a
// caller can tell a dead server from one that said no.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		return KindInvalid
	}
	if errors.Is(err, ErrRateLimited) {
		return KindRateLimited
	}
	if errors.Is(err, ErrUnreachable) {
		return KindUnreachable
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 400 {
			return KindInvalid
		}
		return KindRejected
	}
	return KindUnknown
}
