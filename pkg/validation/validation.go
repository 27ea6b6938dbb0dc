// Package validation holds the submission text rules shared by the server and the client.
// Both sides must reject exactly the same inputs.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MinLength = 1
	MaxLength = 255

	// DefaultTruncateLength is the preview length used by Truncate callers that have no opinion.
	DefaultTruncateLength = 100
)

var (
	ErrEmpty   = errors.New("input cannot be empty")
	ErrTooLong = fmt.Errorf("input must be at most %d characters", MaxLength)
)

// Error describes why a text was rejected. It matches ErrEmpty or ErrTooLong with errors.Is.
type Error struct {
	Reason error
	Length int
}

func (e *Error) Error() string {
	return e.Reason.Error()
}

func (e *Error) Unwrap() error {
	return e.Reason
}

// Length counts Unicode code points.
func Length(text string) int {
	return utf8.RuneCountInString(text)
}

// Text validates a submission text. Whitespace-only text counts as empty.
func Text(text string) error {
	n := Length(text)
	if strings.TrimSpace(text) == "" || n < MinLength {
		return &Error{Reason: ErrEmpty, Length: n}
	}
	if n > MaxLength {
		return &Error{Reason: ErrTooLong, Length: n}
	}
	return nil
}

// Truncate shortens text to max code points, appending "..." when it cut something.
func Truncate(text string, max int) string {
	if max <= 0 {
		max = DefaultTruncateLength
	}
	if Length(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:max])) + "..."
}
