package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalid     = errors.New("invalid")
	ErrUnavailable = errors.New("store unavailable")
)

// ValidationError reports rejected input. It matches ErrInvalid.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StoreError wraps a failed storage call. It matches ErrUnavailable; callers own retries.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Is(target error) bool {
	return target == ErrUnavailable
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
