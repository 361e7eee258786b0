package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrBackendUnavailable signals that the results endpoint could not be reached.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrUnexpectedStatus signals a non-2xx answer from the results endpoint.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrInvalidResponse signals a payload that does not decode.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrInvalidConfig signals an unusable facet or backend configuration.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidArgument signals a facet value that cannot be encoded.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrClosed signals an operation on a stopped session.
	ErrClosed = errors.New("session closed")
)

// StatusError wraps ErrUnexpectedStatus with the HTTP status code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUnexpectedStatus.Error(), e.Code)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// NewStatusError creates an unexpected status error.
func NewStatusError(code int) error {
	return &StatusError{Code: code}
}
