/**
 * @description
 * Error taxonomy for the asset service. Handlers classify failures with
 * errors.Is against the sentinels below and map them to HTTP statuses.
 */
package app

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrUnauthorized        = errors.New("unauthorized access")
	ErrForbidden           = errors.New("forbidden access")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrRateLimited         = errors.New("too many requests")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrStorage             = errors.New("storage error")
)

// Error carries a client-facing message alongside its taxonomy kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

func invalidRequest(format string, args ...any) error {
	return newError(ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func conflict(message string) error {
	return newError(ErrConflict, message)
}

// storageFailure wraps an unexpected repository error.
func storageFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

// PublicMessage returns the message safe to show to a client for err.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return ErrInvalidRequest.Error()
	case errors.Is(err, ErrUnauthorized):
		return ErrUnauthorized.Error()
	case errors.Is(err, ErrForbidden):
		return ErrForbidden.Error()
	case errors.Is(err, ErrNotFound):
		return ErrNotFound.Error()
	case errors.Is(err, ErrConflict):
		return ErrConflict.Error()
	case errors.Is(err, ErrRateLimited):
		return ErrRateLimited.Error()
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream service unavailable"
	default:
		return "internal server error"
	}
}
