// Package apperrors defines the error kinds surfaced by the marketplace core.
//
// Concrete errors wrap one of the sentinel kinds with %w, so callers classify them
// with errors.Is regardless of how much context was added on the way up.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrMalformedInput    = errors.New("malformed input")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
	ErrAuthorization     = errors.New("not authorized")
	ErrUnauthenticated   = errors.New("unauthenticated")
)

func wrap(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Validation reports bad or missing input the caller can correct and resubmit.
func Validation(format string, args ...interface{}) error {
	return wrap(ErrValidation, format, args...)
}

// Malformed reports a structurally invalid payload.
func Malformed(format string, args ...interface{}) error {
	return wrap(ErrMalformedInput, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return wrap(ErrNotFound, format, args...)
}

func InvalidState(format string, args ...interface{}) error {
	return wrap(ErrInvalidState, format, args...)
}

func InsufficientStock(format string, args ...interface{}) error {
	return wrap(ErrInsufficientStock, format, args...)
}

func Conflict(format string, args ...interface{}) error {
	return wrap(ErrConflict, format, args...)
}

func Authorization(format string, args ...interface{}) error {
	return wrap(ErrAuthorization, format, args...)
}

func Unauthenticated(format string, args ...interface{}) error {
	return wrap(ErrUnauthenticated, format, args...)
}

// HTTPStatus maps an error to the status code the boundary layer responds with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrMalformedInput):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrAuthorization):
		return fiber.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
