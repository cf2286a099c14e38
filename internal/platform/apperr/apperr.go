// Package apperr defines the error taxonomy shared by all domain services.
// Services wrap these sentinels with context; handlers translate them to
// HTTP status codes at the boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means the request carries no resolvable principal.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the principal lacks the required role or does not
	// own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound means the id does not exist or the payload is missing.
	ErrNotFound = errors.New("not found")
	// ErrValidation means the request body or parameters are malformed.
	ErrValidation = errors.New("validation failed")
	// ErrState means the operation is illegal in the record's current state.
	ErrState = errors.New("illegal state")
	// ErrConflict means a concurrent write or uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrPayloadTooLarge means an upload exceeds the configured limit.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Statusf wraps sentinel with a formatted message so callers can still match
// with errors.Is.
func Statusf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, sentinel)...)
}

// HTTPStatus maps an error to its HTTP status code. Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrState), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
