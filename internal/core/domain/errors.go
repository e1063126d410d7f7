package domain

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced by the session core. Callers match with errors.Is;
// call sites wrap them with context using %w.
var (
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("email already in use")
	ErrUserNotFound    = errors.New("user not found")
	ErrAuthentication  = errors.New("authentication failed")
	ErrInvalidToken    = errors.New("invalid token")
	ErrExpiredToken    = errors.New("token expired")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("forbidden: insufficient privileges")
	ErrInternal        = errors.New("internal error")
)

// Specific authentication failures.
var (
	ErrIncorrectPassword = fmt.Errorf("%w: incorrect password", ErrAuthentication)
	ErrNoRefreshToken    = fmt.Errorf("%w: no refresh token provided", ErrAuthentication)
)

// Reasons the access guard denies a request.
const (
	ReasonMissing = "missing"
	ReasonExpired = "expired"
	ReasonInvalid = "invalid"
	ReasonRevoked = "revoked"
)

// GuardError is the access guard's deny decision. It unwraps to
// ErrUnauthenticated so the transport layer maps every reason to 401.
type GuardError struct {
	Reason  string
	Message string
}

func (e *GuardError) Error() string { return e.Message }

func (e *GuardError) Unwrap() error { return ErrUnauthenticated }

// NewGuardError builds a GuardError for reason.
func NewGuardError(reason, message string) *GuardError {
	return &GuardError{Reason: reason, Message: message}
}

// Error kinds rendered to API clients.
const (
	KindValidation      = "validation_error"
	KindConflict        = "conflict"
	KindNotFound        = "not_found"
	KindAuthentication  = "authentication_failed"
	KindUnauthenticated = "unauthenticated"
	KindInvalidToken    = "invalid_token"
	KindForbidden       = "forbidden"
	KindInternal        = "internal_error"
)

// KindOf classifies err. Anything unrecognised is internal.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrAuthentication):
		return KindAuthentication
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrExpiredToken):
		return KindInvalidToken
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindInternal
	}
}
