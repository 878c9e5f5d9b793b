package errors

import (
	"errors"
	"fmt"
)

// Common error types for the hospital administration client
var (
	// Session errors
	ErrMalformedToken  = errors.New("malformed token")
	ErrSessionExpired  = errors.New("session expired")
	ErrLoginFailed     = errors.New("login failed")
	ErrNoStoredSession = errors.New("no stored session")

	// API errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid request")
	ErrValidation     = errors.New("validation failed")
	ErrRateLimited    = errors.New("too many requests")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
