package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session gateway
var (
	// Request lifecycle errors
	ErrNetworkFailure = errors.New("network failure")
	ErrAuthFailure    = errors.New("authentication failure")
	ErrHTTPFailure    = errors.New("http failure")

	// Session errors
	ErrMalformedSession = errors.New("malformed session record")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRole        = errors.New("invalid role")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
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

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
