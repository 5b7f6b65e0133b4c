package errors

import (
	"errors"
	"fmt"
)

// Common error types for the Renatrack client
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionInvalid     = errors.New("session invalid")
	ErrUnauthenticated    = errors.New("not authenticated")

	// Registration errors
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrRegistrationFailed     = errors.New("registration failed")

	// Consent errors
	ErrTermsAcceptanceFailed = errors.New("terms acceptance failed")

	// Transport errors
	ErrServerError       = errors.New("server error")
	ErrMalformedResponse = errors.New("malformed server response")

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

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
