package apperrors

import (
	"errors"
	"fmt"
)

// Taxonomy errors
var (
	// ErrConfiguration marks a missing collection id or credential. Fatal to the
	// operation that needed it and always surfaced to the caller.
	ErrConfiguration = errors.New("configuration error")

	// ErrProvider marks a network or provider-side failure.
	ErrProvider = errors.New("provider error")

	// ErrAmbiguousSchema is only ever logged, never returned.
	ErrAmbiguousSchema = errors.New("ambiguous schema")
)

// Request errors
var (
	ErrBadRequest         = errors.New("bad request")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMemberNotFound     = errors.New("member not found")
)

// Session errors
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// NewConfigurationError creates a configuration error with a message
func NewConfigurationError(message string) error {
	return &CustomError{
		Err:     ErrConfiguration,
		Message: message,
	}
}

// NewProviderError wraps a provider failure for the named operation.
// Both ErrProvider and cause remain reachable through errors.Is / errors.As.
func NewProviderError(op string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrProvider, op, cause)
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewMemberNotFoundError creates a member lookup failure carrying the names that were available
func NewMemberNotFoundError(message string, available []string) error {
	return (&CustomError{
		Err:     ErrMemberNotFound,
		Message: message,
	}).WithDetails(map[string]interface{}{"available": available})
}

// IsConfiguration reports whether err is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsProvider reports whether err is a provider error
func IsProvider(err error) bool {
	return errors.Is(err, ErrProvider)
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}
