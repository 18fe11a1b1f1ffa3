package auth

import (
	"errors"
	"fmt"
)

// Coarse failure categories. Callers must not tell the client which underlying
// cause produced them.
var (
	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers missing, malformed, expired and forged tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrAuthorizationDenied is returned when a valid token acts on another user's resources.
	ErrAuthorizationDenied = errors.New("authorization denied")
)

// ValidationError describes malformed client input. Its message is safe to
// return in a response body.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error with the given client-safe message
func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UnexpectedError wraps an infrastructure failure (storage, hashing, signing).
type UnexpectedError struct {
	Op  string
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

// Unexpected wraps err as an UnexpectedError for operation op.
// A nil err stays nil.
func Unexpected(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UnexpectedError{Op: op, Err: err}
}

// IsValidationError reports whether err is, or wraps, a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
