package core

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable wraps every failure reported by a transaction or user store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrSerialization is returned when an export document cannot be rendered.
	ErrSerialization = errors.New("serialization failed")

	ErrDuplicateTransaction = errors.New("duplicate transaction id")
	ErrUserExists           = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
)

// ValidationError reports a request parameter that could not be parsed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
