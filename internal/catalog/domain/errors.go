package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input or a broken invariant
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a referenced entity that does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness or referential violation
	ErrConflict = errors.New("conflict")
	// ErrConcurrencyConflict is returned when the stored version moved since the aggregate was loaded
	ErrConcurrencyConflict = fmt.Errorf("%w: entity was modified concurrently", ErrConflict)
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
