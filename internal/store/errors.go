package store

import (
	"errors"
	"fmt"
)

// Common store errors.
var (
	// ErrNotFound indicates nothing has been stored yet.
	ErrNotFound = errors.New("document not found")

	// ErrClosed indicates the backend has been closed.
	ErrClosed = errors.New("store is closed")

	// ErrInvalidConfig indicates a backend was requested without what it needs.
	ErrInvalidConfig = errors.New("invalid store configuration")
)

// UnknownKindError is returned by Open for an unsupported backend kind.
type UnknownKindError struct {
	Kind Kind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown store kind %q (want file, sqlite or redis)", string(e.Kind))
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
