package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by strict lookups when a key has no stored value
	ErrNotFound = errors.New("key not found")

	// ErrStorageClosed is returned when attempting to use a closed storage
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidKey is returned when a key is invalid
	ErrInvalidKey = errors.New("invalid key")
)

// IoError is the typed failure every backend returns for read, write and delete problems.
type IoError struct {
	Op  string
	Key string
	Err error
}

// Error implements error
func (e *IoError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying cause
func (e *IoError) Unwrap() error {
	return e.Err
}

func ioErr(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var ioe *IoError
	if errors.As(err, &ioe) {
		return err
	}
	return &IoError{Op: op, Key: key, Err: err}
}

// checkKey validates the key and the context before touching storage
func checkKey(ctx context.Context, op, key string) error {
	if key == "" {
		return ioErr(op, key, ErrInvalidKey)
	}
	if err := ctx.Err(); err != nil {
		return ioErr(op, key, err)
	}
	return nil
}
