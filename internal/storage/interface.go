package storage

import (
	"context"
)

// Backend defines raw key to string storage. It is the only layer of the
// save pipeline that touches physical storage.
type Backend interface {
	// Store persists data under key, replacing any previous value atomically
	Store(ctx context.Context, key string, data string) error

	// Load retrieves the value for key; found is false when nothing is stored
	Load(ctx context.Context, key string) (data string, found bool, err error)

	// Exists checks if a key exists
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes a key. Deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// List returns all keys with the given prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Close closes the storage
	Close() error
}
