package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryBackend is an in-process Backend for tests and ephemeral sessions.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string]string
	closed  bool
}

// NewMemoryBackend returns an empty MemoryBackend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: map[string]string{}}
}

// Store stores a key-value pair
func (s *MemoryBackend) Store(ctx context.Context, key string, data string) error {
	if err := checkKey(ctx, "store", key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ioErr("store", key, ErrStorageClosed)
	}
	s.records[key] = data
	return nil
}

// Load retrieves the value for a given key
func (s *MemoryBackend) Load(ctx context.Context, key string) (string, bool, error) {
	if err := checkKey(ctx, "load", key); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ioErr("load", key, ErrStorageClosed)
	}
	data, ok := s.records[key]
	return data, ok, nil
}

// Exists checks if a key exists
func (s *MemoryBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Load(ctx, key)
	if err != nil {
		return false, ioErr("exists", key, err)
	}
	return ok, nil
}

// Delete removes a key-value pair
func (s *MemoryBackend) Delete(ctx context.Context, key string) error {
	if err := checkKey(ctx, "delete", key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ioErr("delete", key, ErrStorageClosed)
	}
	delete(s.records, key)
	return nil
}

// List returns all keys with the given prefix in sorted order
func (s *MemoryBackend) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, ioErr("list", prefix, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ioErr("list", prefix, ErrStorageClosed)
	}
	var keys []string
	for k := range s.records {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the storage
func (s *MemoryBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
