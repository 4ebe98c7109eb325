package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. It backs tests and runs without a data directory.
type MemoryStore struct {
	mu      sync.RWMutex
	values  map[string][]byte
	closed  bool
	failSet error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// FailWrites makes every subsequent Set return err. Passing nil restores normal writes.
func (store *MemoryStore) FailWrites(err error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.failSet = err
}

// Get returns copies of the stored values for keys.
func (store *MemoryStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	store.mu.RLock()
	defer store.mu.RUnlock()
	if store.closed {
		return nil, ErrStoreClosed
	}
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if value, ok := store.values[key]; ok {
			result[key] = append([]byte(nil), value...)
		}
	}
	return result, nil
}

// Set stores copies of entries.
func (store *MemoryStore) Set(ctx context.Context, entries map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return ErrStoreClosed
	}
	if store.failSet != nil {
		return store.failSet
	}
	for key, value := range entries {
		store.values[key] = append([]byte(nil), value...)
	}
	return nil
}

// Close marks the store closed.
func (store *MemoryStore) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.closed = true
	return nil
}
