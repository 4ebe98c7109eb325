package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("store closed")
	// ErrNotConfigured indicates a store backend that has not been configured.
	ErrNotConfigured = errors.New("store not configured")
)

// Store is a key-value namespace for persisted widget state. Writes are durable once Set
// returns nil but multi-key writes are not transactional.
type Store interface {
	// Get returns the values present for keys. Missing keys are absent from the map.
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	// Set writes every entry, overwriting existing values.
	Set(ctx context.Context, entries map[string][]byte) error
	// Close releases resources held by the store.
	Close() error
}

// LoadJSON decodes the value stored under key into target. It reports false when the key
// is absent.
func LoadJSON(ctx context.Context, store Store, key string, target any) (bool, error) {
	values, err := store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	raw, ok := values[key]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes value and stores it under key.
func SaveJSON(ctx context.Context, store Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Set(ctx, map[string][]byte{key: raw}); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
