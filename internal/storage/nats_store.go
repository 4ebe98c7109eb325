package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSConfig configures the account-synced store.
type NATSConfig struct {
	URL    string
	Bucket string
}

// NATSStore is the account-synced Store backed by a JetStream key-value bucket.
type NATSStore struct {
	conn   *nats.Conn
	kv     jetstream.KeyValue
	bucket string
}

// NewNATSStore connects to cfg.URL and opens or creates cfg.Bucket.
func NewNATSStore(ctx context.Context, cfg NATSConfig) (*NATSStore, error) {
	if cfg.URL == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "thetool"
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("thetool"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	kv, err := js.KeyValue(initCtx, cfg.Bucket)
	if err != nil {
		kv, err = js.CreateKeyValue(initCtx, jetstream.KeyValueConfig{
			Bucket:      cfg.Bucket,
			Description: "Synced widget state for thetool",
			History:     1,
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("create KV bucket: %w", err)
		}
		slog.Info("Created KV bucket for synced state", slog.String("bucket", cfg.Bucket))
	}

	return &NATSStore{conn: conn, kv: kv, bucket: cfg.Bucket}, nil
}

// Get returns the values present for keys.
func (s *NATSStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if s.conn == nil || s.conn.IsClosed() {
		return nil, ErrStoreClosed
	}
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		result[key] = entry.Value()
	}
	return result, nil
}

// Set puts every entry. A failure part way leaves earlier keys written.
func (s *NATSStore) Set(ctx context.Context, entries map[string][]byte) error {
	if s.conn == nil || s.conn.IsClosed() {
		return ErrStoreClosed
	}
	for key, value := range entries {
		if _, err := s.kv.Put(ctx, key, value); err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
	}
	return nil
}

// Close closes the NATS connection.
func (s *NATSStore) Close() error {
	if s.conn != nil && !s.conn.IsClosed() {
		s.conn.Close()
	}
	return nil
}
