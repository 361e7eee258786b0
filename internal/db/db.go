// Package db declares the key-value store the geocode cache sits on.
package db

import (
	"context"
	"time"
)

// Store is a connected key-value store.
type Store interface {
	KVStore
	Ping(ctx context.Context) error
	// WaitForReady blocks until Ping succeeds or timeout elapses.
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}

// KVStore reads and writes opaque values. Get returns ErrKeyNotFound for a
// missing key; a non-positive ttl stores without expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}
