// Package redis is the rueidis-backed key-value store of the geocode cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/facetsearch/internal/db"
)

var _ db.Store = (*Store)(nil)

const (
	clientName     = "facetsearch"
	minReadyPeriod = 50 * time.Millisecond
	maxReadyPeriod = time.Second
)

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// ClientCacheTTL keeps reads in the rueidis client-side cache for this
	// long. Zero disables client-side caching, which servers without RESP3
	// require.
	ClientCacheTTL time.Duration
	// WriteTimeout bounds each connection write and the background pings.
	WriteTimeout time.Duration
}

// Store implements db.Store via rueidis.
type Store struct {
	client   rueidis.Client
	cacheTTL time.Duration
}

// NewStore connects to the servers in cfg.Addrs.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis: addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:      cfg.Addrs,
		Username:         cfg.Username,
		Password:         cfg.Password,
		SelectDB:         cfg.DB,
		ClientName:       clientName,
		ConnWriteTimeout: cfg.WriteTimeout,
		DisableCache:     cfg.ClientCacheTTL <= 0,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: connect %v: %w", cfg.Addrs, err)
	}

	return &Store{client: client, cacheTTL: cfg.ClientCacheTTL}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings until the store answers or timeout expires, backing
// off between attempts. The timeout error wraps the last ping failure.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	period := minReadyPeriod
	for {
		err := s.Ping(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("redis: not ready after %s: %w", timeout, errors.Join(ctx.Err(), err))
		case <-time.After(period):
		}
		period = min(period*2, maxReadyPeriod)
	}
}
