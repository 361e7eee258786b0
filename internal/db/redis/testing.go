package redis

import (
	"time"

	"github.com/redis/rueidis"
)

// NewStoreForTest wraps an existing client, typically a rueidis mock.
// A positive cacheTTL routes reads through DoCache.
func NewStoreForTest(c rueidis.Client, cacheTTL time.Duration) *Store {
	return &Store{client: c, cacheTTL: cacheTTL}
}
