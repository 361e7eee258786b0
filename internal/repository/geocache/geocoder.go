// Package geocache caches reverse-geocoded coordinates in a key-value store.
package geocache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/db"
	"github.com/kailas-cloud/facetsearch/internal/domain/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/geo"
)

const cacheKeyPrefix = "facetsearch:geo:"

// store is the part of db.KVStore the cache needs.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedGeocoder caches formatted addresses per coordinate.
type CachedGeocoder struct {
	inner      facet.Geocoder
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New wraps inner with a cache in s. Entries expire after ttl. cacheTotal,
// when set, counts lookups by "result" label (hit or miss).
func New(
	inner facet.Geocoder,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedGeocoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedGeocoder{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// ReverseGeocode returns a cached address or asks the inner geocoder.
// Cache failures degrade to a miss.
func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lng string) (string, error) {
	key := cacheKey(lat, lng)

	if formatted, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return formatted, nil
	}

	c.incCache("miss")

	formatted, err := c.inner.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}

	if formatted != "" {
		c.putToCache(ctx, key, formatted)
	}
	return formatted, nil
}

func (c *CachedGeocoder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey folds equal coordinates written differently ("50.90" and
// "50.9") onto one key. Unparsable input is keyed verbatim.
func cacheKey(lat, lng string) string {
	if p, err := geo.Parse(lat, lng); err == nil {
		lat = strconv.FormatFloat(p.Lat, 'f', -1, 64)
		lng = strconv.FormatFloat(p.Lng, 'f', -1, 64)
	}
	return cacheKeyPrefix + lat + "," + lng
}

func (c *CachedGeocoder) getFromCache(ctx context.Context, key string) (string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached address", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (c *CachedGeocoder) putToCache(ctx context.Context, key, formatted string) {
	if err := c.store.SetWithTTL(ctx, key, []byte(formatted), c.ttl); err != nil {
		c.logger.Warn("Failed to cache address", zap.String("key", key), zap.Error(err))
	}
}
