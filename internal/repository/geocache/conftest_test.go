package geocache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/db"
)

type fakeGeocoder struct {
	formatted string
	err       error
	calls     int
}

func (f *fakeGeocoder) ReverseGeocode(context.Context, string, string) (string, error) {
	f.calls++
	return f.formatted, f.err
}

type entry struct {
	value []byte
	ttl   time.Duration
}

// memStore keeps entries in a map. failWith makes every call fail.
type memStore struct {
	entries  map[string]entry
	failWith error
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]entry)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.failWith != nil {
		return nil, &db.Error{Op: db.OpGet, Key: key, Err: m.failWith}
	}
	e, ok := m.entries[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return e.value, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.failWith != nil {
		return &db.Error{Op: db.OpSet, Key: key, Err: m.failWith}
	}
	m.entries[key] = entry{value: value, ttl: ttl}
	return nil
}

func newCached(t *testing.T, inner *fakeGeocoder) (*CachedGeocoder, *memStore) {
	t.Helper()
	st := newMemStore()
	return New(inner, st, time.Hour, nil, zap.NewNop()), st
}
