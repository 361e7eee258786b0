package geocache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func TestReverseGeocode_MissStoresResult(t *testing.T) {
	inner := &fakeGeocoder{formatted: "Rathausplatz, Köln"}
	cg, st := newCached(t, inner)

	got, err := cg.ReverseGeocode(context.Background(), "50.9", "6.9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Rathausplatz, Köln" {
		t.Fatalf("formatted = %q", got)
	}
	e, ok := st.entries["facetsearch:geo:50.9,6.9"]
	if !ok || string(e.value) != "Rathausplatz, Köln" || e.ttl != time.Hour {
		t.Fatalf("stored entries: %+v", st.entries)
	}
}

func TestReverseGeocode_HitSkipsInner(t *testing.T) {
	inner := &fakeGeocoder{formatted: "Rathausplatz, Köln"}
	cg, _ := newCached(t, inner)

	for range 3 {
		if _, err := cg.ReverseGeocode(context.Background(), "50.9", "6.9"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("inner called %d times, want 1", inner.calls)
	}
}

func TestReverseGeocode_EquivalentCoordinatesShareEntry(t *testing.T) {
	inner := &fakeGeocoder{formatted: "Dom"}
	cg, st := newCached(t, inner)

	_, _ = cg.ReverseGeocode(context.Background(), "50.940", "6.9580")
	_, _ = cg.ReverseGeocode(context.Background(), "50.94", "6.958")

	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
	if _, ok := st.entries["facetsearch:geo:50.94,6.958"]; !ok {
		t.Errorf("entries: %+v", st.entries)
	}
}

func TestCacheKey_Unparsable(t *testing.T) {
	if got := cacheKey("north", "6.9"); got != "facetsearch:geo:north,6.9" {
		t.Errorf("cacheKey = %q", got)
	}
}

func TestReverseGeocode_InnerErrorNotCached(t *testing.T) {
	inner := &fakeGeocoder{err: errors.New("geocoder down")}
	cg, st := newCached(t, inner)

	if _, err := cg.ReverseGeocode(context.Background(), "1", "2"); err == nil {
		t.Fatal("expected error")
	}
	if len(st.entries) != 0 {
		t.Fatalf("error result cached: %+v", st.entries)
	}
}

func TestReverseGeocode_EmptyAddressNotCached(t *testing.T) {
	cg, st := newCached(t, &fakeGeocoder{})

	if _, err := cg.ReverseGeocode(context.Background(), "1", "2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(st.entries) != 0 {
		t.Fatalf("empty address cached: %+v", st.entries)
	}
}

func TestReverseGeocode_StoreFailureFallsThrough(t *testing.T) {
	inner := &fakeGeocoder{formatted: "addr"}
	cg, st := newCached(t, inner)
	st.failWith = context.DeadlineExceeded

	got, err := cg.ReverseGeocode(context.Background(), "1", "2")
	if err != nil {
		t.Fatalf("store failure must not fail the lookup: %v", err)
	}
	if got != "addr" || inner.calls != 1 {
		t.Fatalf("got %q calls=%d", got, inner.calls)
	}
}

func TestReverseGeocode_CountsHitsAndMisses(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_geo_cache_total"}, []string{"result"})
	cg := New(&fakeGeocoder{formatted: "x"}, newMemStore(), 0, counter, zap.NewNop())

	_, _ = cg.ReverseGeocode(context.Background(), "1", "2")
	_, _ = cg.ReverseGeocode(context.Background(), "1", "2")

	if v := testutil.ToFloat64(counter.WithLabelValues("miss")); v != 1 {
		t.Errorf("miss = %v", v)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("hit")); v != 1 {
		t.Errorf("hit = %v", v)
	}
}
