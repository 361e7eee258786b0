package facet

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	"github.com/kailas-cloud/facetsearch/internal/domain/response"
	"github.com/kailas-cloud/facetsearch/internal/eventloop"
)

func mustFilter(t *testing.T, key string, items ...Item) *Filter {
	t.Helper()
	f, err := NewFilter(key, items)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	return f
}

func TestRoundTrip_AllVariants(t *testing.T) {
	sorter := NewSorter(SortRelevance, SortDateNewest, SortDateOldest)
	sorter.Set(SortDateNewest)
	types := NewDocumentTypes()
	types.Set("paper", true)
	types.Set("file", true)
	dates := NewDateRange(PresetNames{})
	dates.Set("2020-01-01", "2020-01-31")
	loc := NewLocation(LocationConfig{})
	loc.Place(Point{Lat: 50.94, Lng: 6.96})
	loc.Apply(750)
	person := mustFilter(t, query.KeyPerson, Item{ID: "17", Name: "Jane Doe"})
	person.Select("17")

	facets := []Facet{sorter, loc, dates, types, person}
	qs := query.EncodeFacets(facets, "budget")

	want := "sort:date_newest lat:50.94 lng:6.96 radius:750 after:2020-01-01 before:2020-01-31 " +
		"document-type:file,paper person:17 budget"
	if qs != want {
		t.Fatalf("encode = %q, want %q", qs, want)
	}

	dec := query.Decode(qs)
	fresh := []Facet{
		NewSorter(SortRelevance, SortDateNewest, SortDateOldest),
		NewLocation(LocationConfig{}),
		NewDateRange(PresetNames{}),
		NewDocumentTypes(),
		mustFilter(t, query.KeyPerson, Item{ID: "17", Name: "Jane Doe"}),
	}
	for _, f := range fresh {
		f.SetFromQueryString(dec.Params)
	}
	if got := query.EncodeFacets(fresh, dec.FreeText); got != qs {
		t.Errorf("re-encode = %q, want %q", got, qs)
	}
	if dec.FreeText != "budget" {
		t.Errorf("free text = %q, want budget", dec.FreeText)
	}
}

func TestRoundTrip_SortAndTypes(t *testing.T) {
	sorter := NewSorter(SortRelevance, "newest")
	sorter.Set("newest")
	types := NewDocumentTypes()
	types.Toggle("paper")
	types.Toggle("file")

	qs := query.EncodeFacets([]Facet{sorter, types}, "budget")
	if qs != "sort:newest document-type:file,paper budget" {
		t.Fatalf("encode = %q", qs)
	}

	dec := query.Decode(qs)
	s2, t2 := NewSorter(SortRelevance, "newest"), NewDocumentTypes()
	s2.SetFromQueryString(dec.Params)
	t2.SetFromQueryString(dec.Params)
	if s2.Value() != "newest" {
		t.Errorf("sort = %q, want newest", s2.Value())
	}
	if got := t2.Selected(); !reflect.DeepEqual(got, []string{"file", "paper"}) {
		t.Errorf("types = %v", got)
	}
}

func TestSetFromQueryString_Idempotent(t *testing.T) {
	params := query.Decode("sort:date_oldest document-type:meeting after:2021-03-01 person:4").Params
	facets := []Facet{
		NewSorter(SortRelevance),
		NewDocumentTypes(),
		NewDateRange(PresetNames{}),
		NewLocation(LocationConfig{}),
		mustFilter(t, query.KeyPerson),
	}
	for _, f := range facets {
		f.SetFromQueryString(params)
	}
	first := query.EncodeFacets(facets, "")
	for _, f := range facets {
		f.SetFromQueryString(params)
	}
	if second := query.EncodeFacets(facets, ""); second != first {
		t.Errorf("second apply = %q, first = %q", second, first)
	}
}

func TestSetFromQueryString_AbsentKeysReset(t *testing.T) {
	sorter := NewSorter(SortRelevance)
	sorter.Set(SortDateOldest)
	types := NewDocumentTypes()
	types.Set("file", true)
	dates := NewDateRange(PresetNames{})
	dates.Set("2020-01-01", "")
	loc := NewLocation(LocationConfig{})
	loc.Place(Point{Lat: 1, Lng: 2})
	loc.Apply(100)
	org := mustFilter(t, query.KeyOrganization)
	org.Select("9")

	facets := []Facet{sorter, types, dates, loc, org}
	for _, f := range facets {
		f.SetFromQueryString(query.Params{})
		if qs := f.QueryString(); qs != "" {
			t.Errorf("%T QueryString = %q after reset", f, qs)
		}
	}
	if sorter.Value() != SortRelevance {
		t.Errorf("sorter = %q, want default", sorter.Value())
	}
	if _, ok := loc.Marker(); ok {
		t.Error("marker kept after reset")
	}
}

func TestSorter_DefaultNotEncoded(t *testing.T) {
	s := NewSorter(SortRelevance, SortDateNewest)
	if s.QueryString() != "" {
		t.Errorf("default encoded as %q", s.QueryString())
	}
	s.Set(SortDateNewest)
	if s.QueryString() != "sort:date_newest " {
		t.Errorf("QueryString = %q", s.QueryString())
	}
	s.Set("")
	if s.Value() != SortRelevance {
		t.Errorf("empty Set = %q, want default", s.Value())
	}
	if got := s.Options(); got[0] != SortRelevance {
		t.Errorf("options = %v, default must be included", got)
	}
}

func TestDocumentTypes_UpdateCounts(t *testing.T) {
	d := NewDocumentTypes()
	d.Set("paper", true)
	d.Update(&response.Response{
		Facets: map[string][]response.Bucket{
			response.FacetDocumentType: {{ID: "paper", Count: 12}, {ID: "file", Count: 3}},
		},
	})
	if d.Count("paper") != 12 || d.Count("file") != 3 {
		t.Errorf("counts paper=%d file=%d", d.Count("paper"), d.Count("file"))
	}
	if !d.IsSelected("paper") || d.IsSelected("file") {
		t.Error("Update changed the selection")
	}
}

func TestDocumentTypes_UnknownValueKept(t *testing.T) {
	d := NewDocumentTypes()
	d.SetFromQueryString(query.Params{query.KeyDocumentType: "paper,letter"})
	if got := d.QueryString(); got != "document-type:letter,paper " {
		t.Errorf("QueryString = %q", got)
	}
}

func TestDateRange_Label(t *testing.T) {
	now := time.Date(2024, time.March, 15, 13, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		after, before string
		want          string
	}{
		{"today", "2024-03-15", "2024-03-15", "Today"},
		{"last 7 days", "2024-03-09", "2024-03-15", "Last 7 days"},
		{"this month", "2024-03-01", "2024-03-31", "This month"},
		{"last month", "2024-02-01", "2024-02-29", "Last month"},
		{"this year", "2024-01-01", "2024-12-31", "This year"},
		{"custom", "2023-05-01", "2023-06-01", "2023-05-01 - 2023-06-01"},
		{"missing before", "2024-03-01", "", ""},
		{"missing after", "", "2024-03-01", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewDateRange(PresetNames{})
			r.Set(tc.after, tc.before)
			if got := r.Label(now); got != tc.want {
				t.Errorf("Label = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDateRange_CustomPresetNames(t *testing.T) {
	now := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	r := NewDateRange(PresetNames{Today: "Heute"})
	r.SetTimes(now, now)
	if got := r.Label(now); got != "Heute" {
		t.Errorf("Label = %q, want Heute", got)
	}
	r.Set("2024-01-01", "2024-12-31")
	if got := r.Label(now); got != "This year" {
		t.Errorf("Label = %q, want English fallback", got)
	}
}

func TestDateRange_IndependentBounds(t *testing.T) {
	r := NewDateRange(PresetNames{})
	r.Set("", "2020-01-31")
	if got := r.QueryString(); got != "before:2020-01-31 " {
		t.Errorf("QueryString = %q", got)
	}
}

func TestLocation_RadiusZeroEncodesNothing(t *testing.T) {
	l := NewLocation(LocationConfig{})
	l.Place(Point{Lat: 50, Lng: 7})
	if l.Apply(0) {
		t.Error("Apply(0) reported success")
	}
	if l.QueryString() != "" {
		t.Errorf("QueryString = %q, want empty", l.QueryString())
	}

	l.SetFromQueryString(query.Params{query.KeyLat: "50", query.KeyLng: "7", query.KeyRadius: "0"})
	if l.QueryString() != "" {
		t.Errorf("radius:0 encoded as %q", l.QueryString())
	}
}

func TestLocation_PlaceApplyDiscard(t *testing.T) {
	l := NewLocation(LocationConfig{})
	if l.Apply(500) {
		t.Fatal("Apply without marker reported success")
	}
	l.Place(Point{Lat: 1, Lng: 2})
	l.Place(Point{Lat: 50.5, Lng: 7.25})
	if l.QueryString() != "" {
		t.Error("Place alone must not change encoded state")
	}
	if !l.Apply(l.DefaultRadius()) {
		t.Fatal("Apply failed")
	}
	if got := l.QueryString(); got != "lat:50.5 lng:7.25 radius:500 " {
		t.Errorf("QueryString = %q", got)
	}
	l.Discard()
	if l.QueryString() != "" {
		t.Errorf("after Discard QueryString = %q", l.QueryString())
	}
	if _, ok := l.Marker(); ok {
		t.Error("marker kept after Discard")
	}
}

func TestLocation_MarkerFromQueryString(t *testing.T) {
	l := NewLocation(LocationConfig{})
	l.SetFromQueryString(query.Params{query.KeyLat: "50.940", query.KeyLng: "6.96", query.KeyRadius: "750"})

	m, ok := l.Marker()
	if !ok || m != (Point{Lat: 50.94, Lng: 6.96}) {
		t.Fatalf("marker = %v, %v", m, ok)
	}
	if got := m.String(); got != "50.94, 6.96" {
		t.Errorf("marker string = %q", got)
	}

	l.SetFromQueryString(query.Params{query.KeyLat: "north", query.KeyLng: "6.96", query.KeyRadius: "750"})
	if _, ok := l.Marker(); ok {
		t.Error("unparsable coordinate kept a marker")
	}
}

func TestLocation_PartialParamsClear(t *testing.T) {
	l := NewLocation(LocationConfig{})
	l.SetFromQueryString(query.Params{query.KeyLat: "1", query.KeyLng: "2"})
	if l.Radius() != 0 || l.Lat() != "" {
		t.Errorf("partial params kept lat=%q radius=%d", l.Lat(), l.Radius())
	}
}

type geocoderFunc func(ctx context.Context, lat, lng string) (string, error)

func (f geocoderFunc) ReverseGeocode(ctx context.Context, lat, lng string) (string, error) {
	return f(ctx, lat, lng)
}

func TestLocation_GeocodeLastWins(t *testing.T) {
	sched := &eventloop.Manual{}
	var calls int
	l := NewLocation(LocationConfig{
		Scheduler: sched,
		Geocoder: geocoderFunc(func(_ context.Context, lat, lng string) (string, error) {
			calls++
			return "near " + lat + "," + lng, nil
		}),
	})

	l.SetFromQueryString(query.Params{query.KeyLat: "1", query.KeyLng: "2", query.KeyRadius: "100"})
	l.SetFromQueryString(query.Params{query.KeyLat: "3", query.KeyLng: "4", query.KeyRadius: "100"})
	if sched.Pending() != 2 {
		t.Fatalf("pending = %d, want 2", sched.Pending())
	}

	// Newer answer first, then the stale one.
	sched.Run(1)
	sched.Run(0)

	got, ok := l.Description()
	if !ok || got != "near 3,4" {
		t.Errorf("Description = %q, %v; want near 3,4", got, ok)
	}
	if calls != 2 {
		t.Errorf("calls = %d", calls)
	}
}

func TestLocation_GeocodeNoDuplicateRequest(t *testing.T) {
	sched := &eventloop.Manual{}
	l := NewLocation(LocationConfig{
		Scheduler: sched,
		Geocoder: geocoderFunc(func(context.Context, string, string) (string, error) {
			return "Cologne", nil
		}),
	})
	params := query.Params{query.KeyLat: "1", query.KeyLng: "2", query.KeyRadius: "100"}
	l.SetFromQueryString(params)
	l.SetFromQueryString(params)
	if sched.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", sched.Pending())
	}
	sched.RunAll()
	l.SetFromQueryString(params)
	if sched.Pending() != 0 {
		t.Errorf("resolved coordinate fetched again")
	}
	if got, _ := l.Description(); got != "Cologne" {
		t.Errorf("Description = %q", got)
	}
}

func TestLocation_GeocodeErrorKeepsEmpty(t *testing.T) {
	sched := &eventloop.Manual{}
	l := NewLocation(LocationConfig{
		Scheduler: sched,
		Geocoder: geocoderFunc(func(context.Context, string, string) (string, error) {
			return "", errors.New("boom")
		}),
	})
	l.Place(Point{Lat: 1, Lng: 2})
	l.Apply(100)
	sched.RunAll()
	if _, ok := l.Description(); ok {
		t.Error("description set after geocode error")
	}
}

func TestFilter_ItemsSortedAndMatching(t *testing.T) {
	f := mustFilter(t, query.KeyPerson,
		Item{ID: "3", Name: "zoe"},
		Item{ID: "1", Name: "Anna Berg"},
		Item{ID: "2", Name: "bernd"},
	)
	var names []string
	for _, it := range f.Items() {
		names = append(names, it.Name)
	}
	if !reflect.DeepEqual(names, []string{"Anna Berg", "bernd", "zoe"}) {
		t.Errorf("items = %v", names)
	}
	m := f.Matching("BER")
	if len(m) != 2 || m[0].ID != "1" || m[1].ID != "2" {
		t.Errorf("Matching = %v", m)
	}
}

func TestFilter_RejectsUnknownKey(t *testing.T) {
	if _, err := NewFilter("color", nil); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestFilter_Update(t *testing.T) {
	f := mustFilter(t, query.KeyOrganization, Item{ID: "1", Name: "A"}, Item{ID: "2", Name: "B"})

	f.Update(&response.Response{Facets: map[string][]response.Bucket{
		query.KeyOrganization: {{ID: "2", Count: 5}},
	}})
	if f.Visible("1") || !f.Visible("2") || f.Count("2") != 5 {
		t.Errorf("visible1=%v visible2=%v count2=%d", f.Visible("1"), f.Visible("2"), f.Count("2"))
	}
	if f.Disabled() {
		t.Error("disabled with non-empty bucket")
	}

	f.Update(&response.Response{})
	if !f.Disabled() {
		t.Error("want disabled on empty bucket without selection")
	}

	f.Select("1")
	f.Update(&response.Response{})
	if f.Disabled() {
		t.Error("want enabled while a value is selected")
	}
	if f.Value() != "1" {
		t.Error("Update changed the selection")
	}
}
