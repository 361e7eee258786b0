package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/facetsearch/internal/domain/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/geo"
	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	"github.com/kailas-cloud/facetsearch/internal/domain/response"
	"github.com/kailas-cloud/facetsearch/internal/repository/devindex"
)

type mockIndex struct {
	searchFn    func(ctx context.Context, req devindex.Request) (*devindex.Result, error)
	formatGeoFn func(geo.Point) string
	items       map[string][]facet.Item
	pingErr     error
}

func (m *mockIndex) Search(ctx context.Context, req devindex.Request) (*devindex.Result, error) {
	return m.searchFn(ctx, req)
}

func (m *mockIndex) FormatGeo(p geo.Point) string {
	return m.formatGeoFn(p)
}

func (m *mockIndex) Items(key string) []facet.Item { return m.items[key] }

func (m *mockIndex) Ping(context.Context) error { return m.pingErr }

func newTestServer(idx Index, keys ...string) http.Handler {
	return NewServer(idx, Config{PageSize: 2, APIKeys: keys}, nil).Router()
}

func TestResults_DecodesQueryAndPaging(t *testing.T) {
	var got devindex.Request
	idx := &mockIndex{searchFn: func(_ context.Context, req devindex.Request) (*devindex.Result, error) {
		got = req
		return &devindex.Result{
			Hits: []devindex.Document{
				{ID: "p1", Type: "paper", Title: "Budget <2020>", URL: "/paper/p1", Date: "2020-01-15"},
			},
			Total: 3,
			Facets: map[string][]response.Bucket{
				response.FacetDocumentType: {{ID: "paper", Count: 3}},
			},
		}, nil
	}}

	req := httptest.NewRequest("GET", "/search/results_only/document-type%3Apaper%20budget/?after=2", http.NoBody)
	rr := httptest.NewRecorder()
	newTestServer(idx).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	if got.After != 2 || got.Size != 2 {
		t.Errorf("paging: got after=%d size=%d", got.After, got.Size)
	}
	if got.Query.FreeText != "budget" || got.Query.Params.Get(query.KeyDocumentType) != "paper" {
		t.Errorf("decoded query: %+v", got.Query)
	}

	var body struct {
		Results         string           `json:"results"`
		TotalResults    int              `json:"total_results"`
		Query           string           `json:"query"`
		MoreLink        string           `json:"more_link"`
		SubscribeWidget string           `json:"subscribe_widget"`
		NewFacets       map[string][]any `json:"new_facets"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalResults != 3 {
		t.Errorf("total_results: got %d, want 3", body.TotalResults)
	}
	if body.Query != "document-type:paper budget" {
		t.Errorf("query: got %q", body.Query)
	}
	if body.MoreLink != "/search/results_only/document-type:paper%20budget/" {
		t.Errorf("more_link: got %q", body.MoreLink)
	}
	if !strings.Contains(body.Results, `<li class="search-result"`) || !strings.Contains(body.Results, "Budget &lt;2020&gt;") {
		t.Errorf("results markup not escaped list items: %q", body.Results)
	}
	if !strings.Contains(body.SubscribeWidget, "subscribe-widget") {
		t.Errorf("subscribe widget: %q", body.SubscribeWidget)
	}
	if len(body.NewFacets[response.FacetDocumentType]) != 1 {
		t.Errorf("new_facets: %v", body.NewFacets)
	}
}

func TestResults_FacetsDecodeAsBuckets(t *testing.T) {
	idx := &mockIndex{searchFn: func(context.Context, devindex.Request) (*devindex.Result, error) {
		return &devindex.Result{
			Total: 1,
			Facets: map[string][]response.Bucket{
				response.FacetPerson: {{ID: "17", Count: 1}},
			},
		}, nil
	}}

	req := httptest.NewRequest("GET", "/search/results_only/person%3A17/", http.NoBody)
	rr := httptest.NewRecorder()
	newTestServer(idx).ServeHTTP(rr, req)

	var resp response.Response
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	buckets, ok := resp.Buckets(response.FacetPerson)
	if !ok || len(buckets) != 1 || buckets[0].ID != "17" || buckets[0].Count != 1 {
		t.Errorf("buckets: got %+v", buckets)
	}
}

func TestResults_BadAfter_400(t *testing.T) {
	idx := &mockIndex{searchFn: func(context.Context, devindex.Request) (*devindex.Result, error) {
		t.Fatal("search must not be called")
		return nil, nil
	}}

	req := httptest.NewRequest("GET", "/search/results_only/budget/?after=-1", http.NoBody)
	rr := httptest.NewRecorder()
	newTestServer(idx).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != CodeBadRequest {
		t.Errorf("code: got %s, want %s", errResp.Code, CodeBadRequest)
	}
}

func TestResults_SearchError_400(t *testing.T) {
	idx := &mockIndex{searchFn: func(context.Context, devindex.Request) (*devindex.Result, error) {
		return nil, errors.New("after: parsing time")
	}}

	req := httptest.NewRequest("GET", "/search/results_only/after%3Anope/", http.NoBody)
	rr := httptest.NewRecorder()
	newTestServer(idx).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestResults_PanicRecovered(t *testing.T) {
	idx := &mockIndex{searchFn: func(context.Context, devindex.Request) (*devindex.Result, error) {
		panic("boom")
	}}

	req := httptest.NewRequest("GET", "/search/results_only/budget/", http.NoBody)
	rr := httptest.NewRecorder()
	newTestServer(idx).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != CodeInternalError {
		t.Errorf("code: got %s, want %s", errResp.Code, CodeInternalError)
	}
}

func TestResults_RequiresAuthWhenKeysSet(t *testing.T) {
	idx := &mockIndex{searchFn: func(context.Context, devindex.Request) (*devindex.Result, error) {
		return &devindex.Result{}, nil
	}}
	h := newTestServer(idx, "secret")

	req := httptest.NewRequest("GET", "/search/results_only/budget/", http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("no token: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest("GET", "/search/results_only/budget/", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("with token: got %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestFormatGeo(t *testing.T) {
	var got geo.Point
	idx := &mockIndex{formatGeoFn: func(p geo.Point) string {
		got = p
		return "Rathaus, Köln"
	}}

	req := httptest.NewRequest("GET", "/search/format_geo/50.9375,-6.9603/", http.NoBody)
	rr := httptest.NewRecorder()
	newTestServer(idx).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if want := (geo.Point{Lat: 50.9375, Lng: -6.9603}); got != want {
		t.Errorf("coordinates: got %v, want %v", got, want)
	}
	var body FormatGeoResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Formatted != "Rathaus, Köln" {
		t.Errorf("formatted: got %q", body.Formatted)
	}
}

func TestFormatGeo_InvalidCoordinates_400(t *testing.T) {
	idx := &mockIndex{formatGeoFn: func(geo.Point) string { return "" }}

	for _, path := range []string{"/search/format_geo/north,east/", "/search/format_geo/95,6.96/"} {
		rr := httptest.NewRecorder()
		newTestServer(idx).ServeHTTP(rr, httptest.NewRequest("GET", path, http.NoBody))

		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want %d", path, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestServer(&mockIndex{}, "secret").ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Errorf("body: %s", rr.Body.String())
	}
}

func TestHealthCheck_NotLoaded(t *testing.T) {
	rr := httptest.NewRecorder()
	idx := &mockIndex{pingErr: devindex.ErrNotLoaded}
	newTestServer(idx).ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	if !strings.Contains(rr.Body.String(), `"index":{"ok":false,"error":"devindex: no fixtures loaded"}`) {
		t.Errorf("body: %s", rr.Body.String())
	}
}

func TestFilterItems(t *testing.T) {
	idx := &mockIndex{items: map[string][]facet.Item{
		query.KeyPerson: {{ID: "17", Name: "Jane Doe"}},
	}}

	rr := httptest.NewRecorder()
	newTestServer(idx).ServeHTTP(rr, httptest.NewRequest("GET", "/search/filter_items/person/", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var body FilterItemsResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Key != query.KeyPerson || len(body.Items) != 1 || body.Items[0].ID != "17" {
		t.Errorf("body: %+v", body)
	}

	rr = httptest.NewRecorder()
	newTestServer(idx).ServeHTTP(rr, httptest.NewRequest("GET", "/search/filter_items/organization/", http.NoBody))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"items":[]`) {
		t.Errorf("empty list: %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	newTestServer(idx).ServeHTTP(rr, httptest.NewRequest("GET", "/search/filter_items/sort/", http.NoBody))
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown key: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
