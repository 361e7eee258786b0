package response

import (
	"encoding/json"
	"testing"
)

func TestUnmarshal(t *testing.T) {
	raw := `{
		"results": "<ul><li>a</li></ul>",
		"total_results": 12,
		"query": "sort:date_newest budget",
		"more_link": "/search/results_only/sort:date_newest%20budget/",
		"subscribe_widget": "<div>subscribe</div>",
		"facets": {"person": [["3", 4], [17, 1]], "organization": []}
	}`

	var r Response
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.TotalResults != 12 {
		t.Errorf("total = %d, want 12", r.TotalResults)
	}
	persons, ok := r.Buckets(FacetPerson)
	if !ok || len(persons) != 2 {
		t.Fatalf("person buckets = %v, ok=%v", persons, ok)
	}
	if persons[0].ID != "3" || persons[0].Count != 4 {
		t.Errorf("bucket[0] = %+v", persons[0])
	}
	if persons[1].ID != "17" || persons[1].Count != 1 {
		t.Errorf("numeric id not normalized: %+v", persons[1])
	}
	orgs, ok := r.Buckets(FacetOrganization)
	if !ok || len(orgs) != 0 {
		t.Errorf("organization buckets = %v, ok=%v", orgs, ok)
	}
	if _, ok := r.Buckets("missing"); ok {
		t.Error("absent facet reported present")
	}
}

func TestBuckets_NewFacetsWin(t *testing.T) {
	r := &Response{
		Facets:    map[string][]Bucket{FacetPerson: {{ID: "1", Count: 1}}},
		NewFacets: map[string][]Bucket{FacetPerson: {{ID: "2", Count: 9}}},
	}
	b, _ := r.Buckets(FacetPerson)
	if len(b) != 1 || b[0].ID != "2" {
		t.Errorf("expected new_facets bucket, got %v", b)
	}

	var nilResp *Response
	if _, ok := nilResp.Buckets(FacetPerson); ok {
		t.Error("nil response must have no buckets")
	}
}

func TestBucket_InvalidShape(t *testing.T) {
	var b Bucket
	if err := json.Unmarshal([]byte(`["only-id"]`), &b); err == nil {
		t.Error("expected error for single-element bucket")
	}
	if err := json.Unmarshal([]byte(`[true, 1]`), &b); err == nil {
		t.Error("expected error for boolean id")
	}
}

func TestBucket_MarshalRoundTrip(t *testing.T) {
	data, err := json.Marshal(Bucket{ID: "paper", Count: 3})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["paper",3]` {
		t.Errorf("marshal = %s", data)
	}
}
