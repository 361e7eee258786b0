package response

import (
	"encoding/json"
	"fmt"
)

// Bucket facet names used by the results endpoint.
const (
	FacetDocumentType = "document_type"
	FacetPerson       = "person"
	FacetOrganization = "organization"
)

// Bucket is one facet value with its hit count.
// On the wire a bucket is a two-element array: [id, count].
type Bucket struct {
	ID    string
	Count int
}

// UnmarshalJSON decodes the [id, count] pair. The id may be a string or a number.
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("bucket: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("bucket: expected [id, count], got %d elements", len(pair))
	}

	var id any
	if err := json.Unmarshal(pair[0], &id); err != nil {
		return fmt.Errorf("bucket id: %w", err)
	}
	switch v := id.(type) {
	case string:
		b.ID = v
	case float64:
		b.ID = fmt.Sprintf("%v", v)
	default:
		return fmt.Errorf("bucket id: unsupported type %T", id)
	}

	if err := json.Unmarshal(pair[1], &b.Count); err != nil {
		return fmt.Errorf("bucket count: %w", err)
	}
	return nil
}

// MarshalJSON encodes the bucket as [id, count].
func (b Bucket) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{b.ID, b.Count})
}

// Response is the payload of the results endpoint.
type Response struct {
	Results         string              `json:"results"`
	TotalResults    int                 `json:"total_results"`
	Query           string              `json:"query"`
	MoreLink        string              `json:"more_link"`
	SubscribeWidget string              `json:"subscribe_widget"`
	Facets          map[string][]Bucket `json:"facets,omitempty"`
	NewFacets       map[string][]Bucket `json:"new_facets,omitempty"`
}

// Buckets returns the buckets for a facet. new_facets wins over facets.
// ok is false when the facet is absent from the payload.
func (r *Response) Buckets(name string) (buckets []Bucket, ok bool) {
	if r == nil {
		return nil, false
	}
	if b, found := r.NewFacets[name]; found {
		return b, true
	}
	b, found := r.Facets[name]
	return b, found
}
