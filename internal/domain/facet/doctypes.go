package facet

import (
	"slices"
	"strings"

	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	"github.com/kailas-cloud/facetsearch/internal/domain/response"
)

// DefaultDocumentTypes are the document kinds of the transparency portal.
var DefaultDocumentTypes = []string{"file", "meeting", "paper", "organization", "person"}

// DocumentTypes is a multi-select over document kinds.
type DocumentTypes struct {
	options  []string
	selected map[string]struct{}
	counts   map[string]int
}

// NewDocumentTypes creates the facet with the given options, nothing selected.
func NewDocumentTypes(options ...string) *DocumentTypes {
	if len(options) == 0 {
		options = DefaultDocumentTypes
	}
	return &DocumentTypes{
		options:  slices.Clone(options),
		selected: make(map[string]struct{}),
		counts:   make(map[string]int),
	}
}

// Options returns the offered document kinds.
func (d *DocumentTypes) Options() []string { return slices.Clone(d.options) }

// Set checks or unchecks a kind.
func (d *DocumentTypes) Set(kind string, checked bool) {
	if kind == "" {
		return
	}
	if checked {
		d.selected[kind] = struct{}{}
	} else {
		delete(d.selected, kind)
	}
}

// Toggle flips a kind.
func (d *DocumentTypes) Toggle(kind string) {
	d.Set(kind, !d.IsSelected(kind))
}

// IsSelected reports whether kind is checked.
func (d *DocumentTypes) IsSelected(kind string) bool {
	_, ok := d.selected[kind]
	return ok
}

// Selected returns the checked kinds in ascending order.
func (d *DocumentTypes) Selected() []string {
	out := make([]string, 0, len(d.selected))
	for k := range d.selected {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Count returns the hit count of a kind from the last applied response.
func (d *DocumentTypes) Count(kind string) int { return d.counts[kind] }

// QueryString implements Facet.
func (d *DocumentTypes) QueryString() string {
	if len(d.selected) == 0 {
		return ""
	}
	return query.Token(query.KeyDocumentType, strings.Join(d.Selected(), ","))
}

// SetFromQueryString implements Facet.
func (d *DocumentTypes) SetFromQueryString(params query.Params) {
	clear(d.selected)
	if !params.Has(query.KeyDocumentType) {
		return
	}
	for _, kind := range strings.Split(params.Get(query.KeyDocumentType), ",") {
		d.Set(kind, true)
	}
}

// Update implements Facet.
func (d *DocumentTypes) Update(resp *response.Response) {
	buckets, ok := resp.Buckets(response.FacetDocumentType)
	if !ok {
		return
	}
	clear(d.counts)
	for _, b := range buckets {
		d.counts[b.ID] = b.Count
	}
}

func (d *DocumentTypes) sealed() {}
