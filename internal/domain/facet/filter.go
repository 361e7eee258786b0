package facet

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	"github.com/kailas-cloud/facetsearch/internal/domain/response"
)

// Item is one selectable entry of a filter list.
type Item struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Filter is a single-value "key:id" facet backed by a searchable list
// (persons, organizations).
type Filter struct {
	key      string
	items    []Item
	value    string
	counts   map[string]int
	visible  map[string]bool
	disabled bool
}

// NewFilter creates a filter for a whitelisted key. Items are kept sorted by name.
func NewFilter(key string, items []Item) (*Filter, error) {
	if !query.IsKey(key) {
		return nil, fmt.Errorf("filter key %q is not a query key", key)
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Item) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return &Filter{
		key:     key,
		items:   sorted,
		counts:  make(map[string]int),
		visible: make(map[string]bool),
	}, nil
}

// Key returns the query key of the filter.
func (f *Filter) Key() string { return f.key }

// Items returns the list sorted by name.
func (f *Filter) Items() []Item { return slices.Clone(f.items) }

// Value returns the selected id, or "".
func (f *Filter) Value() string { return f.value }

// Select picks an item id.
func (f *Filter) Select(id string) { f.value = id }

// Clear removes the selection.
func (f *Filter) Clear() { f.value = "" }

// Selection returns the selected item, when it is part of the list.
func (f *Filter) Selection() (Item, bool) {
	if f.value == "" {
		return Item{}, false
	}
	for _, it := range f.items {
		if it.ID == f.value {
			return it, true
		}
	}
	return Item{}, false
}

// Matching returns the items whose name contains text, ignoring case.
func (f *Filter) Matching(text string) []Item {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return f.Items()
	}
	var out []Item
	for _, it := range f.items {
		if strings.Contains(strings.ToLower(it.Name), text) {
			out = append(out, it)
		}
	}
	return out
}

// Count returns the bucket count of an item from the last response.
func (f *Filter) Count(id string) int { return f.counts[id] }

// Visible reports whether the last response had hits for the item.
func (f *Filter) Visible(id string) bool { return f.visible[id] }

// Disabled reports whether the widget should be greyed out.
func (f *Filter) Disabled() bool { return f.disabled }

// QueryString implements Facet.
func (f *Filter) QueryString() string {
	if f.value == "" {
		return ""
	}
	return query.Token(f.key, f.value)
}

// SetFromQueryString implements Facet.
func (f *Filter) SetFromQueryString(params query.Params) {
	f.value = params.Get(f.key)
}

// Update implements Facet. Only items present in the response bucket stay
// visible; an empty bucket list disables the widget unless something is selected.
func (f *Filter) Update(resp *response.Response) {
	f.disabled = false
	clear(f.visible)
	clear(f.counts)

	buckets, _ := resp.Buckets(f.key)
	if len(buckets) == 0 {
		if f.value == "" {
			f.disabled = true
		}
		return
	}
	for _, b := range buckets {
		f.counts[b.ID] = b.Count
		f.visible[b.ID] = true
	}
}

func (f *Filter) sealed() {}
