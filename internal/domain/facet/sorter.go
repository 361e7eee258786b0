package facet

import (
	"slices"

	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	"github.com/kailas-cloud/facetsearch/internal/domain/response"
)

// Sort orders understood by the results endpoint.
const (
	SortRelevance  = "relevance"
	SortDateNewest = "date_newest"
	SortDateOldest = "date_oldest"
)

// Sorter selects the result order. The default order is never encoded.
type Sorter struct {
	def     string
	options []string
	value   string
}

// NewSorter creates a sorter starting at def. Options lists the orders a view
// offers; def is always part of them.
func NewSorter(def string, options ...string) *Sorter {
	if !slices.Contains(options, def) {
		options = append([]string{def}, options...)
	}
	return &Sorter{def: def, options: options, value: def}
}

// Default returns the default order.
func (s *Sorter) Default() string { return s.def }

// Options returns the orders offered by the widget.
func (s *Sorter) Options() []string { return slices.Clone(s.options) }

// Value returns the selected order.
func (s *Sorter) Value() string { return s.value }

// Set selects an order. An empty value means the default.
func (s *Sorter) Set(v string) {
	if v == "" {
		v = s.def
	}
	s.value = v
}

// QueryString implements Facet.
func (s *Sorter) QueryString() string {
	if s.value == "" || s.value == s.def {
		return ""
	}
	return query.Token(query.KeySort, s.value)
}

// SetFromQueryString implements Facet.
func (s *Sorter) SetFromQueryString(params query.Params) {
	s.Set(params.Get(query.KeySort))
}

// Update implements Facet. The sorter has nothing to refresh.
func (s *Sorter) Update(*response.Response) {}

func (s *Sorter) sealed() {}
