// Package facet holds the filter dimensions of a search form.
//
// Every variant turns its state into query tokens, restores itself from a
// decoded query and refreshes its presentation from a results payload.
// The set of variants is closed: Sorter, DocumentTypes, DateRange, Location
// and Filter.
package facet

import (
	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	"github.com/kailas-cloud/facetsearch/internal/domain/response"
)

// Facet is one independently encodable filter dimension.
type Facet interface {
	// QueryString returns zero or more "key:value " tokens.
	// It returns "" while the facet is at its default state.
	QueryString() string

	// SetFromQueryString applies matching keys and resets to the default
	// when they are absent. Calling it twice with the same params is a no-op.
	SetFromQueryString(params query.Params)

	// Update refreshes presentation (counts, enabled buckets) from a response.
	// It never changes what is selected.
	Update(resp *response.Response)

	sealed()
}
