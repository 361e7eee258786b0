// Package facetsearch is a client for faceted full-text search.
//
// A Session holds the facet state of one search form (sort order, document
// types, date range, location, person and organization filters) and the
// free text of its search box. Every change encodes the form into a query
// string such as
//
//	sort:date_newest after:2020-01-01 document-type:file,paper budget
//
// and asks the results endpoint for it. Requests may overlap; only the
// response whose query still matches the form is shown. Applied queries are
// recorded as canonical URLs, and navigating back to such a URL restores
// the form and searches again.
//
// All Session methods are safe for concurrent use. They are serialized on
// a single goroutine that owns the form state.
package facetsearch
