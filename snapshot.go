package facetsearch

import (
	"context"
	"time"

	"github.com/kailas-cloud/facetsearch/internal/domain/query"
)

// LocationState is the applied location filter.
type LocationState struct {
	Lat    string
	Lng    string
	Radius int
	// Description is the reverse-geocoded label, empty while resolving.
	Description string
}

// Snapshot is a consistent view of the session state.
type Snapshot struct {
	// Query is the encoded form state; Current is the query of the last
	// search trigger. They differ only while a change has not been searched.
	Query      string
	Current    string
	SearchTerm string
	URL        string

	Sort          string
	DocumentTypes []string
	After         string
	Before        string
	DateLabel     string
	Location      *LocationState
	Filters       map[string]string

	// TotalResults is the hit count of the last applied response.
	TotalResults int
	Rendered     int
	InFlight     int
	PagerActive  bool
	PagerEnded   bool
	// LastError is the error of the most recent failed search, cleared by
	// the next applied response.
	LastError error
}

// Snapshot returns the current session state.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, "snapshot", func() error {
		snap = Snapshot{
			Query:         s.ctrl.QueryString(),
			Current:       s.ctrl.Current(),
			SearchTerm:    s.ctrl.SearchTerm(),
			URL:           s.loc.URL(),
			Sort:          s.sorter.Value(),
			DocumentTypes: s.docTypes.Selected(),
			After:         s.dates.After(),
			Before:        s.dates.Before(),
			DateLabel:     s.dates.Label(time.Now()),
			Filters:       make(map[string]string, len(s.filters)),
			TotalResults:  s.total,
			Rendered:      s.pager.Rendered(),
			InFlight:      s.ctrl.InFlight(),
			PagerActive:   s.pager.Active(),
			PagerEnded:    s.pager.Ended(),
			LastError:     s.lastErr,
		}
		if s.location.Radius() > 0 {
			desc, _ := s.location.Description()
			snap.Location = &LocationState{
				Lat:         s.location.Lat(),
				Lng:         s.location.Lng(),
				Radius:      s.location.Radius(),
				Description: desc,
			}
		}
		for _, key := range []string{query.KeyPerson, query.KeyOrganization} {
			if v := s.filters[key].Value(); v != "" {
				snap.Filters[key] = v
			}
		}
		return nil
	})
	return snap, err
}
