// Package history mirrors the applied query into the address bar and
// restores the search state on back/forward navigation.
package history

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	"github.com/kailas-cloud/facetsearch/internal/usecase/search"
)

// Sync keeps the URL and the controller state in step.
type Sync struct {
	actionPath string
	loc        Location
	nav        Navigator
	logger     *zap.Logger
}

// New creates a history synchronizer for the search form at actionPath.
func New(actionPath string, loc Location, nav Navigator, logger *zap.Logger) *Sync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sync{
		actionPath: actionPath,
		loc:        loc,
		nav:        nav,
		logger:     logger,
	}
}

// Push records the canonical URL of an applied query. A query already
// shown in the address bar, as after a back navigation, is not pushed again.
func (s *Sync) Push(q string) {
	if cur, ok := QueryFromURL(s.actionPath, s.loc.URL()); ok && cur == q {
		return
	}
	s.loc.PushState(URLFor(s.actionPath, q))
}

// OnNavigate handles a popstate or hashchange. It applies the query found in
// the URL when it differs from the controller's current one.
func (s *Sync) OnNavigate(ctx context.Context) search.Outcome {
	raw := s.loc.URL()
	q, ok := QueryFromURL(s.actionPath, raw)
	if !ok {
		s.logger.Debug("Navigation outside the search form", zap.String("url", raw))
		return search.OutcomeIgnored
	}
	if q == s.nav.Current() {
		return search.OutcomeDuplicate
	}
	dec := query.Decode(q)
	return s.nav.Apply(ctx, dec.Params, dec.FreeText)
}

// URLFor returns the canonical URL of q. actionPath is the form action of
// the empty query; its trailing slash is replaced by q.
func URLFor(actionPath, q string) string {
	return strings.TrimSuffix(actionPath, "/") + url.PathEscape(q) + "/"
}

// QueryFromURL extracts the query string from a canonical URL. ok is false
// when the URL is not below actionPath.
func QueryFromURL(actionPath, raw string) (string, bool) {
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		raw = u.EscapedPath()
	}
	unescaped, err := url.PathUnescape(raw)
	if err != nil {
		return "", false
	}

	_, rest, found := strings.Cut(unescaped, strings.TrimSuffix(actionPath, "/"))
	if !found {
		return "", false
	}
	return strings.TrimSuffix(rest, "/"), true
}
