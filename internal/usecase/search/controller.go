// Package search keeps the visible results in sync with the facet state.
//
// The controller is not safe for concurrent use. All methods, and every
// continuation scheduled through its Scheduler, must run on one goroutine.
package search

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/domain"
	"github.com/kailas-cloud/facetsearch/internal/domain/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/fragment"
	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	"github.com/kailas-cloud/facetsearch/internal/domain/response"
	"github.com/kailas-cloud/facetsearch/internal/eventloop"
	"github.com/kailas-cloud/facetsearch/internal/metrics"
)

// Event is a form event that may trigger a search.
type Event string

// Form events understood by HandleEvent.
const (
	EventChange Event = "change"
	EventKeyUp  Event = "keyup"
	EventSubmit Event = "submit"
)

// Outcome tells what a search trigger did.
type Outcome string

// Search outcomes.
const (
	OutcomeIssued    Outcome = "issued"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeEmpty     Outcome = "empty"
	OutcomeIgnored   Outcome = "ignored"
)

// Disposition tells what happened to a response when it arrived.
type Disposition string

// Response dispositions.
const (
	DispositionApplied Disposition = "applied"
	DispositionStale   Disposition = "stale"
	DispositionError   Disposition = "error"
)

// Settlement describes a finished request.
type Settlement struct {
	RequestID   string
	Query       string
	Disposition Disposition
	Response    *response.Response
	Err         error
}

// Controller aggregates the facets into a query string, issues a request
// whenever it changes and applies only the response matching the current state.
type Controller struct {
	facets  []facet.Facet
	term    string
	current string
	// searched is false until the first trigger, so a first empty query
	// reports OutcomeEmpty rather than matching the zero current.
	searched bool

	fetcher Fetcher
	view    View
	pager   Pager
	history HistoryPusher
	sched   eventloop.Scheduler
	logger  *zap.Logger

	inFlight int
	settled  []func(Settlement)
}

// New creates a controller. Facets are encoded in the given order.
func New(
	fetcher Fetcher, view View, pager Pager,
	sched eventloop.Scheduler, facets []facet.Facet, logger *zap.Logger,
) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		facets:  facets,
		fetcher: fetcher,
		view:    view,
		pager:   pager,
		sched:   sched,
		logger:  logger,
	}
}

// SetHistory attaches the URL synchronizer.
func (c *Controller) SetHistory(h HistoryPusher) { c.history = h }

// OnSettle registers fn to be called on the loop for every finished request.
func (c *Controller) OnSettle(fn func(Settlement)) {
	c.settled = append(c.settled, fn)
}

// Facets returns the registered facets in encoding order.
func (c *Controller) Facets() []facet.Facet { return c.facets }

// SearchTerm returns the free text of the search box.
func (c *Controller) SearchTerm() string { return c.term }

// SetSearchTerm replaces the free text of the search box.
func (c *Controller) SetSearchTerm(term string) { c.term = term }

// Current returns the query string of the last search trigger.
func (c *Controller) Current() string { return c.current }

// InFlight returns the number of requests whose response has not arrived yet.
func (c *Controller) InFlight() int { return c.inFlight }

// QueryString encodes the current facet state and search term.
func (c *Controller) QueryString() string {
	return query.EncodeFacets(c.facets, c.term)
}

// HandleEvent runs a search for change, keyup and submit events.
func (c *Controller) HandleEvent(ctx context.Context, ev Event) Outcome {
	switch ev {
	case EventChange, EventKeyUp, EventSubmit:
		return c.Search(ctx)
	default:
		return OutcomeIgnored
	}
}

// Search issues a request when the query string differs from the last one.
func (c *Controller) Search(ctx context.Context) Outcome {
	qs := c.QueryString()
	if c.searched && qs == c.current {
		metrics.SearchOutcomesTotal.WithLabelValues(string(OutcomeDuplicate)).Inc()
		return OutcomeDuplicate
	}
	c.current = qs
	c.searched = true
	return c.searchDo(ctx)
}

// Apply restores the search term and every facet from a decoded query and
// searches for it.
func (c *Controller) Apply(ctx context.Context, params query.Params, freeText string) Outcome {
	c.term = freeText
	for _, f := range c.facets {
		f.SetFromQueryString(params)
	}
	c.current = c.QueryString()
	c.searched = true
	return c.searchDo(ctx)
}

func (c *Controller) searchDo(ctx context.Context) Outcome {
	qs := c.current
	if qs == "" {
		metrics.SearchOutcomesTotal.WithLabelValues(string(OutcomeEmpty)).Inc()
		return OutcomeEmpty
	}

	c.view.ShowLoading()
	c.inFlight++

	reqID := uuid.NewString()
	log := c.logger.With(zap.String("request_id", reqID), zap.String("query", qs))
	log.Debug("Search issued")
	metrics.SearchOutcomesTotal.WithLabelValues(string(OutcomeIssued)).Inc()

	fetcher := c.fetcher
	start := time.Now()
	c.sched.Go(func() func() {
		resp, err := fetcher.Search(ctx, qs)
		return func() {
			metrics.SearchDuration.Observe(time.Since(start).Seconds())
			c.inFlight--
			s := c.receive(log, qs, resp, err)
			s.RequestID = reqID
			for _, fn := range c.settled {
				fn(s)
			}
		}
	})
	return OutcomeIssued
}

func (c *Controller) receive(log *zap.Logger, qs string, resp *response.Response, err error) Settlement {
	if err == nil && resp == nil {
		err = domain.ErrInvalidResponse
	}
	s := Settlement{Query: qs, Response: resp, Err: err}

	if now := c.QueryString(); now != qs {
		log.Debug("Discarding stale response", zap.String("current", now), zap.NamedError("discarded_error", err))
		metrics.SearchResponsesTotal.WithLabelValues(string(DispositionStale)).Inc()
		s.Disposition = DispositionStale
		return s
	}

	if err != nil {
		log.Error("Search request failed", zap.Error(err))
		metrics.SearchResponsesTotal.WithLabelValues(string(DispositionError)).Inc()
		s.Disposition = DispositionError
		return s
	}

	items, err := fragment.Items(resp.Results)
	if err != nil {
		log.Warn("Unreadable results fragment", zap.Error(err))
	}
	c.view.RenderResults(items)
	for _, f := range c.facets {
		f.Update(resp)
	}
	c.pager.Reset(resp.MoreLink, resp.TotalResults, len(items))
	c.view.RenderSubscribe(resp.SubscribeWidget)

	canonical := resp.Query
	if canonical == "" {
		canonical = qs
	}
	if c.history != nil {
		c.history.Push(canonical)
	}
	c.view.HideLoading()

	log.Info("Search applied",
		zap.Int("total_results", resp.TotalResults),
		zap.Int("rendered", len(items)))
	metrics.SearchResponsesTotal.WithLabelValues(string(DispositionApplied)).Inc()
	s.Disposition = DispositionApplied
	return s
}
