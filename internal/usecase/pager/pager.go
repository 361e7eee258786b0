// Package pager implements endless scrolling over a result set.
package pager

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/domain/fragment"
	"github.com/kailas-cloud/facetsearch/internal/domain/response"
	"github.com/kailas-cloud/facetsearch/internal/eventloop"
	"github.com/kailas-cloud/facetsearch/internal/metrics"
)

// DefaultThreshold is the distance from the document bottom, in pixels,
// at which the next page is requested.
const DefaultThreshold = 500

// Pager appends further pages of the current result set while the user
// scrolls. It is owned by the same goroutine as the search controller.
type Pager struct {
	fetcher   PageFetcher
	view      View
	viewport  Viewport
	sched     eventloop.Scheduler
	threshold int
	logger    *zap.Logger

	moreLink string
	total    int
	rendered int

	active     bool
	loading    bool
	ended      bool
	generation uint64
}

// New creates a pager. A nil viewport counts as always scrolled to the bottom.
func New(
	fetcher PageFetcher, view View, viewport Viewport,
	sched eventloop.Scheduler, threshold int, logger *zap.Logger,
) *Pager {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pager{
		fetcher:   fetcher,
		view:      view,
		viewport:  viewport,
		sched:     sched,
		threshold: threshold,
		logger:    logger,
	}
}

// Active reports whether endless scrolling was started.
func (p *Pager) Active() bool { return p.active }

// Loading reports whether a page is in flight.
func (p *Pager) Loading() bool { return p.loading }

// Ended reports whether an empty page was received.
func (p *Pager) Ended() bool { return p.ended }

// Rendered returns the number of result items on screen.
func (p *Pager) Rendered() int { return p.rendered }

// Total returns the hit count of the current result set.
func (p *Pager) Total() int { return p.total }

// Reset starts over for a new result set. Pages still in flight for the
// previous set are dropped when they arrive.
func (p *Pager) Reset(moreLink string, total, rendered int) {
	p.moreLink = moreLink
	p.total = total
	p.rendered = rendered
	p.active = false
	p.loading = false
	p.ended = false
	p.generation++

	switch {
	case total == 0:
		p.view.ShowNothingFound()
	case rendered >= total || moreLink == "":
		p.view.HideLoadMore()
	default:
		p.view.ShowLoadMore(total - rendered)
	}
}

// Start switches to endless scrolling, as a click on "load more" does,
// and loads the next page when the viewport is close to the bottom.
func (p *Pager) Start(ctx context.Context) bool {
	p.active = true
	p.view.HideLoadMore()
	return p.CheckAndLoad(ctx)
}

// CheckAndLoad requests the next page when scrolling is active, idle, not
// exhausted and the viewport is within the threshold of the document bottom.
// It reports whether a request was issued.
func (p *Pager) CheckAndLoad(ctx context.Context) bool {
	if !p.active || p.loading || p.ended || p.moreLink == "" {
		return false
	}
	if !p.nearBottom() {
		return false
	}

	p.loading = true
	gen := p.generation
	link, after := p.moreLink, p.rendered
	fetcher := p.fetcher
	log := p.logger.With(zap.String("more_link", link), zap.Int("after", after))

	p.sched.Go(func() func() {
		resp, err := fetcher.More(ctx, link, after)
		return func() { p.receive(log, gen, resp, err) }
	})
	return true
}

func (p *Pager) receive(log *zap.Logger, gen uint64, resp *response.Response, err error) {
	if gen != p.generation {
		log.Debug("Discarding page of a replaced result set")
		metrics.PagerPagesTotal.WithLabelValues("stale").Inc()
		return
	}
	p.loading = false

	if err != nil {
		log.Error("Loading more results failed", zap.Error(err))
		metrics.PagerPagesTotal.WithLabelValues("error").Inc()
		return
	}

	var items []string
	if resp != nil {
		items, err = fragment.Items(resp.Results)
		if err != nil {
			log.Warn("Unreadable results fragment", zap.Error(err))
		}
	}
	if len(items) == 0 {
		p.ended = true
		metrics.PagerPagesTotal.WithLabelValues("ended").Inc()
		return
	}

	p.view.AppendResults(items)
	p.rendered += len(items)
	metrics.PagerPagesTotal.WithLabelValues("appended").Inc()
	log.Debug("Page appended", zap.Int("items", len(items)), zap.Int("rendered", p.rendered))
}

func (p *Pager) nearBottom() bool {
	if p.viewport == nil {
		return true
	}
	bottom := p.viewport.DocumentHeight() - p.viewport.WindowHeight() - p.threshold
	return p.viewport.ScrollTop() >= bottom
}
