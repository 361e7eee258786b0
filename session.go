package facetsearch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/facetsearch/internal/db/redis"
	"github.com/kailas-cloud/facetsearch/internal/domain"
	"github.com/kailas-cloud/facetsearch/internal/domain/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/geo"
	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	"github.com/kailas-cloud/facetsearch/internal/eventloop"
	"github.com/kailas-cloud/facetsearch/internal/metrics"
	"github.com/kailas-cloud/facetsearch/internal/repository/geocache"
	"github.com/kailas-cloud/facetsearch/internal/transport/backend"
	"github.com/kailas-cloud/facetsearch/internal/usecase/history"
	"github.com/kailas-cloud/facetsearch/internal/usecase/pager"
	"github.com/kailas-cloud/facetsearch/internal/usecase/search"
	"github.com/kailas-cloud/facetsearch/internal/view/terminal"
)

const (
	defaultResultsPath      = "/search/results_only/"
	defaultActionPath       = "/search/query//"
	defaultReadinessTimeout = 10 * time.Second
	waitPollInterval        = 5 * time.Millisecond
)

// Outcome tells what a search trigger did.
type Outcome = search.Outcome

// Search outcomes.
const (
	OutcomeIssued    = search.OutcomeIssued
	OutcomeDuplicate = search.OutcomeDuplicate
	OutcomeEmpty     = search.OutcomeEmpty
	OutcomeIgnored   = search.OutcomeIgnored
)

// View renders results, the loading indicator and the load-more control.
type View interface {
	ShowLoading()
	HideLoading()
	RenderResults(items []string)
	RenderSubscribe(widget string)
	AppendResults(items []string)
	ShowLoadMore(remaining int)
	ShowNothingFound()
	HideLoadMore()
}

// Location is the address bar and history stack.
type Location interface {
	URL() string
	PushState(url string)
}

// Viewport reports the scroll geometry in pixels.
type Viewport interface {
	ScrollTop() int
	DocumentHeight() int
	WindowHeight() int
}

// Session is one search form bound to a results backend.
type Session struct {
	loop    *eventloop.Loop
	runCtx  context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once

	ctrl  *search.Controller
	hist  *history.Sync
	pager *pager.Pager
	loc   Location

	sorter   *facet.Sorter
	docTypes *facet.DocumentTypes
	dates    *facet.DateRange
	location *facet.Location
	filters  map[string]*facet.Filter

	// Owned by the loop.
	total   int
	lastErr error

	cache *dbRedis.Store
	obs   *observer
}

// New creates a Session and starts its event loop.
// The provided context is used for the geocode cache readiness check.
func New(ctx context.Context, opts ...Option) (*Session, error) {
	cfg := &sessionConfig{
		resultsPath: defaultResultsPath,
		actionPath:  defaultActionPath,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.baseURL == "" {
		return nil, fmt.Errorf("facetsearch: backend required (use WithBackend): %w", domain.ErrInvalidConfig)
	}

	zlog := cfg.zapLogger
	if zlog == nil {
		zlog = zap.NewNop()
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	client, err := backend.NewClient(&backend.Config{
		BaseURL:      cfg.baseURL,
		ResultsPath:  cfg.resultsPath,
		FormatGeoURL: cfg.formatGeoURL,
		APIKey:       cfg.apiKey,
		Timeout:      cfg.timeout,
		HTTPClient:   cfg.httpClient,
		Logger:       zlog.Named("backend"),
	})
	if err != nil {
		return nil, fmt.Errorf("facetsearch: %w", err)
	}

	var geocoder facet.Geocoder
	if cfg.formatGeoURL != "" {
		geocoder = client
	}
	var cache *dbRedis.Store
	if gc := cfg.geocodeCache; len(gc.Addrs) > 0 && geocoder != nil {
		cache, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:          gc.Addrs,
			Password:       gc.Password,
			ClientCacheTTL: gc.ClientCacheTTL,
			WriteTimeout:   cfg.timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("facetsearch: create geocode cache: %w", err)
		}
		readiness := gc.ReadinessTimeout
		if readiness <= 0 {
			readiness = defaultReadinessTimeout
		}
		if err := cache.WaitForReady(ctx, readiness); err != nil {
			cache.Close()
			return nil, fmt.Errorf("facetsearch: geocode cache not ready: %w", err)
		}
		geocoder = geocache.New(geocoder, cache, gc.TTL, metrics.GeocodeCacheTotal, zlog.Named("geocache"))
	}

	s := wireSession(cfg, client, geocoder, zlog)
	s.cache = cache
	s.obs = obs
	return s, nil
}

func wireSession(cfg *sessionConfig, client *backend.Client, geocoder facet.Geocoder, zlog *zap.Logger) *Session {
	runCtx, cancel := context.WithCancel(context.Background())
	loop := eventloop.New(0)

	view := cfg.view
	if view == nil {
		view = nopView{}
	}
	loc := cfg.location
	if loc == nil {
		loc = terminal.NewAddress(cfg.actionPath)
	}
	var viewport pager.Viewport
	if cfg.viewport != nil {
		viewport = cfg.viewport
	}

	f := cfg.facets
	sortDefault := f.SortDefault
	if sortDefault == "" {
		sortDefault = facet.SortRelevance
	}
	sortOptions := f.SortOptions
	if len(sortOptions) == 0 {
		sortOptions = []string{facet.SortRelevance, facet.SortDateNewest, facet.SortDateOldest}
	}

	s := &Session{
		loop:     loop,
		runCtx:   runCtx,
		cancel:   cancel,
		stopped:  make(chan struct{}),
		loc:      loc,
		sorter:   facet.NewSorter(sortDefault, sortOptions...),
		docTypes: facet.NewDocumentTypes(f.DocumentTypes...),
		dates:    facet.NewDateRange(f.DatePresets),
		location: facet.NewLocation(facet.LocationConfig{
			Ctx:           runCtx,
			Geocoder:      geocoder,
			Scheduler:     loop,
			DefaultRadius: f.DefaultRadius,
			Logger:        zlog.Named("location"),
		}),
		filters: make(map[string]*facet.Filter, 2),
	}
	// Keys are whitelisted constants, NewFilter cannot fail here.
	persons, _ := facet.NewFilter(query.KeyPerson, f.Persons)
	orgs, _ := facet.NewFilter(query.KeyOrganization, f.Organizations)
	s.filters[query.KeyPerson] = persons
	s.filters[query.KeyOrganization] = orgs

	facets := []facet.Facet{s.sorter, s.location, s.dates, s.docTypes, persons, orgs}

	s.pager = pager.New(client, view, viewport, loop, cfg.threshold, zlog.Named("pager"))
	s.ctrl = search.New(client, view, s.pager, loop, facets, zlog.Named("search"))
	s.hist = history.New(cfg.actionPath, loc, s.ctrl, zlog.Named("history"))
	s.ctrl.SetHistory(s.hist)
	s.ctrl.OnSettle(func(st search.Settlement) {
		switch st.Disposition {
		case search.DispositionApplied:
			s.total = st.Response.TotalResults
			s.lastErr = nil
		case search.DispositionError:
			s.lastErr = st.Err
		}
	})

	go func() {
		defer close(s.stopped)
		_ = loop.Run(runCtx)
	}()
	return s
}

// Close stops the event loop and releases the geocode cache.
// Responses still in flight are dropped.
func (s *Session) Close() {
	s.once.Do(func() {
		s.cancel()
		<-s.stopped
		if s.cache != nil {
			s.cache.Close()
		}
	})
}

// SetSearchTerm replaces the free text and searches, as typing does.
func (s *Session) SetSearchTerm(ctx context.Context, term string) (Outcome, error) {
	return s.trigger(ctx, "set_search_term", search.EventKeyUp, func() error {
		s.ctrl.SetSearchTerm(term)
		return nil
	})
}

// SetSort selects a result order and searches.
func (s *Session) SetSort(ctx context.Context, order string) (Outcome, error) {
	return s.trigger(ctx, "set_sort", search.EventChange, func() error {
		if !slices.Contains(s.sorter.Options(), order) {
			return fmt.Errorf("sort order %q: %w", order, domain.ErrInvalidArgument)
		}
		s.sorter.Set(order)
		return nil
	})
}

// ToggleDocumentType flips the selection of a document kind and searches.
func (s *Session) ToggleDocumentType(ctx context.Context, kind string) (Outcome, error) {
	return s.trigger(ctx, "toggle_document_type", search.EventChange, func() error {
		if !slices.Contains(s.docTypes.Options(), kind) {
			return fmt.Errorf("document type %q: %w", kind, domain.ErrInvalidArgument)
		}
		s.docTypes.Toggle(kind)
		return nil
	})
}

// SetDateRange sets both bounds (YYYY-MM-DD, either may be empty) and searches.
func (s *Session) SetDateRange(ctx context.Context, after, before string) (Outcome, error) {
	return s.trigger(ctx, "set_date_range", search.EventChange, func() error {
		for _, v := range []string{after, before} {
			if v == "" {
				continue
			}
			if _, err := time.Parse(facet.DateLayout, v); err != nil {
				return fmt.Errorf("date %q: %w", v, domain.ErrInvalidArgument)
			}
		}
		s.dates.Set(after, before)
		return nil
	})
}

// SetLocation places the marker at a coordinate, applies radius meters and searches.
func (s *Session) SetLocation(ctx context.Context, lat, lng float64, radius int) (Outcome, error) {
	return s.trigger(ctx, "set_location", search.EventChange, func() error {
		p := geo.Point{Lat: lat, Lng: lng}
		if !p.Valid() || radius <= 0 {
			return fmt.Errorf("location %s radius %d: %w", p, radius, domain.ErrInvalidArgument)
		}
		s.location.Place(p)
		s.location.Apply(radius)
		return nil
	})
}

// DiscardLocation removes the location filter and searches.
func (s *Session) DiscardLocation(ctx context.Context) (Outcome, error) {
	return s.trigger(ctx, "discard_location", search.EventChange, func() error {
		s.location.Discard()
		return nil
	})
}

// SetFilter selects id in the person or organization filter and searches.
// An empty id clears the filter.
func (s *Session) SetFilter(ctx context.Context, key, id string) (Outcome, error) {
	return s.trigger(ctx, "set_filter", search.EventChange, func() error {
		f, ok := s.filters[key]
		if !ok {
			return fmt.Errorf("filter %q: %w", key, domain.ErrInvalidArgument)
		}
		if id == "" {
			f.Clear()
		} else {
			f.Select(id)
		}
		return nil
	})
}

// FilterItems returns the entries of a filter list whose name contains text.
func (s *Session) FilterItems(ctx context.Context, key, text string) ([]Item, error) {
	var items []Item
	err := s.do(ctx, "filter_items", func() error {
		f, ok := s.filters[key]
		if !ok {
			return fmt.Errorf("filter %q: %w", key, domain.ErrInvalidArgument)
		}
		items = f.Matching(text)
		return nil
	})
	return items, err
}

// Submit searches for the current form state, as submitting the form does.
func (s *Session) Submit(ctx context.Context) (Outcome, error) {
	return s.trigger(ctx, "submit", search.EventSubmit, func() error { return nil })
}

// Navigate moves the address bar to url and restores the form from it, as
// the browser's back and forward buttons do. An empty url re-reads the
// current address.
func (s *Session) Navigate(ctx context.Context, url string) (Outcome, error) {
	var out Outcome
	err := s.do(ctx, "navigate", func() error {
		if url != "" {
			if r, ok := s.loc.(interface{ Replace(string) }); ok {
				r.Replace(url)
			} else {
				s.loc.PushState(url)
			}
		}
		out = s.hist.OnNavigate(s.runCtx)
		return nil
	}, "url", url)
	return out, err
}

// Back steps the address bar back and restores the form from it. It
// reports OutcomeIgnored at the start of history or when the Location
// has no back stack.
func (s *Session) Back(ctx context.Context) (Outcome, error) {
	out := OutcomeIgnored
	err := s.do(ctx, "back", func() error {
		b, ok := s.loc.(interface{ Back() (string, bool) })
		if !ok {
			return nil
		}
		if _, moved := b.Back(); !moved {
			return nil
		}
		out = s.hist.OnNavigate(s.runCtx)
		return nil
	})
	return out, err
}

// LoadMore requests the next page of the current result set. The first
// call switches to endless scrolling. It reports whether a request was issued.
func (s *Session) LoadMore(ctx context.Context) (bool, error) {
	var issued bool
	err := s.do(ctx, "load_more", func() error {
		if s.pager.Active() {
			issued = s.pager.CheckAndLoad(s.runCtx)
		} else {
			issued = s.pager.Start(s.runCtx)
		}
		return nil
	})
	return issued, err
}

// QueryString returns the encoded form state.
func (s *Session) QueryString(ctx context.Context) (string, error) {
	var q string
	err := s.do(ctx, "query_string", func() error {
		q = s.ctrl.QueryString()
		return nil
	})
	return q, err
}

// Wait blocks until no search, page or location label request is in flight.
func (s *Session) Wait(ctx context.Context) error {
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()
	for {
		var idle bool
		if err := s.loop.Do(ctx, func() {
			idle = s.ctrl.InFlight() == 0 && !s.pager.Loading() && !s.location.Resolving()
		}); err != nil {
			return s.loopErr(err)
		}
		if idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Session) trigger(ctx context.Context, op string, ev search.Event, mutate func() error) (Outcome, error) {
	var out Outcome
	err := s.do(ctx, op, func() error {
		if err := mutate(); err != nil {
			return err
		}
		out = s.ctrl.HandleEvent(s.runCtx, ev)
		return nil
	})
	if err == nil {
		s.obs.outcome(op, out)
	}
	return out, err
}

func (s *Session) do(ctx context.Context, op string, fn func() error, attrs ...any) (err error) {
	start := time.Now()
	defer func() { s.obs.observe(op, start, err, attrs...) }()

	var inner error
	if err := s.loop.Do(ctx, func() { inner = fn() }); err != nil {
		return s.loopErr(err)
	}
	return inner
}

func (s *Session) loopErr(err error) error {
	if errors.Is(err, eventloop.ErrStopped) {
		return ErrClosed
	}
	return err
}

type nopView struct{}

func (nopView) ShowLoading()           {}
func (nopView) HideLoading()           {}
func (nopView) RenderResults([]string) {}
func (nopView) RenderSubscribe(string) {}
func (nopView) AppendResults([]string) {}
func (nopView) ShowLoadMore(int)       {}
func (nopView) ShowNothingFound()      {}
func (nopView) HideLoadMore()          {}
