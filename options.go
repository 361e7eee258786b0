package facetsearch

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/domain/facet"
)

// Item is one entry of a person or organization filter list.
type Item = facet.Item

// PresetNames are the display names of the named date ranges.
type PresetNames = facet.PresetNames

// Facets configures the facets of the search form.
type Facets struct {
	SortDefault   string   // default: relevance
	SortOptions   []string // default: relevance, date_newest, date_oldest
	DocumentTypes []string // default: file, meeting, paper, organization, person
	DatePresets   PresetNames
	DefaultRadius int // meters, default 500
	Persons       []Item
	Organizations []Item
}

// Option configures the Session.
type Option interface {
	apply(*sessionConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*sessionConfig)

func (f optionFunc) apply(c *sessionConfig) { f(c) }

type sessionConfig struct {
	baseURL      string
	resultsPath  string
	actionPath   string
	formatGeoURL string
	apiKey       string
	timeout      time.Duration
	httpClient   *http.Client

	facets    Facets
	threshold int

	view     View
	location Location
	viewport Viewport

	geocodeCache GeocodeCache

	logger     *slog.Logger
	zapLogger  *zap.Logger
	metricsReg prometheus.Registerer
}

// WithBackend sets the origin of the results endpoints, e.g. "https://example.org".
// Required.
func WithBackend(baseURL string) Option {
	return optionFunc(func(c *sessionConfig) {
		c.baseURL = baseURL
	})
}

// WithPaths overrides the results path (default "/search/results_only/"),
// the form action path of the empty query (default "/search/query//") and
// the reverse-geocode URL template with {lat} and {lng} placeholders.
// Empty arguments keep the default.
func WithPaths(resultsPath, actionPath, formatGeoURL string) Option {
	return optionFunc(func(c *sessionConfig) {
		if resultsPath != "" {
			c.resultsPath = resultsPath
		}
		if actionPath != "" {
			c.actionPath = actionPath
		}
		if formatGeoURL != "" {
			c.formatGeoURL = formatGeoURL
		}
	})
}

// WithAPIKey sends key as a Bearer token on every backend request.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *sessionConfig) {
		c.apiKey = key
	})
}

// WithTimeout bounds every backend request. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *sessionConfig) {
		c.timeout = d
	})
}

// WithHTTPClient sets the HTTP client used for backend requests.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *sessionConfig) {
		c.httpClient = hc
	})
}

// WithFacets configures the facet options.
func WithFacets(f Facets) Option {
	return optionFunc(func(c *sessionConfig) {
		c.facets = f
	})
}

// WithPageThreshold sets how close to the document bottom, in pixels, the
// next page is requested. Default: 500.
func WithPageThreshold(px int) Option {
	return optionFunc(func(c *sessionConfig) {
		c.threshold = px
	})
}

// WithView sets where results are rendered. Default: nothing is rendered.
func WithView(v View) Option {
	return optionFunc(func(c *sessionConfig) {
		c.view = v
	})
}

// WithLocation sets the address bar applied queries are pushed to.
// Default: an in-memory address starting at the empty query.
func WithLocation(l Location) Option {
	return optionFunc(func(c *sessionConfig) {
		c.location = l
	})
}

// WithViewport sets the scroll geometry consulted by LoadMore.
// Default: always scrolled to the bottom.
func WithViewport(v Viewport) Option {
	return optionFunc(func(c *sessionConfig) {
		c.viewport = v
	})
}

// GeocodeCache configures the Redis cache of reverse-geocoded labels.
type GeocodeCache struct {
	Addrs    []string
	Password string
	// TTL is the lifetime of a cached label. Zero keeps labels forever.
	TTL time.Duration
	// ClientCacheTTL keeps labels in the rueidis client-side cache, saving
	// a round trip for repeated coordinates. The server must speak RESP3.
	// Zero disables it.
	ClientCacheTTL time.Duration
	// ReadinessTimeout bounds the wait for the server in New. Default: 10s.
	ReadinessTimeout time.Duration
}

// WithGeocodeCache caches reverse-geocoded location labels in Redis.
// It has no effect without a format-geo URL.
func WithGeocodeCache(gc GeocodeCache) Option {
	return optionFunc(func(c *sessionConfig) {
		c.geocodeCache = gc
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *sessionConfig) {
		c.logger = l
	})
}

// WithZapLogger sets the logger of the request engine. Default: no logging.
func WithZapLogger(l *zap.Logger) Option {
	return optionFunc(func(c *sessionConfig) {
		c.zapLogger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations) and
// the search engine metrics on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *sessionConfig) {
		c.metricsReg = reg
	})
}
