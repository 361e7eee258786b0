// Package chi is the development results server. It answers the
// results-only and format-geo endpoints from an in-memory index.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/domain/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/geo"
	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	"github.com/kailas-cloud/facetsearch/internal/domain/response"
	logpkg "github.com/kailas-cloud/facetsearch/internal/logger"
	"github.com/kailas-cloud/facetsearch/internal/metrics"
	"github.com/kailas-cloud/facetsearch/internal/repository/devindex"
	"github.com/kailas-cloud/facetsearch/internal/usecase/health"
)

// DefaultPageSize is the number of results per page.
const DefaultPageSize = 10

// Error codes of ErrorResponse.
const (
	CodeBadRequest    = "bad_request"
	CodeUnauthorized  = "unauthorized"
	CodeNotFound      = "not_found"
	CodeInternalError = "internal_error"
)

// Index is what the server searches.
type Index interface {
	Search(ctx context.Context, req devindex.Request) (*devindex.Result, error)
	FormatGeo(p geo.Point) string
	Items(key string) []facet.Item
	Ping(ctx context.Context) error
}

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResultsResponse is the JSON body of the results-only endpoint.
type ResultsResponse struct {
	Results         string                       `json:"results"`
	TotalResults    int                          `json:"total_results"`
	Query           string                       `json:"query"`
	MoreLink        string                       `json:"more_link"`
	SubscribeWidget string                       `json:"subscribe_widget"`
	NewFacets       map[string][]response.Bucket `json:"new_facets"`
}

// FormatGeoResponse is the JSON body of the format-geo endpoint.
type FormatGeoResponse struct {
	Formatted string `json:"formatted"`
}

// FilterItemsResponse is the JSON body of the filter-items endpoint.
type FilterItemsResponse struct {
	Key   string       `json:"key"`
	Items []facet.Item `json:"items"`
}

// Config holds the dev server settings.
type Config struct {
	ResultsPath string // e.g. "/search/results_only/"
	GeoPath     string // e.g. "/search/format_geo/"
	ItemsPath   string // e.g. "/search/filter_items/"
	PageSize    int
	APIKeys     []string
}

// Server serves the development endpoints.
type Server struct {
	index       Index
	resultsPath string
	geoPath     string
	itemsPath   string
	pageSize    int
	health      *health.Service
	apiKeys     []string
	logger      *zap.Logger
}

// NewServer creates a dev server.
func NewServer(index Index, cfg Config, logger *zap.Logger) *Server {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.ResultsPath == "" {
		cfg.ResultsPath = "/search/results_only/"
	}
	if cfg.GeoPath == "" {
		cfg.GeoPath = "/search/format_geo/"
	}
	if cfg.ItemsPath == "" {
		cfg.ItemsPath = "/search/filter_items/"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		index:       index,
		resultsPath: "/" + strings.Trim(cfg.ResultsPath, "/") + "/",
		geoPath:     "/" + strings.Trim(cfg.GeoPath, "/") + "/",
		itemsPath:   "/" + strings.Trim(cfg.ItemsPath, "/") + "/",
		pageSize:    cfg.PageSize,
		health:      health.New(map[string]health.Checker{"index": index}),
		apiKeys:     cfg.APIKeys,
		logger:      logger,
	}
}

// Router returns the HTTP handler with middleware attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(wideEvent)
	r.Use(jsonRecoverer)
	r.Use(BearerAuthMiddleware(s.apiKeys, "/health", "/metrics"))
	r.Use(metrics.Middleware())

	r.Get(s.resultsPath+"*", s.Results)
	r.Get(s.geoPath+"{lat},{lng}/", s.FormatGeo)
	r.Get(s.itemsPath+"{key}/", s.FilterItems)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

// Results handles GET <results path><query>/?after=N.
func (s *Server) Results(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid query encoding")
		return
	}
	qs := strings.TrimSpace(strings.TrimSuffix(raw, "/"))
	ctx := logpkg.With(r.Context(), zap.String("search_query", qs))
	log := logpkg.FromContext(ctx)

	after := 0
	if v := r.URL.Query().Get("after"); v != "" {
		after, err = strconv.Atoi(v)
		if err != nil || after < 0 {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "after must be a non-negative integer")
			return
		}
	}

	res, err := s.index.Search(ctx, devindex.Request{
		Query: query.Decode(qs),
		After: after,
		Size:  s.pageSize,
	})
	if err != nil {
		log.Warn("Search failed", zap.Error(err))
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	items, err := renderItems(res.Hits)
	if err != nil {
		s.internalError(w, log, err)
		return
	}
	widget, err := renderSubscribe(qs)
	if err != nil {
		s.internalError(w, log, err)
		return
	}

	writeJSON(w, http.StatusOK, ResultsResponse{
		Results:         items,
		TotalResults:    res.Total,
		Query:           qs,
		MoreLink:        s.resultsPath + url.PathEscape(qs) + "/",
		SubscribeWidget: widget,
		NewFacets:       res.Facets,
	})
}

// FormatGeo handles GET <geo path>{lat},{lng}/.
func (s *Server) FormatGeo(w http.ResponseWriter, r *http.Request) {
	p, err := geo.Parse(chi.URLParam(r, "lat"), chi.URLParam(r, "lng"))
	switch {
	case errors.Is(err, geo.ErrOutOfRange):
		writeError(w, http.StatusBadRequest, CodeBadRequest, "coordinates out of range")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, CodeBadRequest, "lat and lng must be numbers")
		return
	}
	writeJSON(w, http.StatusOK, FormatGeoResponse{Formatted: s.index.FormatGeo(p)})
}

// FilterItems handles GET <items path>{key}/ for the person and
// organization lists.
func (s *Server) FilterItems(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key != query.KeyPerson && key != query.KeyOrganization {
		writeError(w, http.StatusNotFound, CodeNotFound, "unknown filter "+strconv.Quote(key))
		return
	}
	items := s.index.Items(key)
	if items == nil {
		items = []facet.Item{}
	}
	writeJSON(w, http.StatusOK, FilterItemsResponse{Key: key, Items: items})
}

// HealthCheck handles GET /health. It answers 503 when no fixtures are loaded.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status == health.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) internalError(w http.ResponseWriter, log *zap.Logger, err error) {
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
