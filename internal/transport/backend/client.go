// Package backend is the HTTP client of the results-only search endpoint.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/domain"
	"github.com/kailas-cloud/facetsearch/internal/domain/response"
	"github.com/kailas-cloud/facetsearch/internal/metrics"
)

// Endpoint labels used in metrics and logs.
const (
	EndpointResults   = "results"
	EndpointMore      = "more"
	EndpointFormatGeo = "format_geo"
)

// DefaultResultsPath is used when Config.ResultsPath is empty.
const DefaultResultsPath = "/search/results_only/"

// DefaultTimeout bounds a single backend request.
const DefaultTimeout = 30 * time.Second

const maxBodyBytes = 8 << 20

// Client calls the results, more and format-geo endpoints.
type Client struct {
	base         *url.URL
	resultsPath  string
	formatGeoURL string
	apiKey       string
	http         *http.Client
	logger       *zap.Logger
}

// Config holds the backend client settings.
type Config struct {
	BaseURL      string
	ResultsPath  string // e.g. "/search/results_only/"; slashes are added as needed
	FormatGeoURL string // with {lat} and {lng} placeholders
	APIKey       string // sent as a Bearer token when set
	Timeout      time.Duration
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

// NewClient creates a backend client.
func NewClient(cfg *Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w: %w", domain.ErrInvalidConfig, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute: %w", cfg.BaseURL, domain.ErrInvalidConfig)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		base:         base,
		resultsPath:  normalizePath(cfg.ResultsPath),
		formatGeoURL: cfg.FormatGeoURL,
		apiKey:       cfg.APIKey,
		http:         hc,
		logger:       logger,
	}, nil
}

// normalizePath makes p absolute with a trailing slash. Without the
// leading slash a query such as "sort:x" would resolve as a URL scheme.
func normalizePath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return DefaultResultsPath
	}
	return "/" + p + "/"
}

// Search fetches the first page of results for a query string.
func (c *Client) Search(ctx context.Context, q string) (*response.Response, error) {
	ref := c.resultsPath + url.PathEscape(q) + "/"
	var resp response.Response
	if err := c.getJSON(ctx, EndpointResults, ref, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// More fetches the page of a result set that starts after the given number of items.
func (c *Client) More(ctx context.Context, moreLink string, after int) (*response.Response, error) {
	param, err := runtime.StyleParamWithLocation("form", true, "after", runtime.ParamLocationQuery, after)
	if err != nil {
		return nil, fmt.Errorf("style after param: %w", err)
	}
	sep := "?"
	if strings.Contains(moreLink, "?") {
		sep = "&"
	}

	var resp response.Response
	if err := c.getJSON(ctx, EndpointMore, moreLink+sep+param, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReverseGeocode returns the formatted address of a coordinate.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng string) (string, error) {
	if c.formatGeoURL == "" {
		return "", fmt.Errorf("format geo url not configured: %w", domain.ErrInvalidConfig)
	}
	styledLat, err := runtime.StyleParamWithLocation("simple", false, "lat", runtime.ParamLocationPath, lat)
	if err != nil {
		return "", fmt.Errorf("style lat param: %w", err)
	}
	styledLng, err := runtime.StyleParamWithLocation("simple", false, "lng", runtime.ParamLocationPath, lng)
	if err != nil {
		return "", fmt.Errorf("style lng param: %w", err)
	}
	ref := strings.NewReplacer("{lat}", styledLat, "{lng}", styledLng).Replace(c.formatGeoURL)

	var out struct {
		Formatted string `json:"formatted"`
	}
	if err := c.getJSON(ctx, EndpointFormatGeo, ref, &out); err != nil {
		return "", err
	}
	return out.Formatted, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, ref string, out any) error {
	target, err := c.base.Parse(ref)
	if err != nil {
		return fmt.Errorf("%s url %q: %w", endpoint, ref, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	log := c.logger.With(
		zap.String("endpoint", endpoint),
		zap.String("url", target.String()),
		zap.String("request_id", reqID),
	)

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.BackendRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		log.Warn("Backend request failed", zap.Error(err))
		return fmt.Errorf("%s request: %w: %w", endpoint, domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	metrics.BackendRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		log.Warn("Backend returned an error status", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%s request: %w", endpoint, domain.NewStatusError(resp.StatusCode))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		log.Warn("Backend returned an undecodable payload", zap.Error(err))
		return fmt.Errorf("decode %s response: %w: %w", endpoint, domain.ErrInvalidResponse, err)
	}

	log.Debug("Backend request done", zap.Duration("duration", time.Since(start)))
	return nil
}
