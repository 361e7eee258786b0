package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/facetsearch/internal/domain/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/query"
)

// Config holds the facetsearch configuration.
type Config struct {
	Backend   BackendConfig   `yaml:"backend"`
	Facets    FacetsConfig    `yaml:"facets"`
	Pager     PagerConfig     `yaml:"pager"`
	Cache     CacheConfig     `yaml:"cache"`
	DevServer DevServerConfig `yaml:"devserver"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// BackendConfig locates the results endpoints.
type BackendConfig struct {
	BaseURL      string `yaml:"base_url"`
	ResultsPath  string `yaml:"results_path"`
	ActionPath   string `yaml:"action_path"`
	FormatGeoURL string `yaml:"format_geo_url"` // {lat} and {lng} placeholders
	APIKey       string `yaml:"api_key"`
	TimeoutSec   int    `yaml:"timeout_sec"`
}

// FacetsConfig declares the facets and their options.
type FacetsConfig struct {
	Sort          SortConfig        `yaml:"sort"`
	DocumentTypes []string          `yaml:"document_types"`
	DatePresets   facet.PresetNames `yaml:"date_presets"`
	DefaultRadius int               `yaml:"default_radius"`
	Filters       []FilterConfig    `yaml:"filters"`
}

// SortConfig holds the sort orders offered.
type SortConfig struct {
	Default string   `yaml:"default"`
	Options []string `yaml:"options"`
}

// FilterConfig is a single-value filter list. Items may be left empty when
// the dev server fixtures provide them.
type FilterConfig struct {
	Key   string       `yaml:"key"` // person, organization
	Items []facet.Item `yaml:"items"`
}

// PagerConfig holds endless scrolling settings.
type PagerConfig struct {
	ThresholdPx int `yaml:"threshold_px"`
}

// CacheConfig holds the reverse-geocode cache settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // redis, or empty for no cache
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	ClientCacheSec   int      `yaml:"client_cache_sec"` // 0 disables client-side caching
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// DevServerConfig holds the development results server settings.
type DevServerConfig struct {
	Port            int      `yaml:"port"`
	Fixtures        string   `yaml:"fixtures"`
	PageSize        int      `yaml:"page_size"`
	APIKeys         []string `yaml:"api_keys"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from a YAML file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Backend.ResultsPath == "" {
		c.Backend.ResultsPath = "/search/results_only/"
	}
	if c.Backend.ActionPath == "" {
		c.Backend.ActionPath = "/search/query//"
	}
	if c.Backend.TimeoutSec <= 0 {
		c.Backend.TimeoutSec = 30
	}
	if c.Facets.Sort.Default == "" {
		c.Facets.Sort.Default = facet.SortRelevance
	}
	if len(c.Facets.Sort.Options) == 0 {
		c.Facets.Sort.Options = []string{facet.SortRelevance, facet.SortDateNewest, facet.SortDateOldest}
	}
	if len(c.Facets.DocumentTypes) == 0 {
		c.Facets.DocumentTypes = append([]string(nil), facet.DefaultDocumentTypes...)
	}
	if c.Facets.DefaultRadius <= 0 {
		c.Facets.DefaultRadius = facet.DefaultRadius
	}
	if c.Pager.ThresholdPx <= 0 {
		c.Pager.ThresholdPx = 500
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 7 * 24 * 3600
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.DevServer.Port <= 0 {
		c.DevServer.Port = 8080
	}
	if c.DevServer.PageSize <= 0 {
		c.DevServer.PageSize = 10
	}
	if c.DevServer.ReadTimeoutSec <= 0 {
		c.DevServer.ReadTimeoutSec = 10
	}
	if c.DevServer.WriteTimeoutSec <= 0 {
		c.DevServer.WriteTimeoutSec = 10
	}
	if c.DevServer.ShutdownSec <= 0 {
		c.DevServer.ShutdownSec = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Backend.BaseURL != "" {
		u, err := url.Parse(c.Backend.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("backend.base_url must be an absolute URL, got %q", c.Backend.BaseURL)
		}
	}
	if !strings.HasPrefix(c.Backend.ResultsPath, "/") {
		return fmt.Errorf("backend.results_path must start with /, got %q", c.Backend.ResultsPath)
	}
	if !strings.HasPrefix(c.Backend.ActionPath, "/") {
		return fmt.Errorf("backend.action_path must start with /, got %q", c.Backend.ActionPath)
	}
	if c.Backend.FormatGeoURL != "" &&
		(!strings.Contains(c.Backend.FormatGeoURL, "{lat}") || !strings.Contains(c.Backend.FormatGeoURL, "{lng}")) {
		return fmt.Errorf("backend.format_geo_url must contain {lat} and {lng}, got %q", c.Backend.FormatGeoURL)
	}
	if !slices.Contains(c.Facets.Sort.Options, c.Facets.Sort.Default) {
		return fmt.Errorf("facets.sort.default %q is not one of facets.sort.options", c.Facets.Sort.Default)
	}
	seen := make(map[string]bool, len(c.Facets.Filters))
	for _, f := range c.Facets.Filters {
		if f.Key != query.KeyPerson && f.Key != query.KeyOrganization {
			return fmt.Errorf("facets.filters key must be %q or %q, got %q", query.KeyPerson, query.KeyOrganization, f.Key)
		}
		if seen[f.Key] {
			return fmt.Errorf("facets.filters key %q is declared twice", f.Key)
		}
		seen[f.Key] = true
	}
	switch c.Cache.Driver {
	case "":
	case "redis":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver redis")
		}
	default:
		return fmt.Errorf("cache.driver must be \"redis\" or empty, got %q", c.Cache.Driver)
	}
	if c.DevServer.Port > 65535 {
		return fmt.Errorf("devserver.port must be between 1 and 65535, got %d", c.DevServer.Port)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
