package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch"
	"github.com/kailas-cloud/facetsearch/internal/config"
	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	logpkg "github.com/kailas-cloud/facetsearch/internal/logger"
)

// loadConfig reads --config, or config/<env>.yaml when it is not set.
func loadConfig(c *cli.Command) (config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load(c.String("env"))
}

func newLogger(c *cli.Command, cfg config.Config) (*zap.Logger, error) {
	level := cfg.Logging.Level
	if l := c.String("log-level"); l != "" {
		level = l
	}
	logger, err := logpkg.NewLogger(c.String("env"), level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}

// sessionOptions maps the configuration onto Session options.
func sessionOptions(cfg config.Config, logger *zap.Logger) []facetsearch.Option {
	f := facetsearch.Facets{
		SortDefault:   cfg.Facets.Sort.Default,
		SortOptions:   cfg.Facets.Sort.Options,
		DocumentTypes: cfg.Facets.DocumentTypes,
		DatePresets:   cfg.Facets.DatePresets,
		DefaultRadius: cfg.Facets.DefaultRadius,
	}
	for _, fl := range cfg.Facets.Filters {
		switch fl.Key {
		case query.KeyPerson:
			f.Persons = fl.Items
		case query.KeyOrganization:
			f.Organizations = fl.Items
		}
	}

	opts := []facetsearch.Option{
		facetsearch.WithBackend(cfg.Backend.BaseURL),
		facetsearch.WithPaths(cfg.Backend.ResultsPath, cfg.Backend.ActionPath, cfg.Backend.FormatGeoURL),
		facetsearch.WithAPIKey(cfg.Backend.APIKey),
		facetsearch.WithTimeout(time.Duration(cfg.Backend.TimeoutSec) * time.Second),
		facetsearch.WithFacets(f),
		facetsearch.WithPageThreshold(cfg.Pager.ThresholdPx),
		facetsearch.WithZapLogger(logger),
	}
	if cfg.Cache.Driver == "redis" {
		opts = append(opts, facetsearch.WithGeocodeCache(facetsearch.GeocodeCache{
			Addrs:            cfg.Cache.Addrs,
			Password:         cfg.Cache.Password,
			TTL:              time.Duration(cfg.Cache.TTLSec) * time.Second,
			ClientCacheTTL:   time.Duration(cfg.Cache.ClientCacheSec) * time.Second,
			ReadinessTimeout: time.Duration(cfg.Cache.ReadinessTimeout) * time.Second,
		}))
	}
	return opts
}
