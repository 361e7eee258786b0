package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/metrics"
	"github.com/kailas-cloud/facetsearch/internal/repository/devindex"
	chitransport "github.com/kailas-cloud/facetsearch/internal/transport/chi"
)

// ServeCommand runs the development results server over a fixture file.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the development results server",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "Listen port (overrides dev_server.port)"},
			&cli.StringFlag{Name: "fixtures", Usage: "Fixture file (overrides dev_server.fixtures)"},
			&cli.BoolFlag{Name: "watch", Usage: "Reload fixtures when the file changes", Value: true},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if p := c.Int("port"); p > 0 {
				cfg.DevServer.Port = p
			}
			if f := c.String("fixtures"); f != "" {
				cfg.DevServer.Fixtures = f
			}
			logger, err := newLogger(c, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			metrics.RegisterSearchMetrics()

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			ix := devindex.New(logger.Named("devindex"))
			defer func() {
				if err := ix.Close(); err != nil {
					logger.Warn("Failed to close index", zap.Error(err))
				}
			}()
			if err := ix.LoadFile(cfg.DevServer.Fixtures); err != nil {
				return fmt.Errorf("load fixtures: %w", err)
			}
			if c.Bool("watch") {
				go func() {
					if err := ix.Watch(ctx, cfg.DevServer.Fixtures); err != nil {
						logger.Error("Fixture watcher stopped", zap.Error(err))
					}
				}()
			}

			server := chitransport.NewServer(ix, chitransport.Config{
				ResultsPath: cfg.Backend.ResultsPath,
				PageSize:    cfg.DevServer.PageSize,
				APIKeys:     cfg.DevServer.APIKeys,
			}, logger)

			addr := fmt.Sprintf(":%d", cfg.DevServer.Port)
			srv := &http.Server{
				Addr:         addr,
				Handler:      server.Router(),
				ReadTimeout:  time.Duration(cfg.DevServer.ReadTimeoutSec) * time.Second,
				WriteTimeout: time.Duration(cfg.DevServer.WriteTimeoutSec) * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server",
					zap.String("addr", addr),
					zap.String("fixtures", cfg.DevServer.Fixtures),
				)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}
			logger.Info("Received shutdown signal")

			shutdownCtx, cancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.DevServer.ShutdownSec)*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Error during shutdown", zap.Error(err))
			}
			logger.Info("Server stopped gracefully")
			return nil
		},
	}
}
