package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/facetsearch"
	"github.com/kailas-cloud/facetsearch/internal/usecase/history"
	"github.com/kailas-cloud/facetsearch/internal/view/terminal"
)

// SearchCommand runs one search against the backend and prints the results.
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the backend and print the results",
		ArgsUsage: "[free text...]",
		Flags: append(formFlags(),
			&cli.IntFlag{Name: "pages", Usage: "Additional pages to load", Value: 0},
			&cli.DurationFlag{Name: "wait", Usage: "Give up after this long", Value: 30 * time.Second},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger, err := newLogger(c, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			q, err := formFromCommand(c).encode(cfg.Facets)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(ctx, c.Duration("wait"))
			defer cancel()

			view := terminal.New(os.Stdout, logger.Named("view"), terminal.WithDomain(cfg.Backend.BaseURL))
			opts := append(sessionOptions(cfg, logger), facetsearch.WithView(view))
			s, err := facetsearch.New(ctx, opts...)
			if err != nil {
				return err
			}
			defer s.Close()

			if _, err := s.Navigate(ctx, history.URLFor(cfg.Backend.ActionPath, q)); err != nil {
				return err
			}
			if err := s.Wait(ctx); err != nil {
				return err
			}
			for range c.Int("pages") {
				issued, err := s.LoadMore(ctx)
				if err != nil {
					return err
				}
				if !issued {
					break
				}
				if err := s.Wait(ctx); err != nil {
					return err
				}
			}

			snap, err := s.Snapshot(ctx)
			if err != nil {
				return err
			}
			if snap.LastError != nil {
				return fmt.Errorf("search %q: %w", q, snap.LastError)
			}
			fmt.Fprintf(os.Stdout, "\n%d of %d results for %q\n", snap.Rendered, snap.TotalResults, snap.Current)
			return nil
		},
	}
}
