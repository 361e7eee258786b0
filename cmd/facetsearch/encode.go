package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	"github.com/kailas-cloud/facetsearch/internal/usecase/history"
)

// EncodeCommand prints the query string of a search form.
func EncodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     "Print the query string of a search form",
		ArgsUsage: "[free text...]",
		Flags: append(formFlags(),
			&cli.BoolFlag{Name: "url", Usage: "Print the canonical search URL instead"},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			q, err := formFromCommand(c).encode(cfg.Facets)
			if err != nil {
				return err
			}
			if c.Bool("url") {
				q = history.URLFor(cfg.Backend.ActionPath, q)
			}
			_, err = fmt.Fprintln(os.Stdout, q)
			return err
		},
	}
}

// DecodeCommand prints the parameters and free text of a query string or URL.
func DecodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Print the parameters and free text of a query string or search URL",
		ArgsUsage: "<query string | search URL>",
		Action: func(ctx context.Context, c *cli.Command) error {
			in := strings.Join(c.Args().Slice(), " ")
			if in == "" {
				return errors.New("missing query string")
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if q, ok := history.QueryFromURL(cfg.Backend.ActionPath, in); ok {
				in = q
			}
			return printDecoded(os.Stdout, query.Decode(in))
		},
	}
}

func printDecoded(w io.Writer, dec query.Decoded) error {
	for _, key := range query.Keys {
		if v := dec.Params.Get(key); v != "" {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", key, v); err != nil {
				return err
			}
		}
	}
	if dec.FreeText != "" {
		if _, err := fmt.Fprintf(w, "text\t%s\n", dec.FreeText); err != nil {
			return err
		}
	}
	return nil
}
