package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "facetsearch",
		Usage: "Faceted search client and development results server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path (default: config/<env>.yaml)",
			},
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Environment: local, dev, prod",
				Sources: cli.EnvVars("ENV"),
				Value:   "local",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level: debug, info, warn, error",
			},
		},
		Commands: []*cli.Command{
			EncodeCommand(),
			DecodeCommand(),
			SearchCommand(),
			ShellCommand(),
			ServeCommand(),
			VersionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
