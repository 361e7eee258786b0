package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/facetsearch/internal/version"
)

// VersionCommand prints build metadata.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(ctx context.Context, c *cli.Command) error {
			fmt.Println(version.String())
			return nil
		},
	}
}
