// Package main provides the waflow CLI: compile, prepare and serve
// blueprint workflows.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
	"github.com/waflow/waflow/pkg/log"
)

func main() {
	cmd := &cli.Command{
		Name:                  "waflow",
		Usage:                 "Validate, prepare and serve WhatsApp workflow blueprints",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "catalog",
				Usage:   "Path to a node catalog JSON file (defaults to the embedded catalog)",
				Sources: cli.EnvVars("NODE_CATALOG"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			validateCommand(),
			prepareCommand(),
			recommendCommand(),
			serveCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.WithModule("cli").Error("command failed", "error", err)
		os.Exit(1)
	}
}
