package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	cli "github.com/urfave/cli/v3"
	"github.com/waflow/waflow/pkg/log"
	"github.com/waflow/waflow/pkg/persistence"
	"github.com/waflow/waflow/pkg/persistence/file"
	redispersistence "github.com/waflow/waflow/pkg/persistence/redis"
	"github.com/waflow/waflow/pkg/services"
	"github.com/waflow/waflow/pkg/web"
)

const defaultPort = 9090

// newPersistence picks the blueprint store from the database URL scheme:
// redis:// for redis, anything else is treated as a file root.
func newPersistence(databaseURL string) (persistence.Persistence, error) {
	if strings.HasPrefix(databaseURL, "redis://") {
		return redispersistence.NewPersistence(databaseURL)
	}

	return file.NewPersistence(databaseURL), nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the blueprint HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Blueprint store URL (redis://... or a data directory)",
				Value:   "./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("api")

			lib, err := loadLibrary(command)
			if err != nil {
				return fmt.Errorf("failed to load node catalog: %w", err)
			}

			store, err := newPersistence(command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			blueprintService := services.NewBlueprint(lib, store, logger)
			handlers := web.NewAPIHandlers(blueprintService, validator.New(validator.WithRequiredStructEnabled()))
			app := web.NewApp(handlers)

			logger.InfoContext(ctx, "Starting blueprint API",
				"port", command.Int("port"),
				"catalog_nodes", lib.Len())

			return app.Listen(":" + strconv.Itoa(command.Int("port")))
		},
	}
}
