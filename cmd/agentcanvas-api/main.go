package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/agentcanvas/agentcanvas/pkg/cmd"
	"github.com/agentcanvas/agentcanvas/pkg/log"
	"github.com/agentcanvas/agentcanvas/pkg/otelhelper"
	"github.com/agentcanvas/agentcanvas/pkg/registry"
	"github.com/agentcanvas/agentcanvas/pkg/runner"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "agentcanvas-api",
		Usage:                 "Create and manage agent network canvases",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka or channel)",
				Value:   "channel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "runner-url",
				Usage:   "Base URL of the execution service",
				Value:   "http://localhost:8000",
				Sources: cli.EnvVars("RUNNER_URL"),
			},
			&cli.DurationFlag{
				Name:    "runner-timeout",
				Usage:   "HTTP timeout for execution service requests",
				Value:   30 * time.Second,
				Sources: cli.EnvVars("RUNNER_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing AgentCanvas API")

			if _, err := otelhelper.NewTracer(ctx, "agentcanvas-api"); err != nil {
				logger.WarnContext(ctx, "Tracing disabled", "error", err)
			}

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			if err := registerRunEventLogging(ctx, logger, eventBus); err != nil {
				logger.WarnContext(ctx, "Run event logging disabled", "error", err)
			}

			api := NewAPI(
				logger,
				persistence,
				registry.NewRegistry(),
				eventBus,
				runner.Config{
					BaseURL: command.String("runner-url"),
					Timeout: command.Duration("runner-timeout"),
				},
			)

			if err := api.Start(ctx, command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
