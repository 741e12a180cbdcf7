// Package main provides the AgentCanvas command line runner: it detects the
// networks on a canvas and submits them to the execution service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/agentcanvas/agentcanvas/pkg/cmd"
	"github.com/agentcanvas/agentcanvas/pkg/log"
	"github.com/agentcanvas/agentcanvas/pkg/runner"
	"github.com/agentcanvas/agentcanvas/pkg/services"
)

func main() {
	logger := log.WithModule("run")

	command := &cli.Command{
		Name:                  "agentcanvas-run",
		Usage:                 "Run the agent networks of a canvas",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "canvas-id",
				Usage:    "ID of the canvas to run",
				Required: true,
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
			&cli.IntSliceFlag{
				Name:    "network",
				Aliases: []string{"n"},
				Usage:   "Network ordinal to run (repeatable); empty runs every detected network",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Execution mode for several networks (sequential or parallel)",
				Value: string(runner.ModeSequential),
			},
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Input text handed to the network's input node",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "List the detected networks instead of running",
			},
			&cli.BoolFlag{
				Name:  "no-wait",
				Usage: "Return after submission instead of polling for the result",
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

			runService := services.NewRunService(persistence, eventBus, logger, runner.Config{
				BaseURL: command.String("runner-url"),
				Timeout: command.Duration("runner-timeout"),
			})

			canvasID := command.String("canvas-id")

			if command.Bool("list") {
				return listNetworks(ctx, runService, canvasID)
			}

			result, err := runService.Execute(
				ctx,
				canvasID,
				command.IntSlice("network"),
				runner.Mode(command.String("mode")),
				command.String("input"),
				!command.Bool("no-wait"),
			)
			if err != nil {
				return err
			}

			return printJSON(result)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func listNetworks(ctx context.Context, runService *services.RunService, canvasID string) error {
	candidates, err := runService.ListNetworks(ctx, canvasID)
	if err != nil {
		return err
	}

	if len(candidates) == 0 {
		fmt.Println("No runnable networks detected")

		return nil
	}

	for _, candidate := range candidates {
		fmt.Printf("%d: %s (%d nodes, %d connections)\n",
			candidate.Ordinal, candidate.Name, len(candidate.Nodes), len(candidate.Connections))
	}

	return nil
}

func printJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(data))

	return nil
}
