package main

import (
	"context"
	"log/slog"

	"github.com/agentcanvas/agentcanvas/pkg/eventbus"
	"github.com/agentcanvas/agentcanvas/pkg/events"
)

// registerRunEventLogging subscribes to run lifecycle events and mirrors them
// into the log, so a single-node deployment still has a run audit trail.
func registerRunEventLogging(ctx context.Context, logger *slog.Logger, bus eventbus.EventBus) error {
	runLogger := logger.With("module", "run_events")

	err := bus.Handle(events.RunStartedEvent, func(ctx context.Context, event any) error {
		if started, ok := event.(*events.RunStarted); ok {
			runLogger.InfoContext(ctx, "Run started",
				"canvas_id", started.CanvasID,
				"execution_id", started.ExecutionID,
				"network_count", started.NetworkCount,
				"execution_mode", started.ExecutionMode)
		}

		return nil
	})
	if err != nil {
		return err
	}

	err = bus.Handle(events.RunCompletedEvent, func(ctx context.Context, event any) error {
		if completed, ok := event.(*events.RunCompleted); ok {
			runLogger.InfoContext(ctx, "Run completed",
				"canvas_id", completed.CanvasID,
				"execution_id", completed.ExecutionID,
				"duration", completed.Duration)
		}

		return nil
	})
	if err != nil {
		return err
	}

	err = bus.Handle(events.RunFailedEvent, func(ctx context.Context, event any) error {
		if failed, ok := event.(*events.RunFailed); ok {
			runLogger.WarnContext(ctx, "Run failed",
				"canvas_id", failed.CanvasID,
				"execution_id", failed.ExecutionID,
				"error", failed.Error)
		}

		return nil
	})
	if err != nil {
		return err
	}

	err = bus.Handle(events.RunTimedOutEvent, func(ctx context.Context, event any) error {
		if timedOut, ok := event.(*events.RunTimedOut); ok {
			runLogger.WarnContext(ctx, "Run status polling timed out",
				"canvas_id", timedOut.CanvasID,
				"execution_id", timedOut.ExecutionID,
				"attempts", timedOut.Attempts)
		}

		return nil
	})
	if err != nil {
		return err
	}

	return bus.Subscribe(ctx)
}
