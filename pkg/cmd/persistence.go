// Package cmd provides shared wiring helpers for the command binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agentcanvas/agentcanvas/pkg/persistence"
	"github.com/agentcanvas/agentcanvas/pkg/persistence/file"
	"github.com/agentcanvas/agentcanvas/pkg/persistence/postgres"
	"github.com/agentcanvas/agentcanvas/pkg/persistence/redis"
)

// NewPersistence selects a persistence backend from the database URL
// scheme: postgres://, redis://, or a file path (optionally file://).
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgres.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL persistence: %w", err))
		}

		return p
	case "redis", "rediss":
		p, err := redis.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create Redis persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parseProvider(databaseURL string) string {
	parts := strings.SplitN(databaseURL, "://", 2)
	if len(parts) < 2 {
		return "file"
	}

	return parts[0]
}
