// Package redis provides Redis-backed persistence for canvases, one JSON
// document per canvas key.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/agentcanvas/agentcanvas/pkg/models"
	"github.com/agentcanvas/agentcanvas/pkg/persistence"
)

const (
	canvasKeyPrefix = "agentcanvas:canvas:"
	canvasIndexKey  = "agentcanvas:canvases"
)

// Persistence implements persistence.Persistence on Redis.
type Persistence struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewPersistence connects to Redis using a redis:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	opts, err := redis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Persistence{
		client: client,
		logger: logger.With("component", "canvas_redis_persistence"),
	}, nil
}

// NewPersistenceWithClient wraps an existing client; used by tests.
func NewPersistenceWithClient(logger *slog.Logger, client redis.UniversalClient) *Persistence {
	return &Persistence{
		client: client,
		logger: logger.With("component", "canvas_redis_persistence"),
	}
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *Persistence) Canvases(ctx context.Context) ([]*models.Canvas, error) {
	ids, err := p.client.SMembers(ctx, canvasIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list canvas ids: %w", err)
	}

	canvases := make([]*models.Canvas, 0, len(ids))

	for _, id := range ids {
		canvas, err := p.CanvasByID(ctx, id)
		if err != nil {
			// The index can briefly reference a deleted canvas.
			if persistence.IsCanvasNotFound(err) {
				continue
			}

			return nil, err
		}

		canvases = append(canvases, canvas)
	}

	return canvases, nil
}

func (p *Persistence) CanvasByID(ctx context.Context, id string) (*models.Canvas, error) {
	data, err := p.client.Get(ctx, canvasKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewCanvasError("CanvasByID", id, persistence.ErrCanvasNotFound)
		}

		return nil, persistence.NewCanvasError("CanvasByID", id, err)
	}

	var canvas models.Canvas
	if err := json.Unmarshal(data, &canvas); err != nil {
		return nil, persistence.NewCanvasError("CanvasByID", id, err)
	}

	return &canvas, nil
}

func (p *Persistence) SaveCanvas(ctx context.Context, canvas *models.Canvas) error {
	data, err := json.Marshal(canvas)
	if err != nil {
		return persistence.NewCanvasError("SaveCanvas", canvas.ID, err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, canvasKeyPrefix+canvas.ID, data, 0)
	pipe.SAdd(ctx, canvasIndexKey, canvas.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		p.logger.ErrorContext(ctx, "Failed to save canvas", "canvas_id", canvas.ID, "error", err)

		return persistence.NewCanvasError("SaveCanvas", canvas.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteCanvas(ctx context.Context, id string) error {
	removed, err := p.client.Del(ctx, canvasKeyPrefix+id).Result()
	if err != nil {
		return persistence.NewCanvasError("DeleteCanvas", id, err)
	}

	if removed == 0 {
		return persistence.NewCanvasError("DeleteCanvas", id, persistence.ErrCanvasNotFound)
	}

	if err := p.client.SRem(ctx, canvasIndexKey, id).Err(); err != nil {
		return persistence.NewCanvasError("DeleteCanvas", id, err)
	}

	return nil
}
