// Package persistence provides the storage abstraction for canvases.
package persistence

import (
	"context"

	"github.com/agentcanvas/agentcanvas/pkg/models"
)

type Persistence interface {
	Canvases(ctx context.Context) ([]*models.Canvas, error)
	CanvasByID(ctx context.Context, id string) (*models.Canvas, error)
	SaveCanvas(ctx context.Context, canvas *models.Canvas) error
	DeleteCanvas(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
