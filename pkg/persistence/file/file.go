// Package file provides file-based persistence: one JSON document per
// canvas under a root directory.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentcanvas/agentcanvas/pkg/models"
	"github.com/agentcanvas/agentcanvas/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root string
}

// NewPersistence creates a file persistence rooted at the given directory.
// A file:// prefix on the path is accepted and stripped.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

// Close performs any necessary cleanup; nothing to do for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) Canvases(ctx context.Context) ([]*models.Canvas, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.Canvas{}, nil
		}

		return nil, fmt.Errorf("failed to read canvas directory: %w", err)
	}

	canvases := make([]*models.Canvas, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")

		canvas, err := p.CanvasByID(ctx, id)
		if err != nil {
			return nil, err
		}

		canvases = append(canvases, canvas)
	}

	return canvases, nil
}

func (p *Persistence) CanvasByID(_ context.Context, id string) (*models.Canvas, error) {
	data, err := os.ReadFile(p.path(id))
	if err != nil {
		if os.IsNotExist(err) {
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

func (p *Persistence) SaveCanvas(_ context.Context, canvas *models.Canvas) error {
	if err := os.MkdirAll(p.root, 0o755); err != nil {
		return persistence.NewCanvasError("SaveCanvas", canvas.ID, err)
	}

	data, err := json.MarshalIndent(canvas, "", "  ")
	if err != nil {
		return persistence.NewCanvasError("SaveCanvas", canvas.ID, err)
	}

	if err := os.WriteFile(p.path(canvas.ID), data, 0o644); err != nil {
		return persistence.NewCanvasError("SaveCanvas", canvas.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteCanvas(_ context.Context, id string) error {
	err := os.Remove(p.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewCanvasError("DeleteCanvas", id, persistence.ErrCanvasNotFound)
		}

		return persistence.NewCanvasError("DeleteCanvas", id, err)
	}

	return nil
}

func (p *Persistence) path(id string) string {
	return filepath.Join(p.root, id+".json")
}
