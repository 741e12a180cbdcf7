package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcanvas/agentcanvas/pkg/log"
	"github.com/agentcanvas/agentcanvas/pkg/models"
	"github.com/agentcanvas/agentcanvas/pkg/persistence"
)

func newTestPersistence(t *testing.T) *Persistence {
	t.Helper()

	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewPersistenceWithClient(log.WithModule("test"), client)
}

func sampleCanvas(id string) *models.Canvas {
	return &models.Canvas{
		ID:   id,
		Name: "Test Canvas",
		Nodes: []*models.Node{
			{ID: "in", Kind: models.NodeKindInput},
			{ID: "out", Kind: models.NodeKindOutput},
		},
		Connections: []*models.Connection{
			{
				ID:   "c1",
				From: models.PortRef{NodeID: "in", Direction: models.PortDirectionOutput},
				To:   models.PortRef{NodeID: "out", Direction: models.PortDirectionInput},
			},
		},
	}
}

func TestPersistence_SaveAndFetch(t *testing.T) {
	t.Parallel()

	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.SaveCanvas(ctx, sampleCanvas("c-1")))

	canvas, err := p.CanvasByID(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "Test Canvas", canvas.Name)
	assert.Len(t, canvas.Nodes, 2)
	assert.Len(t, canvas.Connections, 1)
}

func TestPersistence_CanvasNotFound(t *testing.T) {
	t.Parallel()

	p := newTestPersistence(t)

	_, err := p.CanvasByID(context.Background(), "missing")
	assert.True(t, persistence.IsCanvasNotFound(err))
}

func TestPersistence_CanvasesUsesIndex(t *testing.T) {
	t.Parallel()

	p := newTestPersistence(t)
	ctx := context.Background()

	canvases, err := p.Canvases(ctx)
	require.NoError(t, err)
	assert.Empty(t, canvases)

	require.NoError(t, p.SaveCanvas(ctx, sampleCanvas("c-1")))
	require.NoError(t, p.SaveCanvas(ctx, sampleCanvas("c-2")))

	canvases, err = p.Canvases(ctx)
	require.NoError(t, err)
	assert.Len(t, canvases, 2)

	// Saving the same id twice does not duplicate the index entry.
	require.NoError(t, p.SaveCanvas(ctx, sampleCanvas("c-1")))

	canvases, err = p.Canvases(ctx)
	require.NoError(t, err)
	assert.Len(t, canvases, 2)
}

func TestPersistence_Delete(t *testing.T) {
	t.Parallel()

	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.SaveCanvas(ctx, sampleCanvas("c-1")))
	require.NoError(t, p.DeleteCanvas(ctx, "c-1"))

	_, err := p.CanvasByID(ctx, "c-1")
	assert.True(t, persistence.IsCanvasNotFound(err))

	canvases, err := p.Canvases(ctx)
	require.NoError(t, err)
	assert.Empty(t, canvases)

	assert.True(t, persistence.IsCanvasNotFound(p.DeleteCanvas(ctx, "c-1")))
}

func TestPersistence_HealthCheck(t *testing.T) {
	t.Parallel()

	p := newTestPersistence(t)
	assert.NoError(t, p.HealthCheck(context.Background()))
}
