package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcanvas/agentcanvas/pkg/graph"
	"github.com/agentcanvas/agentcanvas/pkg/models"
	"github.com/agentcanvas/agentcanvas/pkg/nodes/router"
)

func routerOut(nodeID string, index int) models.PortRef {
	return models.PortRef{NodeID: nodeID, Direction: models.PortDirectionOutput, Index: index}
}

func TestStore_AddRouterOutputPort(t *testing.T) {
	t.Parallel()

	store := graph.NewStore()
	routerNode := store.AddNode(models.NodeKindRouter, "", models.Position{})
	agent := store.AddNode(models.NodeKindAgent, models.AgentKindOpenAI, models.Position{})

	require.NoError(t, store.AddRouterOutputPort(routerNode.ID))

	cfg, err := router.ParseConfig(routerNode.Config)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.OutputPorts)
	require.Len(t, cfg.Rules, 3)
	assert.Equal(t, 2, cfg.Rules[2].Port)

	assert.ErrorIs(t, store.AddRouterOutputPort(agent.ID), graph.ErrNotRouter)
	assert.ErrorIs(t, store.AddRouterOutputPort("missing"), graph.ErrNodeNotFound)
}

func TestStore_RemoveRouterOutputPort_CascadesAndRenumbers(t *testing.T) {
	t.Parallel()

	store := graph.NewStore()
	routerNode := store.AddNode(models.NodeKindRouter, "", models.Position{})
	first := store.AddNode(models.NodeKindAgent, models.AgentKindOpenAI, models.Position{})
	second := store.AddNode(models.NodeKindAgent, models.AgentKindOpenAI, models.Position{})
	third := store.AddNode(models.NodeKindAgent, models.AgentKindOpenAI, models.Position{})

	require.NoError(t, store.AddRouterOutputPort(routerNode.ID))

	connFirst := store.AddConnection(routerOut(routerNode.ID, 0), inPort(first.ID))
	connSecond := store.AddConnection(routerOut(routerNode.ID, 1), inPort(second.ID))
	connThird := store.AddConnection(routerOut(routerNode.ID, 2), inPort(third.ID))
	require.NotNil(t, connFirst)
	require.NotNil(t, connSecond)
	require.NotNil(t, connThird)

	require.NoError(t, store.RemoveRouterOutputPort(routerNode.ID, 1))

	cfg, err := router.ParseConfig(routerNode.Config)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.OutputPorts)

	// The port 1 connection is gone; the port 2 connection now leaves port 1.
	require.Len(t, store.Connections(), 2)

	for _, conn := range store.Connections() {
		switch conn.ID {
		case connFirst.ID:
			assert.Equal(t, 0, conn.From.Index)
		case connThird.ID:
			assert.Equal(t, 1, conn.From.Index)
		default:
			t.Fatalf("unexpected connection %s survived", conn.ID)
		}
	}
}

func TestStore_RemoveRouterOutputPort_RejectsBelowMinimum(t *testing.T) {
	t.Parallel()

	store := graph.NewStore()
	routerNode := store.AddNode(models.NodeKindRouter, "", models.Position{})
	agent := store.AddNode(models.NodeKindAgent, models.AgentKindOpenAI, models.Position{})

	conn := store.AddConnection(routerOut(routerNode.ID, 0), inPort(agent.ID))
	require.NotNil(t, conn)

	before, err := router.ParseConfig(routerNode.Config)
	require.NoError(t, err)

	err = store.RemoveRouterOutputPort(routerNode.ID, 0)
	assert.ErrorIs(t, err, router.ErrMinOutputPorts)

	// Nothing changed: config and connections are untouched.
	after, parseErr := router.ParseConfig(routerNode.Config)
	require.NoError(t, parseErr)
	assert.Equal(t, before, after)
	assert.Len(t, store.Connections(), 1)
	assert.Equal(t, 0, store.Connections()[0].From.Index)
}

func TestStore_RemoveRouterOutputPort_OutOfRange(t *testing.T) {
	t.Parallel()

	store := graph.NewStore()
	routerNode := store.AddNode(models.NodeKindRouter, "", models.Position{})

	require.NoError(t, store.AddRouterOutputPort(routerNode.ID))

	assert.ErrorIs(t, store.RemoveRouterOutputPort(routerNode.ID, 7), router.ErrPortOutOfRange)
	assert.ErrorIs(t, store.RemoveRouterOutputPort(routerNode.ID, -1), router.ErrPortOutOfRange)
}
