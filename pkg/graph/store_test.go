package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcanvas/agentcanvas/pkg/graph"
	"github.com/agentcanvas/agentcanvas/pkg/models"
	"github.com/agentcanvas/agentcanvas/pkg/nodes/router"
)

func outPort(nodeID string) models.PortRef {
	return models.PortRef{NodeID: nodeID, Direction: models.PortDirectionOutput}
}

func inPort(nodeID string) models.PortRef {
	return models.PortRef{NodeID: nodeID, Direction: models.PortDirectionInput}
}

func TestStore_AddNode_Defaults(t *testing.T) {
	t.Parallel()

	store := graph.NewStore()

	agent := store.AddNode(models.NodeKindAgent, models.AgentKindOpenAI, models.Position{X: 10, Y: 20})
	require.NotNil(t, agent)
	assert.NotEmpty(t, agent.ID)
	assert.Equal(t, models.NodeKindAgent, agent.Kind)
	assert.Equal(t, models.AgentKindOpenAI, agent.SubKind)
	assert.Equal(t, 10.0, agent.Position.X)
	assert.Empty(t, agent.Config)

	routerNode := store.AddNode(models.NodeKindRouter, "", models.Position{})
	require.NotNil(t, routerNode)

	cfg, err := router.ParseConfig(routerNode.Config)
	require.NoError(t, err)
	assert.Equal(t, router.MinOutputPorts, cfg.OutputPorts)
	assert.Len(t, cfg.Rules, router.MinOutputPorts)
	assert.Equal(t, "*", cfg.Rules[0].Pattern)

	assert.Len(t, store.Nodes(), 2)
	assert.Same(t, agent, store.NodeByID(agent.ID))
}

func TestStore_AddConnection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		connect func(store *graph.Store, a, b *models.Node) *models.Connection
		created bool
	}{
		{
			name: "output to input",
			connect: func(store *graph.Store, a, b *models.Node) *models.Connection {
				return store.AddConnection(outPort(a.ID), inPort(b.ID))
			},
			created: true,
		},
		{
			name: "endpoints given input first are normalized",
			connect: func(store *graph.Store, a, b *models.Node) *models.Connection {
				return store.AddConnection(inPort(b.ID), outPort(a.ID))
			},
			created: true,
		},
		{
			name: "self loop is rejected",
			connect: func(store *graph.Store, a, _ *models.Node) *models.Connection {
				return store.AddConnection(outPort(a.ID), inPort(a.ID))
			},
		},
		{
			name: "two output ports are rejected",
			connect: func(store *graph.Store, a, b *models.Node) *models.Connection {
				return store.AddConnection(outPort(a.ID), outPort(b.ID))
			},
		},
		{
			name: "two input ports are rejected",
			connect: func(store *graph.Store, a, b *models.Node) *models.Connection {
				return store.AddConnection(inPort(a.ID), inPort(b.ID))
			},
		},
		{
			name: "unknown node is rejected",
			connect: func(store *graph.Store, a, _ *models.Node) *models.Connection {
				return store.AddConnection(outPort(a.ID), inPort("missing"))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := graph.NewStore()
			a := store.AddNode(models.NodeKindInput, "", models.Position{})
			b := store.AddNode(models.NodeKindAgent, models.AgentKindOpenAI, models.Position{})

			conn := tc.connect(store, a, b)

			if !tc.created {
				assert.Nil(t, conn)
				assert.Empty(t, store.Connections())

				return
			}

			require.NotNil(t, conn)
			assert.NotEmpty(t, conn.ID)

			// Stored connections always run output to input.
			assert.Equal(t, a.ID, conn.From.NodeID)
			assert.Equal(t, models.PortDirectionOutput, conn.From.Direction)
			assert.Equal(t, b.ID, conn.To.NodeID)
			assert.Equal(t, models.PortDirectionInput, conn.To.Direction)
			assert.Len(t, store.Connections(), 1)
		})
	}
}

func TestStore_AddConnection_SuppressesDuplicates(t *testing.T) {
	t.Parallel()

	store := graph.NewStore()
	a := store.AddNode(models.NodeKindInput, "", models.Position{})
	b := store.AddNode(models.NodeKindAgent, models.AgentKindOpenAI, models.Position{})

	first := store.AddConnection(outPort(a.ID), inPort(b.ID))
	require.NotNil(t, first)

	assert.Nil(t, store.AddConnection(outPort(a.ID), inPort(b.ID)))
	assert.Nil(t, store.AddConnection(inPort(b.ID), outPort(a.ID)))
	assert.Len(t, store.Connections(), 1)

	// A different port pair between the same nodes is a new connection.
	second := store.AddConnection(
		models.PortRef{NodeID: a.ID, Direction: models.PortDirectionOutput, Index: 1},
		inPort(b.ID),
	)
	require.NotNil(t, second)
	assert.Len(t, store.Connections(), 2)
}

func TestStore_RemoveNode_CascadesConnections(t *testing.T) {
	t.Parallel()

	store := graph.NewStore()
	input := store.AddNode(models.NodeKindInput, "", models.Position{})
	agent := store.AddNode(models.NodeKindAgent, models.AgentKindOpenAI, models.Position{})
	output := store.AddNode(models.NodeKindOutput, "", models.Position{})

	require.NotNil(t, store.AddConnection(outPort(input.ID), inPort(agent.ID)))
	require.NotNil(t, store.AddConnection(outPort(agent.ID), inPort(output.ID)))
	require.Len(t, store.Connections(), 2)

	store.RemoveNode(agent.ID)

	assert.Nil(t, store.NodeByID(agent.ID))
	assert.Len(t, store.Nodes(), 2)
	assert.Empty(t, store.Connections())

	// Removing an unknown id changes nothing.
	store.RemoveNode("missing")
	assert.Len(t, store.Nodes(), 2)
}

func TestStore_RemoveConnection(t *testing.T) {
	t.Parallel()

	store := graph.NewStore()
	input := store.AddNode(models.NodeKindInput, "", models.Position{})
	agent := store.AddNode(models.NodeKindAgent, models.AgentKindOpenAI, models.Position{})

	conn := store.AddConnection(outPort(input.ID), inPort(agent.ID))
	require.NotNil(t, conn)

	store.RemoveConnection(conn.ID)
	assert.Empty(t, store.Connections())
	assert.Len(t, store.Nodes(), 2)
}

func TestStore_UpdateNodeConfig(t *testing.T) {
	t.Parallel()

	store := graph.NewStore()
	agent := store.AddNode(models.NodeKindAgent, models.AgentKindOpenAI, models.Position{})

	err := store.UpdateNodeConfig(agent.ID, map[string]any{"model": "gpt-4o"})
	require.NoError(t, err)

	err = store.UpdateNodeConfig(agent.ID, map[string]any{"apiKey": "sk-test"})
	require.NoError(t, err)

	// Patches merge instead of replacing.
	assert.Equal(t, "gpt-4o", agent.ConfigString("model"))
	assert.Equal(t, "sk-test", agent.ConfigString("apiKey"))

	assert.ErrorIs(t, store.UpdateNodeConfig("missing", map[string]any{}), graph.ErrNodeNotFound)
}

func TestStore_UpdateNodeConfig_ReconcilesRouter(t *testing.T) {
	t.Parallel()

	store := graph.NewStore()
	routerNode := store.AddNode(models.NodeKindRouter, "", models.Position{})

	err := store.UpdateNodeConfig(routerNode.ID, map[string]any{
		router.KeyOutputPorts: 4,
	})
	require.NoError(t, err)

	cfg, err := router.ParseConfig(routerNode.Config)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.OutputPorts)
	require.Len(t, cfg.Rules, 4)

	for i, rule := range cfg.Rules {
		assert.Equal(t, i, rule.Port)
	}
}

func TestStore_UpdateNodeConfig_RejectedRouterPatchLeavesStoreUnchanged(t *testing.T) {
	t.Parallel()

	store := graph.NewStore()
	routerNode := store.AddNode(models.NodeKindRouter, "", models.Position{})

	err := store.UpdateNodeConfig(routerNode.ID, map[string]any{router.KeyOutputPorts: 1})
	assert.ErrorIs(t, err, router.ErrMinOutputPorts)

	err = store.UpdateNodeConfig(routerNode.ID, map[string]any{router.KeyStrategy: "bogus"})
	assert.Error(t, err)

	// Rejected patches never reach the stored config.
	cfg, err := router.ParseConfig(store.NodeByID(routerNode.ID).Config)
	require.NoError(t, err)
	assert.Equal(t, router.StrategyKeyword, cfg.Strategy)
	assert.Equal(t, router.MinOutputPorts, cfg.OutputPorts)
}

func TestStore_UpdateNodeConfig_RouterPatchKeepsUnrelatedKeys(t *testing.T) {
	t.Parallel()

	store := graph.NewStore()
	routerNode := store.AddNode(models.NodeKindRouter, "", models.Position{})

	require.NoError(t, store.UpdateNodeConfig(routerNode.ID, map[string]any{"label": "triage"}))
	require.NoError(t, store.UpdateNodeConfig(routerNode.ID, map[string]any{router.KeyOutputPorts: 3}))

	assert.Equal(t, "triage", routerNode.ConfigString("label"))

	// Switching strategy keeps the keyword rule list around for a switch back.
	require.NoError(t, store.UpdateNodeConfig(routerNode.ID, map[string]any{
		router.KeyStrategy: string(router.StrategyRandom),
	}))

	assert.Contains(t, routerNode.Config, router.KeyRules)
	assert.Contains(t, routerNode.Config, router.KeyWeights)
}

func TestFromCanvas_DropsUntrustedConnections(t *testing.T) {
	t.Parallel()

	canvas := &models.Canvas{
		ID:   "c1",
		Name: "test canvas",
		Nodes: []*models.Node{
			{ID: "in", Kind: models.NodeKindInput},
			{ID: "agent", Kind: models.NodeKindAgent, SubKind: models.AgentKindOpenAI},
		},
		Connections: []*models.Connection{
			{ID: "ok", From: outPort("in"), To: inPort("agent")},
			{ID: "duplicate", From: outPort("in"), To: inPort("agent")},
			{ID: "reversed", From: inPort("agent"), To: outPort("in")},
			{ID: "dangling", From: outPort("in"), To: inPort("ghost")},
			{ID: "selfloop", From: outPort("agent"), To: inPort("agent")},
			{ID: "samedir", From: outPort("in"), To: outPort("agent")},
		},
	}

	store := graph.FromCanvas(canvas)

	// Only the first valid connection survives: the duplicate and the
	// reversed copy of the same port pair are dropped with the rest.
	require.Len(t, store.Connections(), 1)

	conn := store.Connections()[0]
	assert.Equal(t, "ok", conn.ID)
	assert.Equal(t, "in", conn.From.NodeID)
	assert.Equal(t, models.PortDirectionOutput, conn.From.Direction)
	assert.Equal(t, "agent", conn.To.NodeID)
}

func TestStore_ToCanvas(t *testing.T) {
	t.Parallel()

	store := graph.NewStore()
	input := store.AddNode(models.NodeKindInput, "", models.Position{})
	output := store.AddNode(models.NodeKindOutput, "", models.Position{})
	require.NotNil(t, store.AddConnection(outPort(input.ID), inPort(output.ID)))

	canvas := store.ToCanvas()

	assert.Len(t, canvas.Nodes, 2)
	assert.Len(t, canvas.Connections, 1)
	assert.Equal(t, input.ID, canvas.Nodes[0].ID)
	assert.Equal(t, output.ID, canvas.Nodes[1].ID)
}
