package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcanvas/agentcanvas/pkg/models"
)

func node(id string, kind models.NodeKind, subKind string, config map[string]any) *models.Node {
	return &models.Node{ID: id, Kind: kind, SubKind: subKind, Config: config}
}

func connect(id, from, to string) *models.Connection {
	return &models.Connection{
		ID:   id,
		From: models.PortRef{NodeID: from, Direction: models.PortDirectionOutput},
		To:   models.PortRef{NodeID: to, Direction: models.PortDirectionInput},
	}
}

func configuredAgent(id string) *models.Node {
	return node(id, models.NodeKindAgent, models.AgentKindOpenAI, map[string]any{
		"apiKey": "sk-test",
		"model":  "gpt-4o",
	})
}

func TestValidate_ValidNetwork(t *testing.T) {
	t.Parallel()

	nodes := []*models.Node{
		node("in", models.NodeKindInput, "", nil),
		configuredAgent("agent"),
		node("out", models.NodeKindOutput, "", nil),
	}
	connections := []*models.Connection{
		connect("c1", "in", "agent"),
		connect("c2", "agent", "out"),
	}

	result := Validate(nodes, connections)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	t.Parallel()

	// No input, no output, no connections: every failed check is reported in
	// the same pass.
	result := Validate([]*models.Node{configuredAgent("agent")}, nil)

	require.False(t, result.Valid)
	assert.Contains(t, result.Errors, "network has no input node")
	assert.Contains(t, result.Errors, "network has no output node")
	assert.Contains(t, result.Errors, "network has no connections")
	assert.Contains(t, result.Errors, `node "agent" is not connected to anything`)
}

func TestValidate_IsolatedNode(t *testing.T) {
	t.Parallel()

	nodes := []*models.Node{
		node("in", models.NodeKindInput, "", nil),
		configuredAgent("agent"),
		node("out", models.NodeKindOutput, "", nil),
		node("stray", models.NodeKindTool, models.ToolKindSearch, nil),
	}
	connections := []*models.Connection{
		connect("c1", "in", "agent"),
		connect("c2", "agent", "out"),
	}

	result := Validate(nodes, connections)

	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, `node "stray" is not connected to anything`, result.Errors[0])
}

func TestValidate_IsolatedNodeUsesDisplayName(t *testing.T) {
	t.Parallel()

	stray := node("stray-id", models.NodeKindTool, models.ToolKindSearch, nil)
	stray.Name = "Web Search"

	nodes := []*models.Node{
		node("in", models.NodeKindInput, "", nil),
		node("out", models.NodeKindOutput, "", nil),
		stray,
	}
	connections := []*models.Connection{connect("c1", "in", "out")}

	result := Validate(nodes, connections)

	require.False(t, result.Valid)
	assert.Contains(t, result.Errors, `node "Web Search" is not connected to anything`)
}

func TestValidate_DisconnectedEndpoints(t *testing.T) {
	t.Parallel()

	// Input and output are present but neither carries a connection.
	nodes := []*models.Node{
		node("in", models.NodeKindInput, "", nil),
		node("out", models.NodeKindOutput, "", nil),
		configuredAgent("a1"),
		configuredAgent("a2"),
	}
	connections := []*models.Connection{connect("c1", "a1", "a2")}

	result := Validate(nodes, connections)

	require.False(t, result.Valid)
	assert.Contains(t, result.Errors, "no input node is connected to the network")
	assert.Contains(t, result.Errors, "no output node is connected to the network")
}

func TestValidate_UnconfiguredAgent(t *testing.T) {
	t.Parallel()

	agent := node("agent", models.NodeKindAgent, models.AgentKindOpenAI, map[string]any{
		"model": "gpt-4o",
	})
	agent.Name = "Support Agent"

	nodes := []*models.Node{
		node("in", models.NodeKindInput, "", nil),
		agent,
		node("out", models.NodeKindOutput, "", nil),
	}
	connections := []*models.Connection{
		connect("c1", "in", "agent"),
		connect("c2", "agent", "out"),
	}

	result := Validate(nodes, connections)

	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, `agent "Support Agent" (openai) is not fully configured: missing apiKey`, result.Errors[0])
}
