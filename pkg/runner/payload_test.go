package runner

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcanvas/agentcanvas/pkg/models"
)

func sampleNetwork(name string) models.Network {
	return models.Network{
		Name: name,
		Nodes: []models.NetworkNode{
			{ID: "in", Type: "input"},
			{ID: "agent", Type: "agent", SubType: "openai"},
			{ID: "out", Type: "output"},
		},
		Connections: []models.NetworkConnection{
			{SourceNode: "in", SourcePort: "output", TargetNode: "agent", TargetPort: "input", EdgeType: "default"},
			{SourceNode: "agent", SourcePort: "output", TargetNode: "out", TargetPort: "input", EdgeType: "default"},
		},
	}
}

func TestBuildPayload_SingleNetworkIsFlat(t *testing.T) {
	t.Parallel()

	selected := []Selected{{ID: "network_1", Network: sampleNetwork("Network 1")}}

	payload, err := BuildPayload(selected, ModeSequential, "hello")
	require.NoError(t, err)

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))

	// The single-network form merges the network fields with the input; there
	// is no networks array and no execution mode.
	assert.Equal(t, "Network 1", body["name"])
	assert.Equal(t, "hello", body["input"])
	assert.Len(t, body["nodes"], 3)
	assert.NotContains(t, body, "networks")
	assert.NotContains(t, body, "execution_mode")
}

func TestBuildPayload_MultipleNetworks(t *testing.T) {
	t.Parallel()

	selected := []Selected{
		{ID: "network_1", Network: sampleNetwork("Network 1")},
		{ID: "network_2", Network: sampleNetwork("Network 2")},
	}

	payload, err := BuildPayload(selected, ModeParallel, "hi")
	require.NoError(t, err)

	multi, ok := payload.(MultiPayload)
	require.True(t, ok)

	require.Len(t, multi.Networks, 2)
	assert.Equal(t, "network_1", multi.Networks[0].ID)
	assert.Equal(t, "Network 2", multi.Networks[1].Data.Name)
	assert.Equal(t, ModeParallel, multi.ExecutionMode)
	assert.Equal(t, "hi", multi.Input)
}

func TestBuildPayload_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		selected []Selected
		mode     Mode
		wantErr  error
	}{
		{
			name:    "empty selection",
			mode:    ModeSequential,
			wantErr: ErrNoNetworks,
		},
		{
			name:     "unknown mode",
			selected: []Selected{{ID: "network_1", Network: sampleNetwork("Network 1")}},
			mode:     Mode("round-robin"),
			wantErr:  ErrInvalidMode,
		},
		{
			name:     "empty mode",
			selected: []Selected{{ID: "network_1", Network: sampleNetwork("Network 1")}},
			mode:     Mode(""),
			wantErr:  ErrInvalidMode,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			payload, err := BuildPayload(tc.selected, tc.mode, "")
			assert.Nil(t, payload)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
