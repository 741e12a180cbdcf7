package network

import (
	"fmt"

	"github.com/agentcanvas/agentcanvas/pkg/graph"
	"github.com/agentcanvas/agentcanvas/pkg/models"
)

// Minimum node count for a component to be surfaced as a runnable network.
const minNetworkNodes = 3

// Component is one maximal connected subgraph of the canvas, with its
// induced connection subset.
type Component struct {
	Nodes       []*models.Node
	Connections []*models.Connection
}

// Candidate is a component surfaced to the user as a selectable network.
type Candidate struct {
	Ordinal     int                  `json:"ordinal"`
	Name        string               `json:"name"`
	Nodes       []*models.Node       `json:"nodes"`
	Connections []*models.Connection `json:"connections"`
	// Partial marks a strict subset of the canvas, so the UI can offer both
	// the sub-network and the full canvas.
	Partial bool `json:"partial"`
}

// Components partitions the store into maximal connected subgraphs, treating
// connections as undirected edges. Traversal starts from each unvisited node
// in store insertion order, which makes the component order stable across
// repeated calls on an unchanged store.
func Components(store *graph.Store) []Component {
	nodes := store.Nodes()
	connections := store.Connections()

	adjacency := make(map[string][]string, len(nodes))

	for _, conn := range connections {
		adjacency[conn.From.NodeID] = append(adjacency[conn.From.NodeID], conn.To.NodeID)
		adjacency[conn.To.NodeID] = append(adjacency[conn.To.NodeID], conn.From.NodeID)
	}

	visited := make(map[string]bool, len(nodes))

	var components []Component

	for _, start := range nodes {
		if visited[start.ID] {
			continue
		}

		members := make(map[string]bool)
		stack := []string{start.ID}

		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if visited[id] {
				continue
			}

			visited[id] = true
			members[id] = true

			stack = append(stack, adjacency[id]...)
		}

		component := Component{}

		// Filter the store slices to keep insertion order inside the
		// component as well.
		for _, node := range nodes {
			if members[node.ID] {
				component.Nodes = append(component.Nodes, node)
			}
		}

		for _, conn := range connections {
			if members[conn.From.NodeID] && members[conn.To.NodeID] {
				component.Connections = append(component.Connections, conn)
			}
		}

		components = append(components, component)
	}

	return components
}

// Detect returns the components that qualify as selectable networks: at
// least three nodes, containing both an input and an output node, and
// passing validation. Ordinals and names number the surfaced networks in
// detection order.
func Detect(store *graph.Store) []Candidate {
	total := len(store.Nodes())

	var candidates []Candidate

	for _, component := range Components(store) {
		if len(component.Nodes) < minNetworkNodes {
			continue
		}

		var hasInput, hasOutput bool

		for _, node := range component.Nodes {
			if node.IsInput() {
				hasInput = true
			}

			if node.IsOutput() {
				hasOutput = true
			}
		}

		if !hasInput || !hasOutput {
			continue
		}

		if result := Validate(component.Nodes, component.Connections); !result.Valid {
			continue
		}

		ordinal := len(candidates) + 1
		candidates = append(candidates, Candidate{
			Ordinal:     ordinal,
			Name:        fmt.Sprintf("Network %d", ordinal),
			Nodes:       component.Nodes,
			Connections: component.Connections,
			Partial:     len(component.Nodes) < total,
		})
	}

	return candidates
}

// Export serializes the candidate into the wire format.
func (c Candidate) Export() models.Network {
	return models.ExportNetwork(c.Name, c.Nodes, c.Connections)
}
