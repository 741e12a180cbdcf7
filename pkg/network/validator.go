// Package network derives executable networks from the canvas graph:
// connected-component detection and structural validation.
package network

import (
	"fmt"
	"strings"

	"github.com/agentcanvas/agentcanvas/pkg/models"
	"github.com/agentcanvas/agentcanvas/pkg/nodes/agent"
)

// Result is the outcome of validating one candidate network. Errors
// accumulate across all checks; Valid is true only with zero errors.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate runs every structural and configuration check over a candidate
// subgraph. Checks never short-circuit: a network missing both an input node
// and a connection reports both problems at once.
func Validate(nodes []*models.Node, connections []*models.Connection) Result {
	var errs []string

	var hasInput, hasOutput bool

	for _, node := range nodes {
		if node.IsInput() {
			hasInput = true
		}

		if node.IsOutput() {
			hasOutput = true
		}
	}

	if !hasInput {
		errs = append(errs, "network has no input node")
	}

	if !hasOutput {
		errs = append(errs, "network has no output node")
	}

	if len(connections) == 0 {
		errs = append(errs, "network has no connections")
	}

	connected := make(map[string]bool)

	for _, conn := range connections {
		connected[conn.From.NodeID] = true
		connected[conn.To.NodeID] = true
	}

	var inputConnected, outputConnected bool

	for _, node := range nodes {
		if !connected[node.ID] {
			errs = append(errs, fmt.Sprintf("node %q is not connected to anything", displayName(node)))

			continue
		}

		if node.IsInput() {
			inputConnected = true
		}

		if node.IsOutput() {
			outputConnected = true
		}
	}

	// Endpoint incidence only; full input-to-output path reachability is
	// deliberately not required here.
	if hasInput && !inputConnected {
		errs = append(errs, "no input node is connected to the network")
	}

	if hasOutput && !outputConnected {
		errs = append(errs, "no output node is connected to the network")
	}

	for _, node := range nodes {
		if !node.IsAgent() {
			continue
		}

		if missing := agent.CheckConfig(node); len(missing) > 0 {
			errs = append(errs, fmt.Sprintf(
				"agent %q (%s) is not fully configured: missing %s",
				displayName(node), node.SubKind, strings.Join(missing, ", "),
			))
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

func displayName(node *models.Node) string {
	if node.Name != "" {
		return node.Name
	}

	return node.ID
}
