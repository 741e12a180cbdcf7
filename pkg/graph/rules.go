package graph

import (
	"errors"

	"github.com/agentcanvas/agentcanvas/pkg/models"
)

// ErrNodeNotFound indicates a node id not present in the store.
var ErrNodeNotFound = errors.New("node not found in store")

// CanConnect decides whether two ports may be joined: they must belong to
// different nodes and have opposite directions. The same predicate gates
// interactive connection creation and externally loaded graphs.
func CanConnect(a, b models.PortRef) bool {
	if a.NodeID == b.NodeID {
		return false
	}

	return (a.Direction == models.PortDirectionInput && b.Direction == models.PortDirectionOutput) ||
		(a.Direction == models.PortDirectionOutput && b.Direction == models.PortDirectionInput)
}
