package models

import (
	"fmt"
)

// PortDirection represents the direction of data flow for a port.
type PortDirection string

const (
	PortDirectionInput  PortDirection = "input"
	PortDirectionOutput PortDirection = "output"
)

// PortRef identifies a port by node, direction and index. Ports are not
// standalone entities; non-router nodes have at most one port per direction
// (index 0), routers address each output port by index.
type PortRef struct {
	NodeID    string        `json:"node_id"   validate:"required"`
	Direction PortDirection `json:"direction" validate:"required,oneof=input output"`
	Index     int           `json:"index"     validate:"min=0"`
}

// Key returns a stable identity string for the port, usable as a map key.
func (p PortRef) Key() string {
	return fmt.Sprintf("%s:%s:%d", p.NodeID, p.Direction, p.Index)
}

// IsOutput reports whether the port is an output port.
func (p PortRef) IsOutput() bool {
	return p.Direction == PortDirectionOutput
}
