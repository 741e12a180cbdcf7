// Package web provides HTTP request and response types for the canvas API.
package web

import "github.com/agentcanvas/agentcanvas/pkg/models"

// CreateCanvasRequest represents the request body for creating a new canvas.
type CreateCanvasRequest struct {
	Name        string         `json:"name"               validate:"required,min=3"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Owner       string         `json:"owner"`
}

// UpdateCanvasRequest represents the request body for updating canvas
// metadata. All fields are optional to support partial updates.
type UpdateCanvasRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string `json:"description,omitempty"`
	Owner       *string `json:"owner,omitempty"`
}

// CreateNodeRequest represents the request body for placing a node.
type CreateNodeRequest struct {
	Kind     string          `json:"kind"     validate:"required,oneof=agent tool input output router"`
	SubKind  string          `json:"sub_kind"`
	Position models.Position `json:"position"`
	Config   map[string]any  `json:"config,omitempty"`
}

// UpdateNodeConfigRequest represents a config patch for an existing node.
type UpdateNodeConfigRequest struct {
	Config map[string]any `json:"config" validate:"required"`
}

// PortRefRequest identifies one port of a node in a connection request.
type PortRefRequest struct {
	NodeID    string `json:"node_id"   validate:"required"`
	Direction string `json:"direction" validate:"required,oneof=input output"`
	Index     int    `json:"index"     validate:"min=0"`
}

// ToPortRef converts the request payload into the model form.
func (r PortRefRequest) ToPortRef() models.PortRef {
	return models.PortRef{
		NodeID:    r.NodeID,
		Direction: models.PortDirection(r.Direction),
		Index:     r.Index,
	}
}

// CreateConnectionRequest represents the request body for connecting two
// ports. The endpoints may be given in either order.
type CreateConnectionRequest struct {
	From PortRefRequest `json:"from" validate:"required"`
	To   PortRefRequest `json:"to"   validate:"required"`
}

// RunRequest represents the request body for running networks of a canvas.
// Networks selects detected networks by ordinal; empty runs them all. Wait
// keeps the request open through the status poll loop instead of returning
// an execution id to poll.
type RunRequest struct {
	Networks []int  `json:"networks,omitempty"`
	Mode     string `json:"mode,omitempty"  validate:"omitempty,oneof=sequential parallel"`
	Input    string `json:"input"`
	Wait     bool   `json:"wait,omitempty"`
}
