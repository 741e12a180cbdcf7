package graph

import (
	"errors"

	"github.com/agentcanvas/agentcanvas/pkg/models"
	"github.com/agentcanvas/agentcanvas/pkg/nodes/router"
)

// ErrNotRouter indicates a router port operation on a non-router node.
var ErrNotRouter = errors.New("node is not a router")

// AddRouterOutputPort grows the router's output-port count by one and
// extends its rule list for the new port.
func (s *Store) AddRouterOutputPort(nodeID string) error {
	node := s.nodesByID[nodeID]
	if node == nil {
		return ErrNodeNotFound
	}

	if !node.IsRouter() {
		return ErrNotRouter
	}

	cfg, err := router.ParseConfig(node.Config)
	if err != nil {
		return err
	}

	cfg.AddOutputPort()
	node.Config = cfg.ToMap()

	return nil
}

// RemoveRouterOutputPort removes one output port from the router, in the
// same transaction dropping connections leaving that port and renumbering
// connections on higher ports down by one. Removal below the two-port
// minimum is rejected with router.ErrMinOutputPorts and nothing changes.
func (s *Store) RemoveRouterOutputPort(nodeID string, index int) error {
	node := s.nodesByID[nodeID]
	if node == nil {
		return ErrNodeNotFound
	}

	if !node.IsRouter() {
		return ErrNotRouter
	}

	cfg, err := router.ParseConfig(node.Config)
	if err != nil {
		return err
	}

	if err := cfg.RemoveOutputPort(index); err != nil {
		return err
	}

	node.Config = cfg.ToMap()

	connections := s.connections[:0]

	for _, conn := range s.connections {
		if conn.From.NodeID == nodeID && conn.From.Direction == models.PortDirectionOutput {
			if conn.From.Index == index {
				continue
			}

			if conn.From.Index > index {
				conn.From.Index--
			}
		}

		connections = append(connections, conn)
	}

	s.connections = connections

	return nil
}
