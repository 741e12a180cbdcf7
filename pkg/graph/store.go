// Package graph holds the live editor state: nodes and connections with
// referential integrity. Every mutation goes through one of the store
// methods; nothing else touches the slices.
package graph

import (
	"github.com/google/uuid"

	"github.com/agentcanvas/agentcanvas/pkg/models"
	"github.com/agentcanvas/agentcanvas/pkg/nodes/router"
)

// Store is the single source of truth for one canvas. It is not safe for
// concurrent use; the editor mutates it from a single event loop and the API
// server guards it per request.
type Store struct {
	nodes       []*models.Node
	connections []*models.Connection
	nodesByID   map[string]*models.Node
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		nodes:       make([]*models.Node, 0),
		connections: make([]*models.Connection, 0),
		nodesByID:   make(map[string]*models.Node),
	}
}

// FromCanvas builds a store from a persisted canvas, keeping node order.
// Connections that fail the port rules (self-loops, mismatched directions,
// dangling endpoints) or duplicate an earlier one are dropped rather than
// trusted.
func FromCanvas(canvas *models.Canvas) *Store {
	store := NewStore()

	for _, node := range canvas.Nodes {
		store.nodes = append(store.nodes, node)
		store.nodesByID[node.ID] = node
	}

	for _, conn := range canvas.Connections {
		if !CanConnect(conn.From, conn.To) {
			continue
		}

		if store.nodesByID[conn.From.NodeID] == nil || store.nodesByID[conn.To.NodeID] == nil {
			continue
		}

		if store.hasConnection(conn.From, conn.To) {
			continue
		}

		store.connections = append(store.connections, normalize(conn))
	}

	return store
}

// Nodes returns the nodes in insertion order. The slice is shared; callers
// must not mutate it.
func (s *Store) Nodes() []*models.Node {
	return s.nodes
}

// Connections returns the connections in insertion order. The slice is
// shared; callers must not mutate it.
func (s *Store) Connections() []*models.Connection {
	return s.connections
}

// NodeByID returns the node with the given id, or nil.
func (s *Store) NodeByID(id string) *models.Node {
	return s.nodesByID[id]
}

// AddNode places a new node with kind-specific default config and returns it.
func (s *Store) AddNode(kind models.NodeKind, subKind string, position models.Position) *models.Node {
	node := &models.Node{
		ID:       uuid.New().String(),
		Kind:     kind,
		SubKind:  subKind,
		Position: position,
		Config:   defaultConfig(kind),
	}

	s.nodes = append(s.nodes, node)
	s.nodesByID[node.ID] = node

	return node
}

// RemoveNode removes the node and every connection touching it. Removing an
// unknown id is a no-op.
func (s *Store) RemoveNode(id string) {
	if s.nodesByID[id] == nil {
		return
	}

	delete(s.nodesByID, id)

	nodes := s.nodes[:0]

	for _, node := range s.nodes {
		if node.ID != id {
			nodes = append(nodes, node)
		}
	}

	s.nodes = nodes

	connections := s.connections[:0]

	for _, conn := range s.connections {
		if !conn.Touches(id) {
			connections = append(connections, conn)
		}
	}

	s.connections = connections
}

// AddConnection creates a connection between two ports. The endpoints may be
// given in either order; the stored connection always runs output to input.
// Self-loops and duplicates (the same exact port pair, in either
// orientation) return nil.
func (s *Store) AddConnection(from, to models.PortRef) *models.Connection {
	if !CanConnect(from, to) {
		return nil
	}

	if s.nodesByID[from.NodeID] == nil || s.nodesByID[to.NodeID] == nil {
		return nil
	}

	if s.hasConnection(from, to) {
		return nil
	}

	conn := normalize(&models.Connection{ID: uuid.New().String(), From: from, To: to})
	s.connections = append(s.connections, conn)

	return conn
}

// hasConnection reports whether a connection already joins the exact port
// pair, in either orientation.
func (s *Store) hasConnection(from, to models.PortRef) bool {
	for _, existing := range s.connections {
		if existing.Joins(from, to) {
			return true
		}
	}

	return false
}

// RemoveConnection removes a single connection by id; no cascade.
func (s *Store) RemoveConnection(id string) {
	connections := s.connections[:0]

	for _, conn := range s.connections {
		if conn.ID != id {
			connections = append(connections, conn)
		}
	}

	s.connections = connections
}

// UpdateNodeConfig shallow-merges patch into the node's config. Router nodes
// are validated and reconciled on the merged copy first, so a rejected patch
// leaves the stored config untouched.
func (s *Store) UpdateNodeConfig(id string, patch map[string]any) error {
	node := s.nodesByID[id]
	if node == nil {
		return ErrNodeNotFound
	}

	merged := make(map[string]any, len(node.Config)+len(patch))

	for key, value := range node.Config {
		merged[key] = value
	}

	for key, value := range patch {
		merged[key] = value
	}

	if node.IsRouter() {
		cfg, err := router.ParseConfig(merged)
		if err != nil {
			return err
		}

		cfg.Reconcile()

		// Only the router keys are rewritten; the config stays an open
		// mapping and unrelated keys ride along.
		for key, value := range cfg.ToMap() {
			merged[key] = value
		}
	}

	node.Config = merged

	return nil
}

// ToCanvas exports the store into a persisted canvas document. Identity
// fields are left for the caller to fill in.
func (s *Store) ToCanvas() *models.Canvas {
	return &models.Canvas{
		Nodes:       s.nodes,
		Connections: s.connections,
	}
}

// normalize swaps endpoints so From is the output side.
func normalize(conn *models.Connection) *models.Connection {
	if conn.From.Direction == models.PortDirectionInput {
		conn.From, conn.To = conn.To, conn.From
	}

	return conn
}

// defaultConfig builds the kind-specific initial config for a new node.
func defaultConfig(kind models.NodeKind) map[string]any {
	if kind == models.NodeKindRouter {
		return router.DefaultConfig().ToMap()
	}

	return make(map[string]any)
}
