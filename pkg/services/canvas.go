package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/agentcanvas/agentcanvas/pkg/eventbus"
	"github.com/agentcanvas/agentcanvas/pkg/events"
	"github.com/agentcanvas/agentcanvas/pkg/graph"
	"github.com/agentcanvas/agentcanvas/pkg/models"
	"github.com/agentcanvas/agentcanvas/pkg/persistence"
	"github.com/agentcanvas/agentcanvas/pkg/registry"
)

// CanvasService owns canvas lifecycle and graph mutations. Every mutation
// loads the canvas, rebuilds the store, applies the change, and persists the
// result, so the persisted document never holds a half-applied edit.
type CanvasService struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	registry    *registry.Registry
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewCanvasService(
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	reg *registry.Registry,
	logger *slog.Logger,
) *CanvasService {
	return &CanvasService{
		persistence: persistence,
		eventBus:    eventBus,
		registry:    reg,
		validator:   validator.New(),
		logger:      logger.With("module", "canvas_service"),
	}
}

// Create persists a new canvas with a generated id and timestamps.
func (s *CanvasService) Create(ctx context.Context, canvas *models.Canvas) (*models.Canvas, error) {
	if canvas == nil {
		return nil, &ServiceError{Op: "Create", Err: ErrCanvasNil}
	}

	if err := s.validator.Struct(canvas); err != nil {
		return nil, &ServiceError{Op: "Create", Message: err.Error(), Err: ErrCanvasNameRequired}
	}

	now := time.Now().UTC()
	canvas.ID = uuid.New().String()
	canvas.CreatedAt = now
	canvas.UpdatedAt = now

	if canvas.Nodes == nil {
		canvas.Nodes = make([]*models.Node, 0)
	}

	if canvas.Connections == nil {
		canvas.Connections = make([]*models.Connection, 0)
	}

	if err := s.persistence.SaveCanvas(ctx, canvas); err != nil {
		return nil, &ServiceError{Op: "Create", Err: err}
	}

	s.publish(ctx, canvas.ID, events.CanvasCreated{
		BaseEvent: s.baseEvent(events.CanvasCreatedEvent, canvas.ID),
		Name:      canvas.Name,
	})

	return canvas, nil
}

// FetchAll returns every persisted canvas.
func (s *CanvasService) FetchAll(ctx context.Context) ([]*models.Canvas, error) {
	return s.persistence.Canvases(ctx)
}

// FetchByID returns one canvas by id.
func (s *CanvasService) FetchByID(ctx context.Context, id string) (*models.Canvas, error) {
	return s.persistence.CanvasByID(ctx, id)
}

// Update replaces the canvas metadata (name, description, owner). Nodes and
// connections only change through the graph operations.
func (s *CanvasService) Update(ctx context.Context, id string, name, description, owner string) (*models.Canvas, error) {
	canvas, err := s.persistence.CanvasByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != "" {
		canvas.Name = name
	}

	if description != "" {
		canvas.Description = description
	}

	if owner != "" {
		canvas.Owner = owner
	}

	if err := s.validator.Struct(canvas); err != nil {
		return nil, &ServiceError{Op: "Update", Message: err.Error(), Err: ErrCanvasNameRequired}
	}

	canvas.UpdatedAt = time.Now().UTC()

	if err := s.persistence.SaveCanvas(ctx, canvas); err != nil {
		return nil, &ServiceError{Op: "Update", Err: err}
	}

	s.publishUpdated(ctx, canvas)

	return canvas, nil
}

// Delete removes a canvas.
func (s *CanvasService) Delete(ctx context.Context, id string) error {
	if err := s.persistence.DeleteCanvas(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, id, events.CanvasDeleted{
		BaseEvent: s.baseEvent(events.CanvasDeletedEvent, id),
	})

	return nil
}

// AddNode places a node on the canvas. The config, when given, is validated
// against the node kind's schema and merged over the kind defaults.
func (s *CanvasService) AddNode(
	ctx context.Context,
	canvasID string,
	kind models.NodeKind,
	subKind string,
	position models.Position,
	config map[string]any,
) (*models.Node, error) {
	if !knownKind(kind) {
		return nil, &ServiceError{Op: "AddNode", Message: string(kind), Err: ErrUnknownNodeKind}
	}

	if len(config) > 0 {
		if err := s.registry.ValidateConfig(kind, subKind, config); err != nil {
			return nil, &ServiceError{Op: "AddNode", Message: err.Error(), Err: ErrInvalidRequest}
		}
	}

	var node *models.Node

	_, err := s.mutate(ctx, "AddNode", canvasID, func(store *graph.Store) error {
		node = store.AddNode(kind, subKind, position)

		if len(config) > 0 {
			return store.UpdateNodeConfig(node.ID, config)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return node, nil
}

// RemoveNode removes a node and every connection touching it.
func (s *CanvasService) RemoveNode(ctx context.Context, canvasID, nodeID string) error {
	_, err := s.mutate(ctx, "RemoveNode", canvasID, func(store *graph.Store) error {
		if store.NodeByID(nodeID) == nil {
			return graph.ErrNodeNotFound
		}

		store.RemoveNode(nodeID)

		return nil
	})

	return err
}

// AddConnection connects two ports, in either endpoint order. Self-loops,
// same-direction pairs, and duplicates are rejected without changing the
// canvas.
func (s *CanvasService) AddConnection(ctx context.Context, canvasID string, from, to models.PortRef) (*models.Connection, error) {
	var conn *models.Connection

	_, err := s.mutate(ctx, "AddConnection", canvasID, func(store *graph.Store) error {
		if from.NodeID == to.NodeID {
			return ErrSelfConnection
		}

		if store.NodeByID(from.NodeID) == nil || store.NodeByID(to.NodeID) == nil {
			return graph.ErrNodeNotFound
		}

		for _, existing := range store.Connections() {
			if existing.Joins(from, to) {
				return ErrDuplicateConnection
			}
		}

		conn = store.AddConnection(from, to)
		if conn == nil {
			return ErrInvalidConnection
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return conn, nil
}

// RemoveConnection removes one connection by id.
func (s *CanvasService) RemoveConnection(ctx context.Context, canvasID, connectionID string) error {
	_, err := s.mutate(ctx, "RemoveConnection", canvasID, func(store *graph.Store) error {
		store.RemoveConnection(connectionID)

		return nil
	})

	return err
}

// UpdateNodeConfig merges a config patch into a node, validating the merged
// result against the node kind's schema. Router configs are reconciled so
// the port-count and rule-list invariants hold afterwards.
func (s *CanvasService) UpdateNodeConfig(ctx context.Context, canvasID, nodeID string, patch map[string]any) (*models.Node, error) {
	var node *models.Node

	_, err := s.mutate(ctx, "UpdateNodeConfig", canvasID, func(store *graph.Store) error {
		node = store.NodeByID(nodeID)
		if node == nil {
			return graph.ErrNodeNotFound
		}

		merged := make(map[string]any, len(node.Config)+len(patch))
		for key, value := range node.Config {
			merged[key] = value
		}

		for key, value := range patch {
			merged[key] = value
		}

		if err := s.registry.ValidateConfig(node.Kind, node.SubKind, merged); err != nil {
			return &ServiceError{Op: "UpdateNodeConfig", Message: err.Error(), Err: ErrInvalidRequest}
		}

		return store.UpdateNodeConfig(nodeID, patch)
	})
	if err != nil {
		return nil, err
	}

	return node, nil
}

// AddRouterPort adds one output port to a router node.
func (s *CanvasService) AddRouterPort(ctx context.Context, canvasID, nodeID string) (*models.Node, error) {
	var node *models.Node

	_, err := s.mutate(ctx, "AddRouterPort", canvasID, func(store *graph.Store) error {
		if err := store.AddRouterOutputPort(nodeID); err != nil {
			return err
		}

		node = store.NodeByID(nodeID)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return node, nil
}

// RemoveRouterPort removes one router output port, cascading to the
// connections leaving it. Dropping below the two-port minimum is rejected
// and the canvas is left untouched.
func (s *CanvasService) RemoveRouterPort(ctx context.Context, canvasID, nodeID string, index int) (*models.Node, error) {
	var node *models.Node

	_, err := s.mutate(ctx, "RemoveRouterPort", canvasID, func(store *graph.Store) error {
		if err := store.RemoveRouterOutputPort(nodeID, index); err != nil {
			return err
		}

		node = store.NodeByID(nodeID)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return node, nil
}

// HealthCheck verifies the persistence backend is reachable.
func (s *CanvasService) HealthCheck(ctx context.Context) error {
	return s.persistence.HealthCheck(ctx)
}

// mutate runs fn against the canvas graph and persists the result. Any error
// from fn aborts before the save, so rejected mutations never reach storage.
func (s *CanvasService) mutate(ctx context.Context, op, canvasID string, fn func(store *graph.Store) error) (*models.Canvas, error) {
	canvas, err := s.persistence.CanvasByID(ctx, canvasID)
	if err != nil {
		return nil, err
	}

	store := graph.FromCanvas(canvas)

	if err := fn(store); err != nil {
		return nil, &ServiceError{Op: op, Err: err}
	}

	updated := store.ToCanvas()
	updated.ID = canvas.ID
	updated.Name = canvas.Name
	updated.Description = canvas.Description
	updated.Metadata = canvas.Metadata
	updated.Owner = canvas.Owner
	updated.CreatedAt = canvas.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if err := s.persistence.SaveCanvas(ctx, updated); err != nil {
		return nil, &ServiceError{Op: op, Err: err}
	}

	s.publishUpdated(ctx, updated)

	return updated, nil
}

func (s *CanvasService) publishUpdated(ctx context.Context, canvas *models.Canvas) {
	s.publish(ctx, canvas.ID, events.CanvasUpdated{
		BaseEvent:       s.baseEvent(events.CanvasUpdatedEvent, canvas.ID),
		Name:            canvas.Name,
		NodeCount:       len(canvas.Nodes),
		ConnectionCount: len(canvas.Connections),
	})
}

func (s *CanvasService) baseEvent(eventType events.EventType, canvasID string) events.BaseEvent {
	return events.BaseEvent{
		ID:        s.eventBus.GenerateID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		CanvasID:  canvasID,
	}
}

// publish emits an event without failing the operation: the mutation already
// persisted, and a dropped notification is recoverable.
func (s *CanvasService) publish(ctx context.Context, key string, event eventbus.Event) {
	if err := s.eventBus.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event",
			"event_type", event.GetType(), "canvas_id", key, "error", err)
	}
}

func knownKind(kind models.NodeKind) bool {
	switch kind {
	case models.NodeKindAgent, models.NodeKindTool, models.NodeKindInput,
		models.NodeKindOutput, models.NodeKindRouter:
		return true
	default:
		return false
	}
}
