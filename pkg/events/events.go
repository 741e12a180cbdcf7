// Package events defines event types for canvas and run lifecycle
// notifications.
package events

import (
	"time"
)

type EventType string

// Topic carries all canvas and run lifecycle events.
const Topic = "agentcanvas.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Canvas lifecycle events.
	CanvasCreatedEvent EventType = "canvas.created"
	CanvasUpdatedEvent EventType = "canvas.updated"
	CanvasDeletedEvent EventType = "canvas.deleted"

	// Run lifecycle events.
	RunStartedEvent   EventType = "run.started"
	RunCompletedEvent EventType = "run.completed"
	RunFailedEvent    EventType = "run.failed"
	RunTimedOutEvent  EventType = "run.timed_out"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	CanvasID  string         `json:"canvas_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type CanvasCreated struct {
	BaseEvent

	Name string `json:"name"`
}

func (e CanvasCreated) GetType() EventType {
	return CanvasCreatedEvent
}

type CanvasUpdated struct {
	BaseEvent

	Name            string `json:"name"`
	NodeCount       int    `json:"node_count"`
	ConnectionCount int    `json:"connection_count"`
}

func (e CanvasUpdated) GetType() EventType {
	return CanvasUpdatedEvent
}

type CanvasDeleted struct {
	BaseEvent
}

func (e CanvasDeleted) GetType() EventType {
	return CanvasDeletedEvent
}

type RunStarted struct {
	BaseEvent

	ExecutionID   string `json:"execution_id,omitempty"`
	NetworkCount  int    `json:"network_count"`
	ExecutionMode string `json:"execution_mode"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

type RunCompleted struct {
	BaseEvent

	ExecutionID string        `json:"execution_id,omitempty"`
	Duration    time.Duration `json:"duration"`
}

func (e RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

type RunFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id,omitempty"`
	Error       string `json:"error"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

// RunTimedOut is published when the status poll cap is exceeded. Distinct
// from RunFailed: the job may still be running on the execution service.
type RunTimedOut struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	Attempts    int    `json:"attempts"`
}

func (e RunTimedOut) GetType() EventType {
	return RunTimedOutEvent
}
