// Package persistence provides standardized error types for storage
// operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrCanvasNotFound indicates a canvas was not found by the given identifier.
	ErrCanvasNotFound = errors.New("canvas not found")

	// ErrCanvasAlreadyExists indicates a canvas with the same identifier already exists.
	ErrCanvasAlreadyExists = errors.New("canvas already exists")
)

// CanvasError wraps canvas storage errors with additional context.
type CanvasError struct {
	Op       string // Operation being performed (e.g., "CanvasByID", "Save", "Delete")
	CanvasID string // Canvas ID if applicable
	Err      error  // Underlying error
	Message  string // Additional context message
}

func (e *CanvasError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for canvas %s: %s (%v)", e.Op, e.CanvasID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for canvas %s: %v", e.Op, e.CanvasID, e.Err)
}

func (e *CanvasError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for canvas errors.
func (e *CanvasError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewCanvasError creates a new canvas error with context.
func NewCanvasError(op, canvasID string, err error) *CanvasError {
	return &CanvasError{
		Op:       op,
		CanvasID: canvasID,
		Err:      err,
	}
}

// IsCanvasNotFound checks if an error indicates a canvas was not found.
func IsCanvasNotFound(err error) bool {
	return errors.Is(err, ErrCanvasNotFound)
}
