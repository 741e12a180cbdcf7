// Package services provides the business operations behind the editor API.
package services

import (
	"errors"
	"fmt"

	"github.com/agentcanvas/agentcanvas/pkg/nodes/router"
	"github.com/agentcanvas/agentcanvas/pkg/runner"
)

// Business logic errors - these indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest      = errors.New("invalid request")
	ErrCanvasNameRequired  = errors.New("canvas name is required")
	ErrCanvasNil           = errors.New("canvas cannot be nil")
	ErrUnknownNodeKind     = errors.New("unknown node kind")
	ErrSelfConnection      = errors.New("cannot connect a node to itself")
	ErrInvalidConnection   = errors.New("connection endpoints must be one output and one input port")
	ErrDuplicateConnection = errors.New("connection between these ports already exists")
	ErrNoValidNetworks     = errors.New("canvas contains no valid networks")
	ErrUnknownNetwork      = errors.New("selected network does not exist")
	ErrExecutionNotFound   = errors.New("execution not found")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should
// return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrCanvasNameRequired) ||
		errors.Is(err, ErrCanvasNil) ||
		errors.Is(err, ErrUnknownNodeKind) ||
		errors.Is(err, ErrSelfConnection) ||
		errors.Is(err, ErrInvalidConnection) ||
		errors.Is(err, ErrDuplicateConnection) ||
		errors.Is(err, ErrNoValidNetworks) ||
		errors.Is(err, ErrUnknownNetwork) ||
		errors.Is(err, runner.ErrNoNetworks) ||
		errors.Is(err, runner.ErrInvalidMode)
}

// IsRejectedOperation checks if an error is a rejected mutation that leaves
// the canvas unchanged, such as removing a router port below the minimum.
func IsRejectedOperation(err error) bool {
	return errors.Is(err, router.ErrMinOutputPorts) ||
		errors.Is(err, router.ErrPortOutOfRange)
}
