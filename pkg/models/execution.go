package models

// ExecutionStatus defines the lifecycle states reported by the execution
// service for a submitted run.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "PENDING"
	ExecutionStatusRunning   ExecutionStatus = "RUNNING"
	ExecutionStatusCompleted ExecutionStatus = "COMPLETED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
)

// Terminal reports whether the status ends a poll chain.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// NodeExecutionStatus is the per-node slice of an execution status report.
type NodeExecutionStatus struct {
	Status   string `json:"status"`
	Name     string `json:"name"`
	Error    string `json:"error,omitempty"`
	UINodeID string `json:"ui_node_id"`
}

// ExecutionStatusReport is the body of the execution-status endpoint.
type ExecutionStatusReport struct {
	Status       ExecutionStatus                `json:"status"`
	NodeStatuses map[string]NodeExecutionStatus `json:"node_statuses,omitempty"`
	Result       any                            `json:"result,omitempty"`
	Error        string                         `json:"error,omitempty"`
}
