package models

import "time"

// Execution is the persisted record of one workflow run: what was run, with
// what input, and how each node within it fared. This is the storage/API
// view of a run, distinct from the engine's in-memory ExecutionResult.
type Execution struct {
	ID             string                 `json:"id"`
	WorkflowID     string                 `json:"workflow_id"`
	WorkflowName   string                 `json:"workflow_name,omitempty"`
	Status         ExecutionStatus        `json:"status"`
	Input          map[string]interface{} `json:"input,omitempty"`
	Output         map[string]interface{} `json:"output,omitempty"`
	Error          string                 `json:"error,omitempty"`
	NodeExecutions []*NodeExecution       `json:"node_executions,omitempty"`
	Variables      map[string]interface{} `json:"variables,omitempty"`
	StrictMode     bool                   `json:"strict_mode,omitempty"`
	StartedAt      time.Time              `json:"started_at"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
	Duration       int64                  `json:"duration,omitempty"`
	TriggeredBy    string                 `json:"triggered_by,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// ExecutionStatus is the lifecycle state of a persisted Execution.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
	ExecutionStatusPaused    ExecutionStatus = "paused"
)

// IsTerminal reports whether the status will not transition further.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed || s == ExecutionStatusCancelled
}

// NodeExecution is the persisted record of one node's run within an
// Execution.
type NodeExecution struct {
	ID          string                 `json:"id"`
	ExecutionID string                 `json:"execution_id"`
	NodeID      string                 `json:"node_id"`
	NodeName    string                 `json:"node_name,omitempty"`
	NodeType    string                 `json:"node_type,omitempty"`
	Status      ExecNodeStatus         `json:"status"`
	Input       map[string]interface{} `json:"input,omitempty"`
	Output      map[string]interface{} `json:"output,omitempty"`
	Error       string                 `json:"error,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Duration    int64                  `json:"duration,omitempty"`
	RetryCount  int                    `json:"retry_count,omitempty"`
	Wave        int                    `json:"wave,omitempty"`
}

// ExecNodeStatus is the lifecycle state of a persisted NodeExecution. Named
// distinctly from NodeExecutionStatus (execution.go), which records a node's
// fate within one in-memory engine run rather than its row in storage.
type ExecNodeStatus string

const (
	NodeExecutionStatusPending   ExecNodeStatus = "pending"
	NodeExecutionStatusRunning   ExecNodeStatus = "running"
	NodeExecutionStatusCompleted ExecNodeStatus = "completed"
	NodeExecutionStatusFailed    ExecNodeStatus = "failed"
	NodeExecutionStatusSkipped   ExecNodeStatus = "skipped"
	NodeExecutionStatusRetrying  ExecNodeStatus = "retrying"
	NodeExecutionStatusCancelled ExecNodeStatus = "cancelled"
)

// IsTerminal reports whether the status will not transition further.
func (s ExecNodeStatus) IsTerminal() bool {
	return s == NodeExecutionStatusCompleted || s == NodeExecutionStatusFailed || s == NodeExecutionStatusSkipped
}

// GetNodeExecution returns the node execution matching nodeID.
func (e *Execution) GetNodeExecution(nodeID string) (*NodeExecution, error) {
	for _, ne := range e.NodeExecutions {
		if ne.NodeID == nodeID {
			return ne, nil
		}
	}
	return nil, ErrNodeNotFound
}

// CalculateDuration returns how long the execution has run, in milliseconds.
func (e *Execution) CalculateDuration() int64 {
	if e.CompletedAt == nil {
		return time.Since(e.StartedAt).Milliseconds()
	}
	return e.CompletedAt.Sub(e.StartedAt).Milliseconds()
}

// GetFailedNodes returns every node execution that ended in failure.
func (e *Execution) GetFailedNodes() []*NodeExecution {
	var failed []*NodeExecution
	for _, ne := range e.NodeExecutions {
		if ne.Status == NodeExecutionStatusFailed {
			failed = append(failed, ne)
		}
	}
	return failed
}
