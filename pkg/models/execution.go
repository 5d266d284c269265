package models

// NodeExecutionStatus records how a node's run within one invocation
// resolved, mostly useful for observability and test assertions.
type NodeExecutionStatus string

const (
	NodeExecutionPending NodeExecutionStatus = "pending"
	NodeExecutionSkipped NodeExecutionStatus = "skipped" // empty-input propagation, not a trigger
	NodeExecutionSuccess NodeExecutionStatus = "success"
	NodeExecutionErrored NodeExecutionStatus = "errored" // recovered per §4.5, execution continued
)

// ExecutionError is one entry in a run's error list: which node produced it
// and what the executor reported.
type ExecutionError struct {
	Node    string `json:"node"`
	Message string `json:"message"`
}

// ExecutionResult is the top-level invocation result returned to the host
// application: {success, outputs, errors}. Error is only set for
// abort-class failures (WorkflowValidation, Stall, unrecovered
// ExecutorFailure); Errors enumerates per-node recoverable failures
// regardless of whether the overall run succeeded.
type ExecutionResult struct {
	Success bool                      `json:"success"`
	Outputs map[string]ItemSequence   `json:"outputs"`
	Errors  []ExecutionError          `json:"errors"`
	Error   string                    `json:"error,omitempty"`
	Status  map[string]NodeExecutionStatus `json:"status,omitempty"`
}
