package engine

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/smilemakc/mbflow/go/pkg/models"
)

// Checkpoint is a snapshot of an execution's progress after one completed
// pass: every node output and status committed so far, plus the variable
// bag. The spec does not require crash-resume for inline executions (only
// polling cursors persist across process restarts), but the capability
// costs nothing to carry and a host application embedding the engine for
// long-running graphs can use it to resume after a crash.
type Checkpoint struct {
	ExecutionID string
	WorkflowID  string
	Pass        int
	NodeOutputs map[string]models.ItemSequence
	NodeStatus  map[string]models.NodeExecutionStatus
	Variables   map[string]any
}

// Serialize encodes the checkpoint as JSON for storage.
func (c *Checkpoint) Serialize() ([]byte, error) {
	return json.Marshal(c)
}

// DeserializeCheckpoint decodes a checkpoint previously produced by Serialize.
func DeserializeCheckpoint(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("deserialize checkpoint: %w", err)
	}
	return &c, nil
}

// CreateCheckpoint snapshots state's current progress.
func CreateCheckpoint(state *ExecutionState, pass int) *Checkpoint {
	outputs := make(map[string]models.ItemSequence, len(state.outputs))
	for k, v := range state.outputs {
		outputs[k] = v
	}
	status := make(map[string]models.NodeExecutionStatus, len(state.status))
	for k, v := range state.status {
		status[k] = v
	}
	return &Checkpoint{
		ExecutionID: state.ExecutionID,
		WorkflowID:  state.WorkflowID,
		Pass:        pass,
		NodeOutputs: outputs,
		NodeStatus:  status,
		Variables:   state.Variables,
	}
}

// RestoreFromCheckpoint rebuilds an ExecutionState that resumes exactly
// where checkpoint left off: every node it already executed is marked
// executed with its committed output, so the next Engine.Run pass only
// schedules what remains.
func RestoreFromCheckpoint(checkpoint *Checkpoint, workflow *models.Workflow, initialData models.ItemSequence) *ExecutionState {
	state := NewExecutionState(checkpoint.ExecutionID, checkpoint.WorkflowID, workflow, initialData, checkpoint.Variables)
	for key, output := range checkpoint.NodeOutputs {
		state.SetOutput(key, output)
		state.markExecuted(key)
	}
	for key, status := range checkpoint.NodeStatus {
		state.setStatus(key, status)
	}
	return state
}

// CheckpointStore persists checkpoints keyed by execution id. The in-memory
// implementation here is what Engine.Run uses when no external store is
// configured; a real deployment backs it with
// internal/infrastructure/storage instead.
type CheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*Checkpoint
}

// NewCheckpointStore builds an empty in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{checkpoints: make(map[string]*Checkpoint)}
}

// Save records the latest checkpoint for an execution, overwriting any
// previous one.
func (s *CheckpointStore) Save(c *Checkpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[c.ExecutionID] = c
}

// Get returns the checkpoint for an execution id, if any.
func (s *CheckpointStore) Get(executionID string) (*Checkpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.checkpoints[executionID]
	return c, ok
}

// Delete removes a stored checkpoint, normally once an execution completes
// successfully.
func (s *CheckpointStore) Delete(executionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, executionID)
}
