package engine

import (
	"time"

	"github.com/smilemakc/mbflow/go/pkg/models"
)

// BatchState is a node's private splitInBatches bookkeeping: the full item
// set being chunked, the cursor into it, and the batch size so repeated
// invocations within one execution continue where the previous one left
// off (§9 open question: the engine re-invokes a loop-back node once per
// pass in which it becomes ready again; state here is what lets that be
// observably correct).
type BatchState struct {
	AllItems     models.ItemSequence
	Cursor       int
	BatchSize    int
	TotalBatches int
}

// ExecutionState is the per-invocation execution context of §3: outputs,
// errors, the prepared workflow, tokens, initialData, polling cursor and
// processed set, per-node batch state, and per-node private memory. One
// instance is allocated per call to Engine.Run and discarded when it
// returns — the engine itself holds no package-level mutable state, which
// is what makes it safe to invoke from N parallel workers (§5).
type ExecutionState struct {
	ExecutionID string
	WorkflowID  string
	Workflow    *models.Workflow

	InitialData models.ItemSequence
	Variables   map[string]any
	Tokens      map[string]string

	// Polling-specific fields, populated only when the invocation originates
	// from a scheduler tick (§4.9); zero-valued otherwise.
	PollingCursor time.Time
	ProcessedSet  map[string]struct{}

	// Sub-workflow linkage (§9 supplement): when this execution was spawned
	// as one fan-out item of a parent splitInBatches/subWorkflow node.
	ParentExecutionID string
	ParentNodeID       string
	ItemIndex          *int
	ItemKey            string

	outputs    map[string]models.ItemSequence
	status     map[string]models.NodeExecutionStatus
	executed   map[string]struct{}
	errors     []models.ExecutionError
	memory     map[string]map[string]any
	batchState map[string]*BatchState
}

// NewExecutionState builds a fresh execution context seeded with the
// workflow, input, and caller-supplied variables. initialData may be nil
// (no seed input, e.g. a pure-trigger-driven run).
func NewExecutionState(executionID, workflowID string, workflow *models.Workflow, initialData models.ItemSequence, variables map[string]any) *ExecutionState {
	if variables == nil {
		variables = make(map[string]any)
	}
	return &ExecutionState{
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		Workflow:    workflow,
		InitialData: initialData,
		Variables:   variables,
		Tokens:      make(map[string]string),
		ProcessedSet: make(map[string]struct{}),
		outputs:    make(map[string]models.ItemSequence),
		status:     make(map[string]models.NodeExecutionStatus),
		executed:   make(map[string]struct{}),
		memory:     make(map[string]map[string]any),
		batchState: make(map[string]*BatchState),
	}
}

// SetOutput commits a node's output. Per the outputs[k] invariant, this must
// be called at most once per node key; the engine enforces that by only
// ever calling it once per node per Run.
func (s *ExecutionState) SetOutput(key string, items models.ItemSequence) {
	s.outputs[key] = items
}

// Output returns a node's committed output and whether it has executed yet.
// Absence means "not yet executed"; a present-but-empty sequence means "this
// branch produced nothing" — the two must never be conflated.
func (s *ExecutionState) Output(key string) (models.ItemSequence, bool) {
	items, ok := s.outputs[key]
	return items, ok
}

// Outputs exposes the full outputs map for read-only use by executors
// reading an auxiliary channel provider by name (§4.1) and by callers
// building the top-level ExecutionResult.
func (s *ExecutionState) Outputs() map[string]models.ItemSequence {
	return s.outputs
}

func (s *ExecutionState) markExecuted(key string) {
	s.executed[key] = struct{}{}
}

func (s *ExecutionState) isExecuted(key string) bool {
	_, ok := s.executed[key]
	return ok
}

func (s *ExecutionState) setStatus(key string, st models.NodeExecutionStatus) {
	s.status[key] = st
}

// Status returns the recorded NodeExecutionStatus map, for building
// ExecutionResult.Status and for tests.
func (s *ExecutionState) Status() map[string]models.NodeExecutionStatus {
	return s.status
}

// AddError records a recoverable per-node failure (§4.5). ctx.errors is one
// of the two pieces of state an executor is allowed to write directly.
func (s *ExecutionState) AddError(node, message string) {
	s.errors = append(s.errors, models.ExecutionError{Node: node, Message: message})
}

// Errors returns the accumulated per-node error list.
func (s *ExecutionState) Errors() []models.ExecutionError {
	return s.errors
}

// Memory returns the per-node private memory map an executor may read and
// write across invocations within one execution (e.g. a batch cursor),
// initializing it on first access.
func (s *ExecutionState) Memory(nodeKey string) map[string]any {
	m, ok := s.memory[nodeKey]
	if !ok {
		m = make(map[string]any)
		s.memory[nodeKey] = m
	}
	return m
}

// BatchStateFor returns (creating if absent) the splitInBatches bookkeeping
// for a node.
func (s *ExecutionState) BatchStateFor(nodeKey string) *BatchState {
	bs, ok := s.batchState[nodeKey]
	if !ok {
		bs = &BatchState{}
		s.batchState[nodeKey] = bs
	}
	return bs
}

// MarkProcessed records a trigger-emitted item's natural key in the
// (user,workflow)-scoped dedup set for the lifetime of this invocation;
// the scheduler persists it into models.PollData after the tick completes.
func (s *ExecutionState) MarkProcessed(key string) {
	s.ProcessedSet[key] = struct{}{}
}

// HasProcessed reports whether key is already in the processed set seeded
// at the start of this invocation (it is populated from the persisted
// models.PollData by the scheduler before Run is called).
func (s *ExecutionState) HasProcessed(key string) bool {
	_, ok := s.ProcessedSet[key]
	return ok
}
