package engine

import (
	"context"

	"github.com/smilemakc/mbflow/go/pkg/models"
)

// NodeRuntimeContext is ctx as seen from inside one Executor.Execute call
// (§4.1). It is read-only except for the three seams the contract grants an
// executor: its own entry in outputs (written by the engine after Execute
// returns, never by the executor directly), ctx.errors, and ctx.memory.
type NodeRuntimeContext struct {
	state        *ExecutionState
	nodeKey      string
	currentInput models.ItemSequence

	// Invoke lets an AI-composite executor (agent, chainLlm) recursively run
	// an ai_tool provider node on demand, per §4.1 category 4. It is nil for
	// ordinary executors that never need to call back into the engine.
	Invoke func(ctx context.Context, nodeKey string, input models.ItemSequence) (models.ItemSequence, error)
}

// NewNodeRuntimeContext builds a NodeRuntimeContext for a given node within
// an execution, seeded with the item sequence $json/$input resolve against.
// The engine uses this internally when dispatching a node; it is exported
// so executor and expression-evaluator packages can build one directly in
// tests without a full Engine.Run.
func NewNodeRuntimeContext(state *ExecutionState, nodeKey string, currentInput models.ItemSequence) *NodeRuntimeContext {
	return &NodeRuntimeContext{state: state, nodeKey: nodeKey, currentInput: currentInput}
}

// CurrentInput returns the item sequence the engine gathered for this node
// before calling its executor — the value $json and $input resolve against
// (§4.8). It is set by the engine when dispatching a node and is empty for
// a NodeRuntimeContext built standalone in a test.
func (rc *NodeRuntimeContext) CurrentInput() models.ItemSequence { return rc.currentInput }

// ExecutionID returns the owning execution's id.
func (rc *NodeRuntimeContext) ExecutionID() string { return rc.state.ExecutionID }

// Output looks up a previously committed node output by name or id, for
// executors that read an auxiliary channel provider directly (§4.1) or
// implement $('Name') (§4.8).
func (rc *NodeRuntimeContext) Output(key string) (models.ItemSequence, bool) {
	return rc.state.Output(key)
}

// Tokens returns the request-scoped token bag ($tokens.* in §4.8).
func (rc *NodeRuntimeContext) Tokens() map[string]string { return rc.state.Tokens }

// InitialData returns the invocation's seed input.
func (rc *NodeRuntimeContext) InitialData() models.ItemSequence { return rc.state.InitialData }

// Variables returns the workflow/execution variable bag.
func (rc *NodeRuntimeContext) Variables() map[string]any { return rc.state.Variables }

// Memory returns this node's private cross-invocation scratch space (e.g. a
// splitInBatches cursor).
func (rc *NodeRuntimeContext) Memory() map[string]any { return rc.state.Memory(rc.nodeKey) }

// BatchState returns this node's splitInBatches bookkeeping.
func (rc *NodeRuntimeContext) BatchState() *BatchState { return rc.state.BatchStateFor(rc.nodeKey) }

// AddError records a recoverable failure against this node (ctx.errors).
func (rc *NodeRuntimeContext) AddError(message string) { rc.state.AddError(rc.nodeKey, message) }

// State exposes the underlying ExecutionState for code that needs more than
// the narrow accessor set above (trigger executors reading PollingCursor /
// ProcessedSet, the scheduler building the final result). Ordinary
// transform/connector executors should not need this.
func (rc *NodeRuntimeContext) State() *ExecutionState { return rc.state }
