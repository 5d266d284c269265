// Package engine implements the workflow execution engine: graph
// traversal, dependency satisfaction, data propagation, empty-output
// propagation, cycle/stall detection, and per-node failure policy.
package engine

import (
	"context"
	"fmt"

	"github.com/smilemakc/mbflow/go/pkg/models"
)

// ExpressionEvaluator resolves the {{ ... }} mini-language (C3) against a
// node's live runtime context before the engine hands its parameters to an
// Executor. Declared here, consumer-side, to avoid an import cycle with
// internal/application/expression.
type ExpressionEvaluator interface {
	ResolveParameters(ctx context.Context, params map[string]any, rc *NodeRuntimeContext) (map[string]any, error)
}

// passThroughEvaluator is used when no evaluator is configured: parameters
// are passed to executors unresolved. Real deployments always wire
// internal/application/expression.Evaluator in.
type passThroughEvaluator struct{}

func (passThroughEvaluator) ResolveParameters(_ context.Context, params map[string]any, _ *NodeRuntimeContext) (map[string]any, error) {
	return params, nil
}

// Engine runs prepared workflows. It holds no mutable state of its own —
// every field is immutable configuration set at construction — so the same
// *Engine is safe to call Run on concurrently from N workers (§5).
type Engine struct {
	executors  ExecutorManager
	expr       ExpressionEvaluator
	observer   ObserverManager
	checkpoint *CheckpointStore
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithExpressionEvaluator wires the C3 evaluator used to resolve node
// parameters before dispatch.
func WithExpressionEvaluator(e ExpressionEvaluator) Option {
	return func(eng *Engine) { eng.expr = e }
}

// WithObserverManager wires an observer fan-out for execution events.
func WithObserverManager(o ObserverManager) Option {
	return func(eng *Engine) { eng.observer = o }
}

// WithCheckpointStore enables per-pass checkpointing (§9 supplement). When
// set, Engine.Run saves a Checkpoint after every pass that makes progress
// and deletes it once the run finishes (success or abort).
func WithCheckpointStore(store *CheckpointStore) Option {
	return func(eng *Engine) { eng.checkpoint = store }
}

// New builds an Engine dispatching node execution through manager.
func New(manager ExecutorManager, opts ...Option) *Engine {
	eng := &Engine{
		executors: manager,
		expr:      passThroughEvaluator{},
		observer:  NoopObserverManager{},
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// maxStallPasses bounds the main loop per §4.3's safeguard, proportional to
// graph size so large workflows are not penalized for their legitimate
// longest dependency chain.
func maxStallPasses(nodeCount int) int {
	return 1000 * (1 + nodeCount/50)
}

// Run executes workflow starting from state, implementing §4.2-§4.5. state
// must already carry InitialData, Variables, Tokens, and (for a polling
// tick) PollingCursor/ProcessedSet; Run commits every node's output into it
// and returns the top-level invocation result.
func (e *Engine) Run(ctx context.Context, state *ExecutionState) (*models.ExecutionResult, error) {
	wf := state.Workflow
	specialNodes := specialNoAutoSchedule(wf)

	entries := entryNodes(wf, specialNodes)
	if len(entries) == 0 {
		return nil, &WorkflowError{Kind: KindWorkflowValidation, Message: "no-entry: workflow has no entry nodes"}
	}

	e.notify(ctx, state, EventExecutionStarted, "", "", "")

	sources := wf.Connections.Sources()
	nodeCount := len(wf.Nodes)

	for pass := 1; pass <= maxStallPasses(nodeCount); pass++ {
		progressed := false
		for _, node := range wf.Nodes {
			key := node.Key()
			if specialNodes[key] || state.isExecuted(key) {
				continue
			}
			if !ready(node, sources, state, specialNodes) {
				continue
			}
			if err := e.runNode(ctx, state, node, wf); err != nil {
				return e.abort(ctx, state, err)
			}
			progressed = true
		}
		if progressed && e.checkpoint != nil {
			e.checkpoint.Save(CreateCheckpoint(state, pass))
		}
		if !progressed {
			if allDone(wf, state, specialNodes) {
				return e.finish(ctx, state), nil
			}
			unexecuted := unexecutedNodes(wf, state, specialNodes)
			stallErr := &StallError{Unexecuted: unexecuted}
			return e.abort(ctx, state, stallErr)
		}
	}

	if !allDone(wf, state, specialNodes) {
		stallErr := &StallError{Unexecuted: unexecutedNodes(wf, state, specialNodes)}
		return e.abort(ctx, state, stallErr)
	}
	return e.finish(ctx, state), nil
}

// specialNoAutoSchedule computes, per §4.2, the set of node keys the main
// loop never schedules on its own: stickyNote-class UI nodes, and nodes
// that are the source of any ai_tool edge (tool providers, invoked on
// demand by their consumer rather than as graph roots).
func specialNoAutoSchedule(wf *models.Workflow) map[string]bool {
	special := make(map[string]bool)
	for _, n := range wf.Nodes {
		if n.IsStickyNote() {
			special[n.Key()] = true
		}
	}
	for source, byChannel := range wf.Connections {
		if len(byChannel[models.ChannelAITool]) > 0 {
			special[source] = true
		}
	}
	return special
}

// entryNodes returns the nodes that are not the target of any edge on any
// channel, excluding special nodes, per §4.2.
func entryNodes(wf *models.Workflow, special map[string]bool) []*models.Node {
	hasIncoming := make(map[string]bool)
	for _, byChannel := range wf.Connections {
		for _, slots := range byChannel {
			for _, slot := range slots {
				for _, rec := range slot {
					hasIncoming[rec.Node] = true
				}
			}
		}
	}
	var entries []*models.Node
	for _, n := range wf.Nodes {
		key := n.Key()
		if special[key] || hasIncoming[key] {
			continue
		}
		entries = append(entries, n)
	}
	return entries
}

// ready reports whether every node feeding n on any channel has already
// executed, treating a special (stickyNote / ai_tool-source) source as
// trivially satisfied since it never executes through the main loop.
func ready(n *models.Node, sources map[string][]string, state *ExecutionState, special map[string]bool) bool {
	for _, src := range sources[n.Key()] {
		if special[src] {
			continue
		}
		if !state.isExecuted(src) {
			return false
		}
	}
	return true
}

// allDone reports whether every non-special node has a committed output.
func allDone(wf *models.Workflow, state *ExecutionState, special map[string]bool) bool {
	for _, n := range wf.Nodes {
		key := n.Key()
		if special[key] {
			continue
		}
		if !state.isExecuted(key) {
			return false
		}
	}
	return true
}

func unexecutedNodes(wf *models.Workflow, state *ExecutionState, special map[string]bool) []string {
	var out []string
	for _, n := range wf.Nodes {
		key := n.Key()
		if special[key] || state.isExecuted(key) {
			continue
		}
		out = append(out, key)
	}
	return out
}

func (e *Engine) finish(ctx context.Context, state *ExecutionState) *models.ExecutionResult {
	result := &models.ExecutionResult{
		Success: true,
		Outputs: state.Outputs(),
		Errors:  state.Errors(),
		Status:  state.Status(),
	}
	e.notify(ctx, state, EventExecutionCompleted, "", "", "")
	if e.checkpoint != nil {
		e.checkpoint.Delete(state.ExecutionID)
	}
	return result
}

func (e *Engine) abort(ctx context.Context, state *ExecutionState, err error) (*models.ExecutionResult, error) {
	result := &models.ExecutionResult{
		Success: false,
		Outputs: state.Outputs(),
		Errors:  state.Errors(),
		Status:  state.Status(),
		Error:   err.Error(),
	}
	e.notify(ctx, state, EventExecutionFailed, "", "", err.Error())
	if e.checkpoint != nil {
		e.checkpoint.Delete(state.ExecutionID)
	}
	return result, err
}

func (e *Engine) notify(ctx context.Context, state *ExecutionState, evtType EventType, nodeID string, status models.NodeExecutionStatus, errMsg string) {
	_ = e.observer.Notify(ctx, Event{
		Type:        evtType,
		ExecutionID: state.ExecutionID,
		WorkflowID:  state.WorkflowID,
		NodeID:      nodeID,
		Status:      status,
		Error:       errMsg,
	})
}

// runNode implements §4.3 steps 2-4 and the §4.5 failure policy for one
// node, then commits its output and marks it executed.
func (e *Engine) runNode(ctx context.Context, state *ExecutionState, node *models.Node, wf *models.Workflow) error {
	key := node.Key()
	isTrigger := isTriggerType(node.Type)

	input := gatherMainInput(wf, node, state)

	// §4.3 step 3: empty-input propagation.
	if len(input) == 0 && !isTrigger {
		state.SetOutput(key, models.ItemSequence{})
		state.setStatus(key, models.NodeExecutionSkipped)
		state.markExecuted(key)
		e.notify(ctx, state, EventNodeSkipped, key, models.NodeExecutionSkipped, "")
		return nil
	}

	e.notify(ctx, state, EventNodeStarted, key, models.NodeExecutionPending, "")

	output, execErr := e.executeOne(ctx, state, node, input, wf)
	if execErr != nil {
		message := execErr.Error()
		if ne, ok := execErr.(*NodeError); ok {
			message = ne.Message
		}
		if !isCredentialMissing(message) && !node.ContinuesOnError() {
			return execErr
		}
		state.AddError(key, message)
		state.SetOutput(key, models.ItemSequence{{JSON: map[string]any{"error": message}}})
		state.setStatus(key, models.NodeExecutionErrored)
		state.markExecuted(key)
		e.notify(ctx, state, EventNodeErrored, key, models.NodeExecutionErrored, message)
		return nil
	}

	state.SetOutput(key, output)
	state.setStatus(key, models.NodeExecutionSuccess)
	state.markExecuted(key)
	e.notify(ctx, state, EventNodeCompleted, key, models.NodeExecutionSuccess, "")
	return nil
}

// executeOne resolves the node's parameters via C3, looks up its executor
// via C4, and calls it. It also wires rc.Invoke so AI-composite executors
// can recursively run ai_tool providers on demand.
func (e *Engine) executeOne(ctx context.Context, state *ExecutionState, node *models.Node, input models.ItemSequence, wf *models.Workflow) (models.ItemSequence, error) {
	exec, err := e.executors.Get(node.Type)
	if err != nil {
		return nil, &WorkflowError{Kind: KindWorkflowValidation, Message: fmt.Sprintf("no executor registered for type %q (node %s)", node.Type, node.Key())}
	}

	rc := &NodeRuntimeContext{state: state, nodeKey: node.Key(), currentInput: input}
	rc.Invoke = func(ctx context.Context, nodeKey string, providerInput models.ItemSequence) (models.ItemSequence, error) {
		providerNode, ok := wf.NodeByKey(nodeKey)
		if !ok {
			return nil, &WorkflowError{Kind: KindWorkflowValidation, Message: fmt.Sprintf("ai_tool provider %q not found", nodeKey)}
		}
		out, err := e.executeOne(ctx, state, providerNode, providerInput, wf)
		if err == nil {
			state.SetOutput(nodeKey, out)
			state.setStatus(nodeKey, models.NodeExecutionSuccess)
			state.markExecuted(nodeKey)
		}
		return out, err
	}

	resolvedParams, err := e.expr.ResolveParameters(ctx, node.Parameters, rc)
	if err != nil {
		return nil, NewNodeError(node.Key(), "parameter resolution failed", err)
	}
	resolvedNode := *node
	resolvedNode.Parameters = resolvedParams

	return exec.Execute(ctx, &resolvedNode, input, rc)
}

// isTriggerType reports whether a node type is exempt from empty-input
// propagation because it is allowed to execute with no input at all (§4.1
// category 1, §4.3 step 3).
func isTriggerType(nodeType string) bool {
	switch nodeType {
	case "manual", "schedule", "webhook", "driveTrigger", "cronTrigger", "pollingTrigger":
		return true
	default:
		return false
	}
}

// gatherMainInput implements §4.4: the concatenation of items from every
// main-channel source feeding node, in connections-iteration order, using
// only non-empty source outputs. Entry nodes (no main-channel sources) fall
// back to the invocation's initialData.
func gatherMainInput(wf *models.Workflow, node *models.Node, state *ExecutionState) models.ItemSequence {
	var input models.ItemSequence
	hasMainSource := false
	for source, byChannel := range wf.Connections {
		for _, slot := range byChannel[models.ChannelMain] {
			for _, rec := range slot {
				if rec.Node != node.Key() {
					continue
				}
				hasMainSource = true
				if out, ok := state.Output(source); ok && len(out) > 0 {
					input = append(input, out...)
				}
			}
		}
	}
	if !hasMainSource {
		return state.InitialData
	}
	return input
}
