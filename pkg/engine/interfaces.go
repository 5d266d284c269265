package engine

import (
	"context"

	"github.com/smilemakc/mbflow/go/pkg/models"
)

// Executor is the uniform contract every node type implements (§4.1).
// Execute receives the concatenation of items arriving on all incoming main
// edges, in source-iteration order, and returns the node's output sequence
// or a NodeError. Auxiliary ai_* providers are not passed as input; an
// executor that needs one reads it from rc.Outputs by the provider's name.
type Executor interface {
	Type() string
	Execute(ctx context.Context, node *models.Node, input models.ItemSequence, rc *NodeRuntimeContext) (models.ItemSequence, error)
}

// ExecutorManager dispatches by node type to a registered Executor. It is
// declared on the consumer side so pkg/engine carries no import dependency
// on pkg/executor; pkg/executor's Manager satisfies this interface
// structurally.
type ExecutorManager interface {
	Get(nodeType string) (Executor, error)
}

// ConditionEvaluator evaluates an if/switch condition expression against a
// node's current execution context. The if and switch executors use this
// rather than re-implementing expression evaluation themselves.
type ConditionEvaluator interface {
	Evaluate(ctx context.Context, condition string, rc *NodeRuntimeContext) (bool, error)
}

// Observer receives execution events. Implementations must return quickly;
// the engine calls OnEvent synchronously between nodes.
type Observer interface {
	Name() string
	OnEvent(ctx context.Context, event Event) error
}

// ObserverManager fans a single Notify call out to every registered
// Observer, tolerating individual observer failures (logged, not
// propagated) so one broken observer cannot abort a run.
type ObserverManager interface {
	Notify(ctx context.Context, event Event) error
	Register(observer Observer) error
	Unregister(name string) error
	Count() int
}

// EventType enumerates the notifications the engine emits as it runs.
type EventType string

const (
	EventExecutionStarted   EventType = "execution.started"
	EventExecutionCompleted EventType = "execution.completed"
	EventExecutionFailed    EventType = "execution.failed"
	EventNodeStarted        EventType = "node.started"
	EventNodeCompleted      EventType = "node.completed"
	EventNodeSkipped        EventType = "node.skipped"
	EventNodeErrored        EventType = "node.errored"
)

// Event is one notification emitted during a run.
type Event struct {
	Type        EventType
	ExecutionID string
	WorkflowID  string
	NodeID      string
	Status      models.NodeExecutionStatus
	Error       string
	Metadata    map[string]any
}

// NoopObserverManager discards every event; it is the default when no
// observer is configured.
type NoopObserverManager struct{}

func (NoopObserverManager) Notify(context.Context, Event) error   { return nil }
func (NoopObserverManager) Register(Observer) error               { return nil }
func (NoopObserverManager) Unregister(string) error                { return nil }
func (NoopObserverManager) Count() int                             { return 0 }
