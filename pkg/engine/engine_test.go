package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/mbflow/go/pkg/models"
)

// fakeExecutor dispatches by node type to a caller-supplied function, so
// each test can describe exactly the node behavior a scenario needs without
// a full executor registry.
type fakeExecutor struct {
	typ string
	fn  func(node *models.Node, input models.ItemSequence, rc *NodeRuntimeContext) (models.ItemSequence, error)
}

func (f *fakeExecutor) Type() string { return f.typ }

func (f *fakeExecutor) Execute(_ context.Context, node *models.Node, input models.ItemSequence, rc *NodeRuntimeContext) (models.ItemSequence, error) {
	return f.fn(node, input, rc)
}

type fakeManager struct {
	executors map[string]Executor
}

func newFakeManager() *fakeManager {
	return &fakeManager{executors: make(map[string]Executor)}
}

func (m *fakeManager) register(e Executor) *fakeManager {
	m.executors[e.Type()] = e
	return m
}

func (m *fakeManager) Get(nodeType string) (Executor, error) {
	e, ok := m.executors[nodeType]
	if !ok {
		return nil, &WorkflowError{Kind: KindWorkflowValidation, Message: "no executor for " + nodeType}
	}
	return e, nil
}

func conn(source string, channel models.Channel, slot int, target string) models.Connection {
	return models.Connection{Source: source, Channel: channel, Slot: slot, Target: target}
}

// buildConnections is a small test helper turning a flat connection list
// into the slotted ConnectionMap shape.
func buildConnections(conns ...models.Connection) models.ConnectionMap {
	m := make(models.ConnectionMap)
	for _, c := range conns {
		m.AddConnection(c.Source, c.Channel, c.Slot, models.ConnectionRecord{Node: c.Target})
	}
	return m
}

func TestEngine_LinearGraph(t *testing.T) {
	t.Parallel()
	manager := newFakeManager().
		register(&fakeExecutor{typ: "manual", fn: func(_ *models.Node, _ models.ItemSequence, _ *NodeRuntimeContext) (models.ItemSequence, error) {
			return models.ItemSequence{{JSON: map[string]any{"x": float64(1)}}}, nil
		}}).
		register(&fakeExecutor{typ: "passthrough", fn: func(_ *models.Node, input models.ItemSequence, _ *NodeRuntimeContext) (models.ItemSequence, error) {
			return input, nil
		}})

	wf := &models.Workflow{
		Name:  "linear",
		Nodes: []*models.Node{{Name: "A", Type: "manual"}, {Name: "B", Type: "passthrough"}},
		Connections: buildConnections(
			conn("A", models.ChannelMain, 0, "B"),
		),
	}

	eng := New(manager)
	state := NewExecutionState("exec-1", "wf-1", wf, nil, nil)
	result, err := eng.Run(context.Background(), state)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, float64(1), result.Outputs["A"][0].JSON.(map[string]any)["x"])
	assert.Equal(t, float64(1), result.Outputs["B"][0].JSON.(map[string]any)["x"])
}

func TestEngine_IfBranchPruning(t *testing.T) {
	t.Parallel()
	manager := newFakeManager().
		register(&fakeExecutor{typ: "manual", fn: func(_ *models.Node, _ models.ItemSequence, _ *NodeRuntimeContext) (models.ItemSequence, error) {
			return models.ItemSequence{{JSON: map[string]any{"x": float64(1)}}}, nil
		}}).
		register(&fakeExecutor{typ: "if", fn: func(_ *models.Node, input models.ItemSequence, _ *NodeRuntimeContext) (models.ItemSequence, error) {
			// x==2 is false for x==1, so the active branch is empty.
			return models.ItemSequence{}, nil
		}}).
		register(&fakeExecutor{typ: "passthrough", fn: func(_ *models.Node, input models.ItemSequence, _ *NodeRuntimeContext) (models.ItemSequence, error) {
			return input, nil
		}})

	wf := &models.Workflow{
		Name: "branch",
		Nodes: []*models.Node{
			{Name: "A", Type: "manual"},
			{Name: "B", Type: "if"},
			{Name: "C", Type: "passthrough"},
			{Name: "D", Type: "passthrough"},
		},
		Connections: buildConnections(
			conn("A", models.ChannelMain, 0, "B"),
			conn("B", models.ChannelMain, 0, "C"),
			conn("B", models.ChannelMain, 1, "D"),
		),
	}

	eng := New(manager)
	state := NewExecutionState("exec-2", "wf-2", wf, nil, nil)
	result, err := eng.Run(context.Background(), state)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Outputs["B"])
	assert.Empty(t, result.Outputs["C"])
	assert.Empty(t, result.Outputs["D"])
}

func TestEngine_CredentialMissingRecovers(t *testing.T) {
	t.Parallel()
	manager := newFakeManager().
		register(&fakeExecutor{typ: "manual", fn: func(_ *models.Node, _ models.ItemSequence, _ *NodeRuntimeContext) (models.ItemSequence, error) {
			return models.ItemSequence{{JSON: map[string]any{"x": 1}}}, nil
		}}).
		register(&fakeExecutor{typ: "llm", fn: func(node *models.Node, _ models.ItemSequence, _ *NodeRuntimeContext) (models.ItemSequence, error) {
			return nil, NewNodeError(node.Key(), "OPENAI_API_KEY not provided", nil)
		}}).
		register(&fakeExecutor{typ: "passthrough", fn: func(_ *models.Node, input models.ItemSequence, _ *NodeRuntimeContext) (models.ItemSequence, error) {
			return input, nil
		}})

	wf := &models.Workflow{
		Name: "credmissing",
		Nodes: []*models.Node{
			{Name: "A", Type: "manual"},
			{Name: "llm", Type: "llm"},
			{Name: "downstream", Type: "passthrough"},
		},
		Connections: buildConnections(
			conn("A", models.ChannelMain, 0, "llm"),
			conn("llm", models.ChannelMain, 0, "downstream"),
		),
	}

	eng := New(manager)
	state := NewExecutionState("exec-3", "wf-3", wf, nil, nil)
	result, err := eng.Run(context.Background(), state)
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "llm", result.Errors[0].Node)
	errJSON := result.Outputs["llm"][0].JSON.(map[string]any)
	assert.Contains(t, errJSON["error"], "not provided")
	// Downstream still ran: the error item is a non-empty item sequence, so
	// it propagates like any other output.
	assert.NotEmpty(t, result.Outputs["downstream"])
}

func TestEngine_NoEntryNodesFails(t *testing.T) {
	t.Parallel()
	manager := newFakeManager()
	wf := &models.Workflow{
		Name:  "cycle",
		Nodes: []*models.Node{{Name: "A", Type: "passthrough"}, {Name: "B", Type: "passthrough"}},
		Connections: buildConnections(
			conn("A", models.ChannelMain, 0, "B"),
			conn("B", models.ChannelMain, 0, "A"),
		),
	}
	eng := New(manager)
	state := NewExecutionState("exec-4", "wf-4", wf, nil, nil)
	_, err := eng.Run(context.Background(), state)
	require.Error(t, err)
	var wfErr *WorkflowError
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, KindWorkflowValidation, wfErr.Kind)
}

func TestEngine_AtMostOnceExecution(t *testing.T) {
	t.Parallel()
	calls := 0
	manager := newFakeManager().
		register(&fakeExecutor{typ: "manual", fn: func(_ *models.Node, _ models.ItemSequence, _ *NodeRuntimeContext) (models.ItemSequence, error) {
			calls++
			return models.ItemSequence{{JSON: map[string]any{"x": 1}}}, nil
		}}).
		register(&fakeExecutor{typ: "passthrough", fn: func(_ *models.Node, input models.ItemSequence, _ *NodeRuntimeContext) (models.ItemSequence, error) {
			return input, nil
		}})

	wf := &models.Workflow{
		Name: "diamond",
		Nodes: []*models.Node{
			{Name: "A", Type: "manual"},
			{Name: "B", Type: "passthrough"},
			{Name: "C", Type: "passthrough"},
			{Name: "D", Type: "passthrough"},
		},
		Connections: buildConnections(
			conn("A", models.ChannelMain, 0, "B"),
			conn("A", models.ChannelMain, 0, "C"),
			conn("B", models.ChannelMain, 0, "D"),
			conn("C", models.ChannelMain, 0, "D"),
		),
	}

	eng := New(manager)
	state := NewExecutionState("exec-5", "wf-5", wf, nil, nil)
	result, err := eng.Run(context.Background(), state)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, calls)
	// D received both B's and C's items: order follows connections-map
	// iteration, so just assert the count here.
	assert.Len(t, result.Outputs["D"], 2)
}
