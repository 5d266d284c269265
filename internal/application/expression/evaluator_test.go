package expression

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/mbflow/go/pkg/engine"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

func newRC(input models.ItemSequence) *engine.NodeRuntimeContext {
	wf := &models.Workflow{Name: "wf", Nodes: []*models.Node{{Name: "n1", Type: "set"}}}
	state := engine.NewExecutionState("exec-1", "wf", wf, nil, nil)
	state.Tokens["googleAccessToken"] = "tok-123"
	state.SetOutput("Fetch", models.ItemSequence{{JSON: map[string]any{"id": 7}}})
	return engine.NewNodeRuntimeContext(state, "n1", input)
}

func TestEvaluator_WholeStringJSONPath(t *testing.T) {
	e := New()
	rc := newRC(models.ItemSequence{{JSON: map[string]any{"name": "alice", "nested": map[string]any{"x": 1}}}})

	out, err := e.Eval(context.Background(), "$json.name", rc)
	require.NoError(t, err)
	assert.Equal(t, "alice", out)

	out, err = e.Eval(context.Background(), "$json.nested.x", rc)
	require.NoError(t, err)
	assert.Equal(t, 1, out)
}

func TestEvaluator_ResolveParameters_TypedWholeString(t *testing.T) {
	e := New()
	rc := newRC(models.ItemSequence{{JSON: map[string]any{"count": 42}}})

	resolved, err := e.ResolveParameters(context.Background(), map[string]any{
		"count": "{{ $json.count }}",
	}, rc)
	require.NoError(t, err)
	assert.Equal(t, 42, resolved["count"])
}

func TestEvaluator_Tokens(t *testing.T) {
	e := New()
	rc := newRC(nil)

	out, err := e.Eval(context.Background(), "$tokens.googleAccessToken", rc)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", out)
}

func TestEvaluator_NamedNodeReference(t *testing.T) {
	e := New()
	rc := newRC(nil)

	out, err := e.Eval(context.Background(), `$('Fetch').json.id`, rc)
	require.NoError(t, err)
	assert.Equal(t, 7, out)
}

func TestEvaluator_SplicedStringInterpolation(t *testing.T) {
	e := New()
	rc := newRC(models.ItemSequence{{JSON: map[string]any{"name": "alice"}}})

	resolved, err := e.ResolveParameters(context.Background(), map[string]any{
		"greeting": "Hello {{ $json.name }}!",
	}, rc)
	require.NoError(t, err)
	assert.Equal(t, "Hello alice!", resolved["greeting"])
}

func TestEvaluator_NonStringParamsPassThrough(t *testing.T) {
	e := New()
	rc := newRC(nil)

	resolved, err := e.ResolveParameters(context.Background(), map[string]any{
		"limit": 10,
		"flag":  true,
	}, rc)
	require.NoError(t, err)
	assert.Equal(t, 10, resolved["limit"])
	assert.Equal(t, true, resolved["flag"])
}

func TestEvaluator_ExprLangCondition(t *testing.T) {
	e := New()
	rc := newRC(models.ItemSequence{{JSON: map[string]any{"count": 11}}})

	out, err := e.Eval(context.Background(), "count > 10", rc)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}
