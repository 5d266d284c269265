package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/mbflow/go/pkg/models"
)

func TestSetExecutor_MergesFields(t *testing.T) {
	t.Parallel()
	e := NewSetExecutor()
	node := &models.Node{Type: "set", Parameters: map[string]any{
		"fields": map[string]any{"status": "ok"},
	}}
	input := models.ItemSequence{{JSON: map[string]any{"id": 1}}}
	out, err := e.Execute(context.Background(), node, input, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	obj := out[0].JSON.(map[string]any)
	assert.Equal(t, 1, obj["id"])
	assert.Equal(t, "ok", obj["status"])
}

func TestSetExecutor_KeepOnlySet(t *testing.T) {
	t.Parallel()
	e := NewSetExecutor()
	node := &models.Node{Type: "set", Parameters: map[string]any{
		"fields":        map[string]any{"status": "ok"},
		"keep_only_set": true,
	}}
	input := models.ItemSequence{{JSON: map[string]any{"id": 1}}}
	out, err := e.Execute(context.Background(), node, input, nil)
	require.NoError(t, err)
	obj := out[0].JSON.(map[string]any)
	_, hasID := obj["id"]
	assert.False(t, hasID)
	assert.Equal(t, "ok", obj["status"])
}

func TestTransformExecutor_JQFilter(t *testing.T) {
	t.Parallel()
	e := NewTransformExecutor()
	node := &models.Node{Type: "transform", Parameters: map[string]any{
		"type":   "jq",
		"filter": ".name",
	}}
	input := models.ItemSequence{{JSON: map[string]any{"name": "alice"}}}
	out, err := e.Execute(context.Background(), node, input, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "alice", out[0].JSON)
}

func TestTransformExecutor_PassthroughDefault(t *testing.T) {
	t.Parallel()
	e := NewTransformExecutor()
	node := &models.Node{Type: "transform", Parameters: map[string]any{}}
	input := models.ItemSequence{{JSON: map[string]any{"name": "alice"}}}
	out, err := e.Execute(context.Background(), node, input, nil)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}
