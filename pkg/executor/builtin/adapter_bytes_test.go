package builtin

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/mbflow/go/pkg/models"
)

func TestBytesToJSONExecutor_FromBinary(t *testing.T) {
	t.Parallel()
	e := NewBytesToJSONExecutor()
	node := &models.Node{Type: "bytesToJson", Parameters: map[string]any{}}
	input := models.ItemSequence{{
		Binary: map[string]models.BinaryData{"data": {Data: []byte(`{"a":1}`)}},
	}}
	out, err := e.Execute(context.Background(), node, input, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, json.Number("1"), out[0].JSON.(map[string]any)["a"])
}

func TestBytesToJSONExecutor_InvalidJSONNoValidate(t *testing.T) {
	t.Parallel()
	e := NewBytesToJSONExecutor()
	node := &models.Node{Type: "bytesToJson", Parameters: map[string]any{"validate_json": false}}
	input := models.ItemSequence{{
		Binary: map[string]models.BinaryData{"data": {Data: []byte(`not json`)}},
	}}
	out, err := e.Execute(context.Background(), node, input, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].JSON)
}

func TestJSONToBytesExecutor_RoundTrip(t *testing.T) {
	t.Parallel()
	toBytes := NewJSONToBytesExecutor()
	node := &models.Node{Type: "jsonToBytes", Parameters: map[string]any{}}
	input := models.ItemSequence{{JSON: map[string]any{"a": 1}}}
	out, err := toBytes.Execute(context.Background(), node, input, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.NotEmpty(t, out[0].Binary["data"].Data)
}
