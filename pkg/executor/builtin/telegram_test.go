package builtin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/mbflow/go/pkg/models"
)

func TestTelegramExecutor_SendText(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": map[string]any{
				"message_id": 42,
				"date":       1700000000,
				"chat":       map[string]any{"id": -1001},
				"text":       "hello",
			},
		})
	}))
	defer srv.Close()

	e := NewTelegramExecutor()
	e.baseURL = srv.URL

	node := &models.Node{Type: "telegram", Parameters: map[string]any{
		"bot_token":    "123:ABC",
		"chat_id":      "-1001",
		"message_type": "text",
		"text":         "hello",
	}}

	out, err := e.Execute(context.Background(), node, models.ItemSequence{{}}, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	result := out[0].JSON.(map[string]any)
	assert.True(t, result["success"].(bool))
	assert.EqualValues(t, 42, result["message_id"])
}

func TestTelegramExecutor_UnsupportedMessageType(t *testing.T) {
	t.Parallel()
	e := NewTelegramExecutor()
	node := &models.Node{Type: "telegram", Parameters: map[string]any{
		"bot_token":    "123:ABC",
		"chat_id":      "-1001",
		"message_type": "sticker",
	}}
	_, err := e.Execute(context.Background(), node, models.ItemSequence{{}}, nil)
	require.Error(t, err)
}
