package builtin

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/mbflow/go/pkg/models"
)

type fakeDoer struct {
	status int
	body   string
	err    error
}

func (f *fakeDoer) Do(_ *http.Request) (*http.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(bytes.NewBufferString(f.body)),
	}, nil
}

func TestLLMExecutor_Success(t *testing.T) {
	t.Parallel()
	e := NewLLMExecutor()
	e.client = &fakeDoer{status: 200, body: `{"choices":[{"message":{"role":"assistant","content":"hi there"}}],"usage":{"prompt_tokens":5,"completion_tokens":2}}`}

	node := &models.Node{
		Type: "llm",
		Parameters: map[string]any{
			"provider": "openai",
			"model":    "gpt-4",
			"prompt":   "say hi",
		},
		Credentials: map[string]models.CredentialRef{
			"openai": {Type: "openai", ID: "sk-test", Resolved: true},
		},
	}

	out, err := e.Execute(context.Background(), node, models.ItemSequence{{JSON: map[string]any{}}}, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "hi there", out[0].JSON.(map[string]any)["text"])
}

func TestLLMExecutor_MissingCredential(t *testing.T) {
	t.Parallel()
	e := NewLLMExecutor()
	node := &models.Node{
		Type: "llm",
		Parameters: map[string]any{
			"provider": "openai",
			"model":    "gpt-4",
			"prompt":   "say hi",
		},
	}
	_, err := e.Execute(context.Background(), node, models.ItemSequence{{JSON: map[string]any{}}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not provided")
}

func TestLLMExecutor_InvalidConfig(t *testing.T) {
	t.Parallel()
	e := NewLLMExecutor()
	node := &models.Node{Type: "llm", Parameters: map[string]any{}}
	_, err := e.Execute(context.Background(), node, models.ItemSequence{{}}, nil)
	require.Error(t, err)
}
