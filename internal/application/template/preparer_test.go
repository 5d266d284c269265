package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/mbflow/go/pkg/models"
)

func newWorkflow() *models.Workflow {
	return &models.Workflow{
		Name: "wf",
		Nodes: []*models.Node{
			{
				Name: "Fetch",
				Type: "httpRequest",
				Parameters: map[string]any{
					"url":   "{{BASE_URL}}/items",
					"limit": "{{PAGE_SIZE}}",
					"label": "env is {{ENV_NAME}}",
					"nested": map[string]any{
						"flag": "{{ENABLE_FLAG}}",
					},
				},
				Credentials: map[string]models.CredentialRef{
					"main": {ID: "{{OPENROUTER_CRED}}", Type: "openRouterApi"},
				},
			},
		},
	}
}

func TestPreparer_TypedWholeStringSubstitution(t *testing.T) {
	p := New()
	wf := newWorkflow()

	prepared, required, _, err := p.Prepare(wf, map[string]any{
		"PAGE_SIZE":   25,
		"ENABLE_FLAG": true,
	}, nil)
	require.NoError(t, err)

	node := prepared.Nodes[0]
	assert.Equal(t, 25, node.Parameters["limit"])
	assert.Equal(t, true, node.Parameters["nested"].(map[string]any)["flag"])
	assert.Contains(t, required, "PAGE_SIZE")
	assert.Contains(t, required, "BASE_URL")
	assert.Contains(t, required, "ENV_NAME")
	assert.Contains(t, required, "ENABLE_FLAG")
}

func TestPreparer_UnresolvedPlaceholderLeftUntouched(t *testing.T) {
	p := New()
	wf := newWorkflow()

	prepared, _, _, err := p.Prepare(wf, map[string]any{"PAGE_SIZE": 25, "ENABLE_FLAG": false}, nil)
	require.NoError(t, err)

	assert.Equal(t, "{{BASE_URL}}/items", prepared.Nodes[0].Parameters["url"])
}

func TestPreparer_SplicedSubstitution(t *testing.T) {
	p := New()
	wf := newWorkflow()

	prepared, _, _, err := p.Prepare(wf, map[string]any{"ENV_NAME": "staging", "PAGE_SIZE": 1, "ENABLE_FLAG": false}, nil)
	require.NoError(t, err)

	assert.Equal(t, "env is staging", prepared.Nodes[0].Parameters["label"])
}

func TestPreparer_DoesNotTouchExpressionSyntax(t *testing.T) {
	p := New()
	wf := &models.Workflow{Nodes: []*models.Node{{
		Name:       "n1",
		Parameters: map[string]any{"a": "{{ $json.field }}"},
	}}}

	prepared, required, _, err := p.Prepare(wf, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "{{ $json.field }}", prepared.Nodes[0].Parameters["a"])
	assert.Empty(t, required)
}

func TestPreparer_CredentialPlaceholderResolution(t *testing.T) {
	p := New()
	wf := newWorkflow()

	prepared, _, resolved, err := p.Prepare(wf, map[string]any{"PAGE_SIZE": 1, "ENABLE_FLAG": false}, map[string]string{
		"OPENROUTER_CRED": "sk-test-123",
	})
	require.NoError(t, err)

	assert.True(t, prepared.Nodes[0].Credentials["main"].Resolved)
	assert.Equal(t, "sk-test-123", resolved["openRouterApiKey"])
}

func TestPreparer_OriginalWorkflowUntouched(t *testing.T) {
	p := New()
	wf := newWorkflow()

	_, _, _, err := p.Prepare(wf, map[string]any{"PAGE_SIZE": 1, "ENABLE_FLAG": false}, nil)
	require.NoError(t, err)

	assert.Equal(t, "{{BASE_URL}}/items", wf.Nodes[0].Parameters["url"])
	assert.False(t, wf.Nodes[0].Credentials["main"].Resolved)
}
