package token

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilemakc/mbflow/go/internal/application/expression"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

func TestInjector_FillsEmptyAPIKey(t *testing.T) {
	inj := NewInjector(expression.New())
	wf := &models.Workflow{Nodes: []*models.Node{{
		Name:       "Call LLM",
		Type:       "llm",
		Parameters: map[string]any{"apiKey": ""},
	}}}

	out, err := inj.Inject(context.Background(), wf, map[string]string{"openAiApiKey": "sk-abc"})
	require.NoError(t, err)
	assert.Equal(t, "sk-abc", out.Nodes[0].Parameters["apiKey"])
}

func TestInjector_SkipsTriggerNodes(t *testing.T) {
	inj := NewInjector(expression.New())
	wf := &models.Workflow{Nodes: []*models.Node{{
		Name:       "Trigger",
		Type:       "schedule",
		Parameters: map[string]any{"apiKey": ""},
	}}}

	out, err := inj.Inject(context.Background(), wf, map[string]string{"openAiApiKey": "sk-abc"})
	require.NoError(t, err)
	assert.Equal(t, "", out.Nodes[0].Parameters["apiKey"])
}

func TestInjector_BareTokenReplacement(t *testing.T) {
	inj := NewInjector(expression.New())
	wf := &models.Workflow{Nodes: []*models.Node{{
		Name:       "Call",
		Type:       "httpRequest",
		Parameters: map[string]any{"header": "$tokens.googleAccessToken"},
	}}}

	out, err := inj.Inject(context.Background(), wf, map[string]string{"googleAccessToken": "g-tok"})
	require.NoError(t, err)
	assert.Equal(t, "g-tok", out.Nodes[0].Parameters["header"])
}

func TestInjector_NestedAuthenticationFill(t *testing.T) {
	inj := NewInjector(expression.New())
	wf := &models.Workflow{Nodes: []*models.Node{{
		Name: "Call",
		Type: "httpRequest",
		Parameters: map[string]any{
			"authentication": map[string]any{"accessToken": ""},
		},
	}}}

	out, err := inj.Inject(context.Background(), wf, map[string]string{"googleAccessToken": "g-tok"})
	require.NoError(t, err)
	auth := out.Nodes[0].Parameters["authentication"].(map[string]any)
	assert.Equal(t, "g-tok", auth["accessToken"])
}
