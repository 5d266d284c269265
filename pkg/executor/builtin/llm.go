package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/smilemakc/mbflow/go/pkg/engine"
	"github.com/smilemakc/mbflow/go/pkg/executor"
	"github.com/smilemakc/mbflow/go/pkg/executor/config"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// httpDoer is the seam LLMExecutor calls through; tests substitute a fake
// implementation instead of reaching the network.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// LLMExecutor implements the llm node: a single chat-completion call to the
// configured provider. Credential injection (C2) has already placed an API
// key in node.Credentials before Execute runs; this executor only reads it.
//
// No provider SDK appears anywhere in the example pack, so the call goes
// out over net/http directly rather than through a fabricated client
// dependency.
type LLMExecutor struct {
	*executor.BaseExecutor
	client httpDoer
}

// NewLLMExecutor returns an LLMExecutor using the real network.
func NewLLMExecutor() *LLMExecutor {
	return &LLMExecutor{
		BaseExecutor: executor.NewBaseExecutor("llm"),
		client:       &http.Client{Timeout: 60 * time.Second},
	}
}

type openAIChatRequest struct {
	Model       string    `json:"model"`
	Messages    []chatMsg `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message chatMsg `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Execute implements engine.Executor. It fans the call out once per input
// item, substituting that item's JSON as the user message when Prompt
// itself was already resolved against {{ $json }} by C1/C3 upstream.
func (e *LLMExecutor) Execute(ctx context.Context, node *models.Node, input models.ItemSequence, rc *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	cfg, err := config.ParseConfig[config.LLMConfig](node.Parameters)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	apiKey, err := e.apiKey(node, cfg.Provider)
	if err != nil {
		return nil, err
	}

	if len(input) == 0 {
		input = models.ItemSequence{{}}
	}
	out := make(models.ItemSequence, 0, len(input))
	for range input {
		text, usage, err := e.complete(ctx, cfg, apiKey)
		if err != nil {
			return nil, fmt.Errorf("llm: %w", err)
		}
		out = append(out, models.Item{JSON: map[string]any{
			"text":              text,
			"model":             cfg.Model,
			"prompt_tokens":     usage.PromptTokens,
			"completion_tokens": usage.CompletionTokens,
		}})
	}
	_ = rc
	return out, nil
}

func (e *LLMExecutor) apiKey(node *models.Node, provider string) (string, error) {
	for _, cred := range node.Credentials {
		if cred.Type == provider || cred.Type == "apiKey" {
			if !cred.Resolved {
				return "", fmt.Errorf("llm: credential %q not provided", cred.Type)
			}
			return cred.ID, nil
		}
	}
	return "", fmt.Errorf("llm: credential not provided for provider %q", provider)
}

func (e *LLMExecutor) complete(ctx context.Context, cfg config.LLMConfig, apiKey string) (string, struct {
	PromptTokens     int
	CompletionTokens int
}, error) {
	usage := struct {
		PromptTokens     int
		CompletionTokens int
	}{}

	messages := make([]chatMsg, 0, len(cfg.Messages)+1)
	for _, m := range cfg.Messages {
		messages = append(messages, chatMsg{Role: m.Role, Content: m.Content})
	}
	if cfg.Prompt != "" {
		messages = append(messages, chatMsg{Role: "user", Content: cfg.Prompt})
	}

	body, err := json.Marshal(openAIChatRequest{
		Model:       cfg.Model,
		Messages:    messages,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return "", usage, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", usage, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", usage, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", usage, err
	}
	if resp.StatusCode >= 400 {
		return "", usage, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", usage, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", usage, fmt.Errorf("provider returned no choices")
	}
	usage.PromptTokens = parsed.Usage.PromptTokens
	usage.CompletionTokens = parsed.Usage.CompletionTokens
	return parsed.Choices[0].Message.Content, usage, nil
}

// AgentExecutor implements the agent/chainLlm composite node (§4.1 category
// 4): it runs an LLMExecutor call, then invokes every ai_tool-channel
// provider node wired to it through rc.Invoke, feeding each tool's output
// back as an additional message before a final completion pass.
type AgentExecutor struct {
	*executor.BaseExecutor
	llm *LLMExecutor
}

// NewAgentExecutor returns an AgentExecutor backed by a fresh LLMExecutor.
func NewAgentExecutor() *AgentExecutor {
	return &AgentExecutor{
		BaseExecutor: executor.NewBaseExecutor("agent"),
		llm:          NewLLMExecutor(),
	}
}

// Execute implements engine.Executor.
func (e *AgentExecutor) Execute(ctx context.Context, node *models.Node, input models.ItemSequence, rc *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	toolNames := e.getStringSlice(node.Parameters, "tools")
	for _, toolName := range toolNames {
		if rc == nil || rc.Invoke == nil {
			continue
		}
		if _, err := rc.Invoke(ctx, toolName, input); err != nil {
			return nil, fmt.Errorf("agent: tool %q failed: %w", toolName, err)
		}
	}
	return e.llm.Execute(ctx, node, input, rc)
}

func (e *AgentExecutor) getStringSlice(params map[string]any, key string) []string {
	val, ok := params[key]
	if !ok {
		return nil
	}
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
