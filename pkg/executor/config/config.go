// Package config defines the typed parameter shapes for builtin executors.
// A node's resolved parameters arrive as a plain map[string]any (Engine has
// already run them through C1/C3 substitution); ParseConfig decodes that map
// into one of these structs so an executor can validate and read it with
// field access instead of repeated type assertions.
package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// ParseConfig decodes a resolved parameters map into T.
func ParseConfig[T any](params map[string]any) (T, error) {
	var cfg T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return cfg, fmt.Errorf("config: build decoder: %w", err)
	}
	if err := decoder.Decode(params); err != nil {
		return cfg, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// ToMap encodes a config struct back into a plain map, e.g. for logging or
// for an executor that forwards its config to a sub-workflow invocation.
func ToMap(cfg any) (map[string]any, error) {
	out := make(map[string]any)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("config: build encoder: %w", err)
	}
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: encode: %w", err)
	}
	return out, nil
}

// HTTPAuthConfig describes how to authenticate an httpRequest node's call.
type HTTPAuthConfig struct {
	Type     string `mapstructure:"type"`
	Token    string `mapstructure:"token"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// HTTPConfig is the httpRequest node's parameter shape.
type HTTPConfig struct {
	Method  string            `mapstructure:"method"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
	Body    any               `mapstructure:"body"`
	Timeout int               `mapstructure:"timeout"`
	Auth    *HTTPAuthConfig   `mapstructure:"auth"`
}

var validHTTPMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true, "DELETE": true, "HEAD": true,
}

// Validate checks the required fields and enumerations for an HTTP request.
func (c HTTPConfig) Validate() error {
	if c.Method == "" {
		return fmt.Errorf("http: method is required")
	}
	if !validHTTPMethods[c.Method] {
		return fmt.Errorf("http: invalid HTTP method %q", c.Method)
	}
	if c.URL == "" {
		return fmt.Errorf("http: url is required")
	}
	return nil
}

// TransformConfig is the set/transform node's parameter shape. An empty
// Type defaults to a passthrough (no transformation applied).
type TransformConfig struct {
	Type       string `mapstructure:"type"`
	Template   string `mapstructure:"template"`
	Expression string `mapstructure:"expression"`
	Filter     string `mapstructure:"filter"`
}

// Validate checks that the field required by Type is present.
func (c TransformConfig) Validate() error {
	switch c.Type {
	case "", "passthrough":
		return nil
	case "template":
		if c.Template == "" {
			return fmt.Errorf("transform: template is required")
		}
	case "expression":
		if c.Expression == "" {
			return fmt.Errorf("transform: expression is required")
		}
	case "jq":
		if c.Filter == "" {
			return fmt.Errorf("transform: filter is required")
		}
	default:
		return fmt.Errorf("transform: invalid transformation type %q", c.Type)
	}
	return nil
}

// LLMMessage is one chat message in a multi-turn LLM prompt.
type LLMMessage struct {
	Role    string `mapstructure:"role"`
	Content string `mapstructure:"content"`
}

// LLMToolFunction describes a callable function exposed to the model.
type LLMToolFunction struct {
	Name        string         `mapstructure:"name"`
	Description string         `mapstructure:"description"`
	Parameters  map[string]any `mapstructure:"parameters"`
}

// LLMTool is one entry in an LLMConfig's Tools list (function-calling).
type LLMTool struct {
	Type     string          `mapstructure:"type"`
	Function LLMToolFunction `mapstructure:"function"`
}

// LLMConfig is the llm/agent node's parameter shape.
type LLMConfig struct {
	Provider    string       `mapstructure:"provider"`
	Model       string       `mapstructure:"model"`
	Prompt      string       `mapstructure:"prompt"`
	Messages    []LLMMessage `mapstructure:"messages"`
	Temperature float64      `mapstructure:"temperature"`
	MaxTokens   int          `mapstructure:"max_tokens"`
	Tools       []LLMTool    `mapstructure:"tools"`
	ToolChoice  string       `mapstructure:"tool_choice"`
}

var validLLMProviders = map[string]bool{
	"openai": true, "anthropic": true, "gemini": true,
}

// Validate checks the required fields and enumerations for an LLM call.
func (c LLMConfig) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("llm: provider is required")
	}
	if !validLLMProviders[c.Provider] {
		return fmt.Errorf("llm: invalid LLM provider %q", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("llm: model is required")
	}
	return nil
}

// ConditionalBranch is one arm of a multi-branch If/Switch node.
type ConditionalBranch struct {
	Condition string `mapstructure:"condition"`
	Value     string `mapstructure:"value"`
}

// ConditionalConfig is the if/switch node's parameter shape. Either a single
// Condition (two-way if) or a Branches list (switch) must be present.
type ConditionalConfig struct {
	Condition  string              `mapstructure:"condition"`
	TrueValue  string              `mapstructure:"true_value"`
	FalseValue string              `mapstructure:"false_value"`
	Branches   []ConditionalBranch `mapstructure:"branches"`
	Default    string              `mapstructure:"default"`
}

// Validate checks that at least one of Condition or Branches is set.
func (c ConditionalConfig) Validate() error {
	if c.Condition == "" && len(c.Branches) == 0 {
		return fmt.Errorf("conditional: condition or branches is required")
	}
	return nil
}

// MergeConfig is the merge node's parameter shape. An empty Strategy
// defaults to "concat".
type MergeConfig struct {
	Strategy string `mapstructure:"strategy"`
}

var validMergeStrategies = map[string]bool{
	"": true, "concat": true, "deep_merge": true, "combine_by_position": true, "combine_by_key": true,
}

// Validate checks Strategy is a recognized merge strategy.
func (c MergeConfig) Validate() error {
	if !validMergeStrategies[c.Strategy] {
		return fmt.Errorf("merge: invalid merge strategy %q", c.Strategy)
	}
	return nil
}

// FileStorageConfig is the file-read/write/list node's parameter shape.
type FileStorageConfig struct {
	Operation string `mapstructure:"operation"`
	Path      string `mapstructure:"path"`
	Content   string `mapstructure:"content"`
}

var validFileOps = map[string]bool{"read": true, "write": true, "list": true, "delete": true}

// Validate checks Operation is recognized and Path is present when required.
func (c FileStorageConfig) Validate() error {
	if c.Operation == "" {
		return fmt.Errorf("filestorage: operation is required")
	}
	if !validFileOps[c.Operation] {
		return fmt.Errorf("filestorage: invalid file storage operation %q", c.Operation)
	}
	if (c.Operation == "read" || c.Operation == "write" || c.Operation == "delete") && c.Path == "" {
		return fmt.Errorf("filestorage: path is required")
	}
	return nil
}
