package token

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/smilemakc/mbflow/go/pkg/engine"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// bareTokenPattern matches a string that is exactly a bare $tokens.X
// reference with no surrounding {{ }} (§4.7 step 2).
var bareTokenPattern = regexp.MustCompile(`^\$tokens\.([A-Za-z0-9_]+)$`)

// candidateKeys lists, for each recognized credential-parameter key, the
// ordered list of canonical token names to try when that key is empty or
// missing (§4.7 step 3).
var candidateKeys = map[string][]string{
	"apiKey":      {"openAiApiKey", "openRouterApiKey", "anthropicApiKey", "huggingFaceApiKey"},
	"api_key":     {"openAiApiKey", "openRouterApiKey", "anthropicApiKey", "huggingFaceApiKey"},
	"accessToken": {"googleAccessToken", "tiktokAccessToken"},
	"access_token": {"googleAccessToken", "tiktokAccessToken"},
	"token":       {"telegramBotToken", "googleAccessToken"},
}

// nestedFillKeys are the sub-objects under which the same fill rule (step
// 3) is reapplied, per §4.7 step 4.
var nestedFillKeys = []string{"authentication", "credentials"}

// Injector evaluates {{ ... $tokens.X ... }} expressions, replaces bare
// $tokens.X references, and fills empty credential-parameter keys from the
// token bag, over every non-trigger node of a prepared workflow.
type Injector struct {
	expr engine.ExpressionEvaluator
}

// NewInjector returns an Injector that uses evaluator to resolve
// {{ ... }} expressions referencing $tokens.
func NewInjector(evaluator engine.ExpressionEvaluator) *Injector {
	return &Injector{expr: evaluator}
}

// Inject deep-copies wf and applies token preprocessing to every
// non-trigger node's parameters, returning the rewritten workflow.
func (inj *Injector) Inject(ctx context.Context, wf *models.Workflow, tokens map[string]string) (*models.Workflow, error) {
	prepared := wf.Clone()

	state := engine.NewExecutionState("token-injection", prepared.ID, prepared, nil, nil)
	for k, v := range tokens {
		state.Tokens[k] = v
	}

	for _, node := range prepared.Nodes {
		if isTriggerType(node.Type) {
			continue
		}
		rc := engine.NewNodeRuntimeContext(state, node.Key(), nil)
		resolved, err := inj.expr.ResolveParameters(ctx, node.Parameters, rc)
		if err != nil {
			return nil, fmt.Errorf("token injection: node %q: %w", node.Key(), err)
		}
		resolved = replaceBareTokens(resolved, tokens)
		fillCredentialKeys(resolved, tokens)
		node.Parameters = resolved
	}

	return prepared, nil
}

func replaceBareTokens(v any, tokens map[string]string) any {
	switch t := v.(type) {
	case string:
		if m := bareTokenPattern.FindStringSubmatch(t); m != nil {
			if val, ok := tokens[m[1]]; ok {
				return val
			}
		}
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = replaceBareTokens(val, tokens)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = replaceBareTokens(val, tokens)
		}
		return out
	default:
		return v
	}
}

// fillCredentialKeys applies §4.7 step 3 at the top level and step 4 under
// nested authentication/credentials sub-objects, mutating params in place.
func fillCredentialKeys(params map[string]any, tokens map[string]string) {
	fillLevel(params, tokens)
	for _, nestedKey := range nestedFillKeys {
		if sub, ok := params[nestedKey].(map[string]any); ok {
			fillLevel(sub, tokens)
		}
	}
}

func fillLevel(level map[string]any, tokens map[string]string) {
	for key := range level {
		candidates, ok := candidateKeys[key]
		if !ok || !isEmpty(level[key]) {
			continue
		}
		for _, candidate := range candidates {
			if val, ok := tokens[candidate]; ok && val != "" {
				level[key] = val
				break
			}
		}
	}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func isTriggerType(nodeType string) bool {
	switch nodeType {
	case "manual", "schedule", "webhook", "driveTrigger", "cronTrigger", "pollingTrigger":
		return true
	default:
		return false
	}
}
