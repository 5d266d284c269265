// Package expression implements the {{ ... }} mini-language nodes use to
// reference prior output, the current input, and the token bag.
package expression

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/smilemakc/mbflow/go/pkg/engine"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// interpolationPattern matches a single {{ ... }} block, optionally prefixed
// by '=' (the n8n-style "this whole field is an expression" marker, which is
// stripped before evaluation).
var interpolationPattern = regexp.MustCompile(`\{\{\s*(.*?)\s*\}\}`)

// Evaluator implements engine.ExpressionEvaluator: it walks a node's
// resolved parameters and evaluates every {{ ... }} interpolation found in
// a string value.
type Evaluator struct{}

// New returns an Evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

// ResolveParameters implements engine.ExpressionEvaluator. It deep-walks
// params, evaluating every string value that contains an interpolation.
// Non-string values and strings with no "{{" are returned unchanged.
func (e *Evaluator) ResolveParameters(ctx context.Context, params map[string]any, rc *engine.NodeRuntimeContext) (map[string]any, error) {
	resolved, err := e.resolveValue(ctx, params, rc)
	if err != nil {
		return nil, err
	}
	out, _ := resolved.(map[string]any)
	return out, nil
}

func (e *Evaluator) resolveValue(ctx context.Context, v any, rc *engine.NodeRuntimeContext) (any, error) {
	switch t := v.(type) {
	case string:
		return e.resolveString(ctx, t, rc)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			resolved, err := e.resolveValue(ctx, val, rc)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			resolved, err := e.resolveValue(ctx, val, rc)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

// resolveString implements §4.8's whole-string-vs-interpolation rule: a
// string that is exactly one {{ ... }} block returns the evaluated value
// with its original type; otherwise every block found is spliced back in as
// a string (undefined evaluates to "").
func (e *Evaluator) resolveString(ctx context.Context, s string, rc *engine.NodeRuntimeContext) (any, error) {
	matches := interpolationPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	if len(matches) == 1 {
		m := matches[0]
		if m[0] == 0 && m[1] == len(s) {
			raw := s[m[2]:m[3]]
			return e.Eval(ctx, raw, rc)
		}
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		raw := s[m[2]:m[3]]
		val, err := e.Eval(ctx, raw, rc)
		if err != nil {
			return nil, err
		}
		b.WriteString(stringify(val))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

// Eval evaluates one interpolation body (the text between {{ and }},
// '=' prefix already stripped by the caller's regexp, but tolerated here
// too since §4.8 allows a leading '=' on the whole field).
func (e *Evaluator) Eval(ctx context.Context, raw string, rc *engine.NodeRuntimeContext) (any, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "="))

	switch {
	case raw == "$input.all()":
		return itemsToAny(rc.CurrentInput()), nil
	case raw == "$json" || strings.HasPrefix(raw, "$json."):
		return e.evalJSONPath(raw, rc)
	case raw == "$input.first()" || strings.HasPrefix(raw, "$input.first()."):
		path := strings.TrimPrefix(raw, "$input.first()")
		path = strings.TrimPrefix(path, ".")
		return traverse(firstJSON(rc), path), nil
	case strings.HasPrefix(raw, "$tokens"):
		return e.evalTokens(raw, rc), nil
	case strings.HasPrefix(raw, "$('") || strings.HasPrefix(raw, `$("`):
		return e.evalNamedNode(raw, rc)
	default:
		return e.evalBareOrExpr(ctx, raw, rc)
	}
}

func (e *Evaluator) evalJSONPath(raw string, rc *engine.NodeRuntimeContext) (any, error) {
	path := strings.TrimPrefix(raw, "$json")
	path = strings.TrimPrefix(path, ".")
	return traverse(firstJSON(rc), path), nil
}

func (e *Evaluator) evalTokens(raw string, rc *engine.NodeRuntimeContext) any {
	path := strings.TrimPrefix(raw, "$tokens")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return rc.Tokens()
	}
	if v, ok := rc.Tokens()[path]; ok {
		return v
	}
	return nil
}

// nameRefPattern captures $('Name') or $("Name") plus an optional trailing
// .item / .json / .path accessor chain.
var nameRefPattern = regexp.MustCompile(`^\$\(['"]([^'"]+)['"]\)(.*)$`)

func (e *Evaluator) evalNamedNode(raw string, rc *engine.NodeRuntimeContext) (any, error) {
	m := nameRefPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("expression: malformed node reference %q", raw)
	}
	name, rest := m[1], m[2]
	out, ok := rc.Output(name)
	if !ok || len(out) == 0 {
		return nil, nil
	}
	first := out[0].JSON

	rest = strings.TrimPrefix(rest, ".")
	rest = strings.TrimPrefix(rest, "item")
	rest = strings.TrimPrefix(rest, ".")
	rest = strings.TrimPrefix(rest, "json")
	rest = strings.TrimPrefix(rest, ".")
	return traverse(first, rest), nil
}

// evalBareOrExpr handles a bare identifier (§4.8's initialData.body /
// currentInput[0].json fallback chain) and, for anything more complex
// (arithmetic, comparisons, boolean logic over the resolved symbol table),
// falls through to expr-lang so `{{ $json.count > 10 }}`-style conditions
// work without this package re-implementing an expression grammar.
func (e *Evaluator) evalBareOrExpr(ctx context.Context, raw string, rc *engine.NodeRuntimeContext) (any, error) {
	if isBareIdentifier(raw) {
		if body, ok := bodyOf(rc.InitialData()); ok {
			if v := traverse(body, raw); v != nil {
				return v, nil
			}
		}
		return traverse(firstJSON(rc), raw), nil
	}

	env := e.buildEnv(ctx, rc)
	program, err := expr.Compile(raw, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("expression: compile %q: %w", raw, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("expression: eval %q: %w", raw, err)
	}
	return out, nil
}

// buildEnv exposes the same four namespaces as the path-resolution branches
// above, as plain map values, so an expr-lang condition can reference
// $json, $tokens, and bare identifiers the same way a path expression does.
func (e *Evaluator) buildEnv(_ context.Context, rc *engine.NodeRuntimeContext) map[string]any {
	env := map[string]any{
		"json":   firstJSON(rc),
		"tokens": rc.Tokens(),
	}
	if body, ok := bodyOf(rc.InitialData()); ok {
		if m, ok := body.(map[string]any); ok {
			for k, v := range m {
				if _, exists := env[k]; !exists {
					env[k] = v
				}
			}
		}
	}
	if m, ok := firstJSON(rc).(map[string]any); ok {
		for k, v := range m {
			if _, exists := env[k]; !exists {
				env[k] = v
			}
		}
	}
	return env
}

func isBareIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

func firstJSON(rc *engine.NodeRuntimeContext) any {
	return rc.CurrentInput().FirstJSON()
}

func bodyOf(seq models.ItemSequence) (any, bool) {
	first := seq.FirstJSON()
	if first == nil {
		return nil, false
	}
	if m, ok := first.(map[string]any); ok {
		if body, ok := m["body"]; ok {
			return body, true
		}
	}
	return nil, false
}

func itemsToAny(seq models.ItemSequence) []any {
	out := make([]any, len(seq))
	for i, item := range seq {
		out[i] = item.JSON
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
