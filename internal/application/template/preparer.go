package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/smilemakc/mbflow/go/pkg/models"
)

// placeholderPattern matches {{NAME}} where NAME is all-caps/digits/underscore
// — the deploy-time parameter form, distinct from the lowercase/dotted
// expression language of §4.8 ({{ $json.field }} etc.), which this pass
// never touches.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Z0-9_]+)\s*\}\}`)

// credentialTypeToToken maps a node credential's declared type to the
// canonical developer-key token name it resolves to once a placeholder
// is matched against developerKeys. Unknown types pass through unchanged
// with an "ApiKey" suffix, matching the pattern every known entry follows.
var credentialTypeToToken = map[string]string{
	"openRouterApi": "openRouterApiKey",
	"openAiApi":     "openAiApiKey",
	"anthropicApi":  "anthropicApiKey",
	"huggingFaceApi": "huggingFaceApiKey",
	"googleOauth":   "googleAccessToken",
	"tiktokOauth":   "tiktokAccessToken",
	"telegramBot":   "telegramBotToken",
}

// RequiredParams is the set of {{NAME}} placeholder names found while
// preparing a workflow, regardless of whether params actually supplied a
// value for each.
type RequiredParams map[string]struct{}

// Preparer implements C1: parameter substitution and credential placeholder
// resolution over a deep copy of a workflow, leaving the stored template
// untouched.
type Preparer struct{}

// New returns a Preparer.
func New() *Preparer {
	return &Preparer{}
}

// ResolvedCredentials maps a canonical token name (e.g. "openRouterApiKey")
// to the developer key value it resolved to during credential placeholder
// resolution (§4.6(b)).
type ResolvedCredentials map[string]string

// Prepare deep-copies wf, substitutes every {{NAME}} parameter placeholder
// from params, resolves credential placeholders against developerKeys, and
// returns the prepared workflow, the full set of parameter names it
// encountered (§4.6's "required-parameter set"), and the canonical
// credential values it resolved along the way.
func (p *Preparer) Prepare(wf *models.Workflow, params map[string]any, developerKeys map[string]string) (*models.Workflow, RequiredParams, ResolvedCredentials, error) {
	prepared := wf.Clone()
	required := make(RequiredParams)
	resolved := make(ResolvedCredentials)

	for _, node := range prepared.Nodes {
		if node.Parameters == nil {
			node.Parameters = make(map[string]any)
		}
		substituted, _ := substituteValue(node.Parameters, params, required).(map[string]any)
		node.Parameters = substituted
		resolveCredentials(node, developerKeys, resolved)
	}

	return prepared, required, resolved, nil
}

func substituteValue(v any, params map[string]any, required RequiredParams) any {
	switch t := v.(type) {
	case string:
		return substituteString(t, params, required)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = substituteValue(val, params, required)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = substituteValue(val, params, required)
		}
		return out
	default:
		return v
	}
}

// substituteString implements §4.6(a): a string that is exactly one
// placeholder substitutes the typed value; otherwise every placeholder
// found is spliced back in as text, left untouched if params has no entry.
func substituteString(s string, params map[string]any, required RequiredParams) any {
	matches := placeholderPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	for _, m := range matches {
		required[s[m[2]:m[3]]] = struct{}{}
	}

	if len(matches) == 1 {
		m := matches[0]
		name := s[m[2]:m[3]]
		if m[0] == 0 && m[1] == len(s) {
			val, ok := params[name]
			if !ok {
				return s
			}
			return val
		}
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		name := s[m[2]:m[3]]
		if val, ok := params[name]; ok {
			b.WriteString(stringifyParam(val))
		} else {
			b.WriteString(s[m[0]:m[1]])
		}
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func stringifyParam(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// resolveCredentials implements §4.6(b): a credential whose id is exactly
// one all-caps placeholder, matched against developerKeys, is marked
// Resolved and its canonical token value recorded in resolved.
func resolveCredentials(node *models.Node, developerKeys map[string]string, resolved ResolvedCredentials) {
	if node.Credentials == nil {
		return
	}
	for key, ref := range node.Credentials {
		m := placeholderPattern.FindStringSubmatch(ref.ID)
		if m == nil {
			continue
		}
		name := m[1]
		value, ok := developerKeys[name]
		if !ok {
			continue
		}
		ref.Resolved = true
		node.Credentials[key] = ref

		canonical := ref.Type
		if mapped, ok := credentialTypeToToken[ref.Type]; ok {
			canonical = mapped
		}
		resolved[canonical] = value
	}
}
