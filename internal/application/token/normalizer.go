// Package token implements Token Normalization & Injection (C2): mapping
// raw provider token keys onto a canonical token bag, then filling node
// credential parameters from that bag before an execution starts.
package token

// defaultAliases is the substitution table of §4.7: every key on the left
// normalizes to the canonical name on the right. Caller-supplied overrides
// take precedence over this table; unknown keys pass through unchanged.
var defaultAliases = map[string]string{
	"google_oauth_token":  "googleAccessToken",
	"google_access_token":  "googleAccessToken",
	"google_token":         "googleAccessToken",
	"openai_api_key":       "openAiApiKey",
	"openai_key":           "openAiApiKey",
	"openrouter_api_key":   "openRouterApiKey",
	"anthropic_api_key":    "anthropicApiKey",
	"hugging_face_api_key": "huggingFaceApiKey",
	"tiktok_access_token":  "tiktokAccessToken",
	"telegram_bot_token":   "telegramBotToken",
}

// Normalizer rewrites a raw token bag (keyed however the caller's storage
// or OAuth provider happens to name things) onto the canonical names the
// rest of the engine expects.
type Normalizer struct {
	aliases map[string]string
}

// New returns a Normalizer using the built-in alias table, optionally
// extended or overridden by overrides (overrides win on key collision).
func New(overrides map[string]string) *Normalizer {
	aliases := make(map[string]string, len(defaultAliases)+len(overrides))
	for k, v := range defaultAliases {
		aliases[k] = v
	}
	for k, v := range overrides {
		aliases[k] = v
	}
	return &Normalizer{aliases: aliases}
}

// Normalize maps every key in raw through the alias table, passing unknown
// keys through unchanged.
func (n *Normalizer) Normalize(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		canonical := k
		if alias, ok := n.aliases[k]; ok {
			canonical = alias
		}
		out[canonical] = v
	}
	return out
}
