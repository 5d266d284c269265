package models

import "time"

// AutomationState is the one persisted row per (user, workflow) pair the
// polling supervisor reads and writes. It carries both the OAuth state
// needed for credential refresh and the incremental polling state (cursor
// and dedup set) a trigger needs to avoid reprocessing items.
type AutomationState struct {
	UserID     string `json:"user_id"`
	WorkflowID string `json:"workflow_id"`

	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	TokenExpiry  *time.Time `json:"token_expiry,omitempty"`
	Provider     string     `json:"provider,omitempty"`

	IsActive   bool           `json:"is_active"`
	Parameters map[string]any `json:"parameters"`

	PollData PollData `json:"automation_data"`

	RunCount  int        `json:"run_count"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
}

// PollData is the incremental state a polling trigger accumulates across
// ticks: the timestamp cursor bounding the next window to consider, and the
// set of natural keys already emitted (for dedup within the overlap that
// the cursor window necessarily introduces).
type PollData struct {
	LastPollTime   time.Time `json:"lastPollTime"`
	ProcessedFiles []string  `json:"processedFiles"`
	LastRun        time.Time `json:"lastRun"`
	TotalProcessed int       `json:"totalProcessed"`
}

// HasProcessed reports whether key has already been recorded as emitted.
func (p *PollData) HasProcessed(key string) bool {
	for _, k := range p.ProcessedFiles {
		if k == key {
			return true
		}
	}
	return false
}

// MarkProcessed appends key to the processed set if it is not already
// present. processedFiles is append-only for the lifetime of a polling
// series, matching the persistence-monotonicity invariant.
func (p *PollData) MarkProcessed(key string) {
	if !p.HasProcessed(key) {
		p.ProcessedFiles = append(p.ProcessedFiles, key)
	}
}
