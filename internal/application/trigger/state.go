// Package trigger implements the scheduler / polling supervisor (component
// C6): a single owning structure that tracks one goroutine per registered
// (userID, workflowID) pair, fires on cron schedules or inbound events, and
// persists per-trigger cursor/dedup state to Redis so a restart resumes
// rather than re-firing or skipping.
package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/smilemakc/mbflow/go/internal/infrastructure/cache"
)

// TriggerState is the runtime cursor/dedup record for one trigger, persisted
// to Redis so a supervisor restart does not re-fire or lose its place.
type TriggerState struct {
	TriggerID      string    `json:"trigger_id"`
	LastExecuted   time.Time `json:"last_executed"`
	NextExecution  time.Time `json:"next_execution,omitempty"`
	ExecutionCount int64     `json:"execution_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewTriggerState returns a fresh, never-executed state for triggerID.
func NewTriggerState(triggerID string) *TriggerState {
	return &TriggerState{
		TriggerID:      triggerID,
		ExecutionCount: 0,
		UpdatedAt:      time.Now(),
	}
}

// MarkExecuted records a firing at the current time.
func (ts *TriggerState) MarkExecuted() {
	ts.LastExecuted = time.Now()
	ts.ExecutionCount++
	ts.UpdatedAt = time.Now()
}

// SetNextExecution records when the trigger is next due to fire.
func (ts *TriggerState) SetNextExecution(t time.Time) {
	ts.NextExecution = t
	ts.UpdatedAt = time.Now()
}

// Save persists the trigger state to Redis with no expiration; it lives
// until DeleteTriggerState removes it alongside the trigger itself.
func (ts *TriggerState) Save(ctx context.Context, cache *cache.RedisCache) error {
	key := getTriggerStateKey(ts.TriggerID)

	data, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger state: %w", err)
	}

	if err := cache.Set(ctx, key, string(data), 0); err != nil {
		return fmt.Errorf("failed to save trigger state: %w", err)
	}

	return nil
}

// LoadTriggerState loads a trigger's persisted state from Redis.
func LoadTriggerState(ctx context.Context, cache *cache.RedisCache, triggerID string) (*TriggerState, error) {
	key := getTriggerStateKey(triggerID)

	data, err := cache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load trigger state: %w", err)
	}

	var state TriggerState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger state: %w", err)
	}

	return &state, nil
}

// DeleteTriggerState removes a trigger's persisted state from Redis.
func DeleteTriggerState(ctx context.Context, cache *cache.RedisCache, triggerID string) error {
	key := getTriggerStateKey(triggerID)
	return cache.Delete(ctx, key)
}

func getTriggerStateKey(triggerID string) string {
	return fmt.Sprintf("trigger:%s:state", triggerID)
}
