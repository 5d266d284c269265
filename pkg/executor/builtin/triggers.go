package builtin

import (
	"context"

	"github.com/smilemakc/mbflow/go/pkg/engine"
	"github.com/smilemakc/mbflow/go/pkg/executor"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// ManualExecutor is the manual trigger: it has no upstream, so the engine
// never applies empty-input propagation to it (§4.3), and it simply emits
// the execution's seed data unchanged.
type ManualExecutor struct {
	*executor.BaseExecutor
}

// NewManualExecutor returns a ManualExecutor.
func NewManualExecutor() *ManualExecutor {
	return &ManualExecutor{BaseExecutor: executor.NewBaseExecutor("manual")}
}

// Execute implements engine.Executor.
func (e *ManualExecutor) Execute(_ context.Context, _ *models.Node, input models.ItemSequence, rc *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	if len(input) > 0 {
		return input, nil
	}
	if rc != nil {
		return rc.InitialData(), nil
	}
	return models.ItemSequence{}, nil
}

// ScheduleExecutor is the cron trigger: the polling supervisor (C6) decides
// when to fire an execution at all, so by the time the engine reaches this
// node the schedule has already been honored; Execute just seeds the run.
type ScheduleExecutor struct {
	*executor.BaseExecutor
}

// NewScheduleExecutor returns a ScheduleExecutor.
func NewScheduleExecutor() *ScheduleExecutor {
	return &ScheduleExecutor{BaseExecutor: executor.NewBaseExecutor("schedule")}
}

// Execute implements engine.Executor.
func (e *ScheduleExecutor) Execute(_ context.Context, _ *models.Node, _ models.ItemSequence, rc *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	if rc != nil && len(rc.InitialData()) > 0 {
		return rc.InitialData(), nil
	}
	return models.ItemSequence{{JSON: map[string]any{"triggeredAt": "scheduled"}}}, nil
}

// WebhookExecutor is the webhook trigger: the host application's HTTP
// handler has already placed the parsed request body into the execution's
// seed data before calling Engine.Run, so Execute just forwards it.
type WebhookExecutor struct {
	*executor.BaseExecutor
}

// NewWebhookExecutor returns a WebhookExecutor.
func NewWebhookExecutor() *WebhookExecutor {
	return &WebhookExecutor{BaseExecutor: executor.NewBaseExecutor("webhook")}
}

// Execute implements engine.Executor.
func (e *WebhookExecutor) Execute(_ context.Context, _ *models.Node, _ models.ItemSequence, rc *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	if rc != nil {
		return rc.InitialData(), nil
	}
	return models.ItemSequence{}, nil
}

// StickyNoteExecutor backs the stickyNote node type. The engine excludes
// stickyNote nodes from auto-scheduling entirely (§4.2), so this Execute
// body never actually runs in a normal pass; it exists only so the
// executor registry has an entry to satisfy validation that every node
// type in a graph is known.
type StickyNoteExecutor struct {
	*executor.BaseExecutor
}

// NewStickyNoteExecutor returns a StickyNoteExecutor.
func NewStickyNoteExecutor() *StickyNoteExecutor {
	return &StickyNoteExecutor{BaseExecutor: executor.NewBaseExecutor("stickyNote")}
}

// Execute implements engine.Executor as a no-op.
func (e *StickyNoteExecutor) Execute(_ context.Context, _ *models.Node, input models.ItemSequence, _ *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	return input, nil
}
