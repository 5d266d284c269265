package builtin

import (
	"context"
	"time"

	"github.com/smilemakc/mbflow/go/pkg/engine"
	"github.com/smilemakc/mbflow/go/pkg/executor"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// WaitExecutor implements the wait node: it pauses for a configured
// duration (capped to avoid blocking the engine's single-threaded pass
// loop indefinitely) before passing its input through unchanged.
type WaitExecutor struct {
	*executor.BaseExecutor
}

// NewWaitExecutor returns a WaitExecutor.
func NewWaitExecutor() *WaitExecutor {
	return &WaitExecutor{BaseExecutor: executor.NewBaseExecutor("wait")}
}

// maxWait bounds how long a single wait node blocks a run; a host wanting
// longer delays should use the polling supervisor (C6) instead.
const maxWait = 5 * time.Minute

// Execute implements engine.Executor.
func (e *WaitExecutor) Execute(ctx context.Context, node *models.Node, input models.ItemSequence, _ *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	seconds := e.GetFloat64Default(node.Parameters, "seconds", 0)
	d := time.Duration(seconds * float64(time.Second))
	if d > maxWait {
		d = maxWait
	}
	if d <= 0 {
		return input, nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return input, nil
	}
}
