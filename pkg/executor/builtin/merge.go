package builtin

import (
	"context"

	"github.com/smilemakc/mbflow/go/pkg/engine"
	"github.com/smilemakc/mbflow/go/pkg/executor"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// MergeExecutor implements the merge node. The engine has already combined
// every connected source's output into one input sequence (§4.4), so
// "concat" (the default) is simply a passthrough; "deep_merge" additionally
// folds every item's JSON object into a single output item, later items
// overwriting earlier ones on key collision.
type MergeExecutor struct {
	*executor.BaseExecutor
}

// NewMergeExecutor returns a MergeExecutor.
func NewMergeExecutor() *MergeExecutor {
	return &MergeExecutor{BaseExecutor: executor.NewBaseExecutor("merge")}
}

// Execute implements engine.Executor.
func (e *MergeExecutor) Execute(_ context.Context, node *models.Node, input models.ItemSequence, _ *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	strategy := e.GetStringDefault(node.Parameters, "strategy", "concat")
	if strategy != "deep_merge" {
		return input, nil
	}

	merged := make(map[string]any)
	for _, item := range input {
		obj, ok := item.JSON.(map[string]any)
		if !ok {
			continue
		}
		for k, v := range obj {
			merged[k] = v
		}
	}
	return models.ItemSequence{{JSON: merged}}, nil
}
