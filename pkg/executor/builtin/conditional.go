package builtin

import (
	"context"

	"github.com/smilemakc/mbflow/go/pkg/engine"
	"github.com/smilemakc/mbflow/go/pkg/executor"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// IfExecutor implements the two-branch if node (§4.4's branch-pruning
// scenario). Its "condition" parameter is a {{ }} expression that C1/C3
// already resolved to a boolean before Execute runs; Execute only reads the
// resolved value. Per the engine's single-stored-output convention, an
// inactive branch is represented by returning no items at all rather than
// by tagging which output slot is "active" — both downstream branches read
// the same stored output, so only one of them ever sees anything.
type IfExecutor struct {
	*executor.BaseExecutor
}

// NewIfExecutor returns an IfExecutor.
func NewIfExecutor() *IfExecutor {
	return &IfExecutor{BaseExecutor: executor.NewBaseExecutor("if")}
}

// Execute implements engine.Executor.
func (e *IfExecutor) Execute(_ context.Context, node *models.Node, input models.ItemSequence, _ *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	if truthy(node.Parameters["condition"]) {
		return input, nil
	}
	return models.ItemSequence{}, nil
}

// SwitchExecutor implements the multi-branch switch node. Each entry in its
// "branches" parameter carries a pre-resolved boolean "condition"; the first
// true branch (or, failing that, the presence of a "default" value) makes
// this node active for the pass, using the same single-output convention as
// IfExecutor.
type SwitchExecutor struct {
	*executor.BaseExecutor
}

// NewSwitchExecutor returns a SwitchExecutor.
func NewSwitchExecutor() *SwitchExecutor {
	return &SwitchExecutor{BaseExecutor: executor.NewBaseExecutor("switch")}
}

// Execute implements engine.Executor.
func (e *SwitchExecutor) Execute(_ context.Context, node *models.Node, input models.ItemSequence, _ *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	branches, _ := node.Parameters["branches"].([]any)
	for _, b := range branches {
		branch, ok := b.(map[string]any)
		if !ok {
			continue
		}
		if truthy(branch["condition"]) {
			return input, nil
		}
	}
	if _, hasDefault := node.Parameters["default"]; hasDefault {
		return input, nil
	}
	return models.ItemSequence{}, nil
}

// truthy coerces a resolved expression value to a boolean the way the
// mini-language's comparison/logical operators already would: bools pass
// through, non-zero numbers and non-empty strings/collections are true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && t != "false"
	case float64:
		return t != 0
	case int:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
