package builtin

import (
	"context"
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/smilemakc/mbflow/go/pkg/engine"
	"github.com/smilemakc/mbflow/go/pkg/executor"
	"github.com/smilemakc/mbflow/go/pkg/executor/config"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// SetExecutor implements the set node: it writes node.Parameters["fields"]
// (already resolved against {{ }} templates/expressions by C1/C3) onto each
// input item's JSON object, optionally discarding the rest of the item when
// keep_only_set is true.
type SetExecutor struct {
	*executor.BaseExecutor
}

// NewSetExecutor returns a SetExecutor.
func NewSetExecutor() *SetExecutor {
	return &SetExecutor{BaseExecutor: executor.NewBaseExecutor("set")}
}

// Execute implements engine.Executor.
func (e *SetExecutor) Execute(_ context.Context, node *models.Node, input models.ItemSequence, _ *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	fields, _ := node.Parameters["fields"].(map[string]any)
	keepOnlySet := e.GetBoolDefault(node.Parameters, "keep_only_set", false)

	if len(input) == 0 {
		input = models.ItemSequence{{}}
	}
	out := make(models.ItemSequence, 0, len(input))
	for _, item := range input {
		var obj map[string]any
		if keepOnlySet {
			obj = make(map[string]any, len(fields))
		} else if base, ok := item.JSON.(map[string]any); ok {
			obj = make(map[string]any, len(base)+len(fields))
			for k, v := range base {
				obj[k] = v
			}
		} else {
			obj = make(map[string]any, len(fields))
		}
		for k, v := range fields {
			obj[k] = v
		}
		out = append(out, models.Item{JSON: obj, Binary: item.Binary})
	}
	return out, nil
}

// TransformExecutor implements the generic transform node (config.TransformConfig):
// a jq filter (grounded on itchyny/gojq, already part of the teacher's
// dependency set) is the only mode wired end to end here; template and
// expression modes are handled upstream by C1/C3 before the node executes,
// so a transform node configured with those types is already a passthrough
// by the time Execute sees it.
type TransformExecutor struct {
	*executor.BaseExecutor
}

// NewTransformExecutor returns a TransformExecutor.
func NewTransformExecutor() *TransformExecutor {
	return &TransformExecutor{BaseExecutor: executor.NewBaseExecutor("transform")}
}

// Execute implements engine.Executor.
func (e *TransformExecutor) Execute(_ context.Context, node *models.Node, input models.ItemSequence, _ *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	cfg, err := config.ParseConfig[config.TransformConfig](node.Parameters)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	if cfg.Type != "jq" {
		return input, nil
	}

	query, err := gojq.Parse(cfg.Filter)
	if err != nil {
		return nil, fmt.Errorf("transform: invalid jq filter: %w", err)
	}

	out := make(models.ItemSequence, 0, len(input))
	for _, item := range input {
		iter := query.Run(item.JSON)
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, ok := v.(error); ok {
				return nil, fmt.Errorf("transform: jq evaluation failed: %w", err)
			}
			out = append(out, models.Item{JSON: v})
		}
	}
	return out, nil
}
