package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/smilemakc/mbflow/go/pkg/engine"
	"github.com/smilemakc/mbflow/go/pkg/executor"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// CodeExecutor implements the code node: a sandboxed JavaScript snippet run
// per invocation through goja (the embedding pattern in this pack's
// Telegram/workflow automation example), with the current item sequence
// bound to the global `items` array and the script's return value becoming
// the new items.
//
// A script returning an array replaces the whole item sequence one-to-one;
// returning anything else wraps it as a single output item.
type CodeExecutor struct {
	*executor.BaseExecutor
}

// NewCodeExecutor returns a CodeExecutor.
func NewCodeExecutor() *CodeExecutor {
	return &CodeExecutor{BaseExecutor: executor.NewBaseExecutor("code")}
}

// codeTimeout bounds a single script run so a runaway loop in user-supplied
// JavaScript cannot stall the engine's sequential pass loop forever.
const codeTimeout = 10 * time.Second

// Execute implements engine.Executor.
func (e *CodeExecutor) Execute(ctx context.Context, node *models.Node, input models.ItemSequence, rc *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	source, err := e.GetString(node.Parameters, "code")
	if err != nil {
		return nil, fmt.Errorf("code: %w", err)
	}

	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	items := make([]any, len(input))
	for i, item := range input {
		items[i] = item.JSON
	}
	if err := vm.Set("items", items); err != nil {
		return nil, fmt.Errorf("code: %w", err)
	}
	if err := vm.Set("params", node.Parameters); err != nil {
		return nil, fmt.Errorf("code: %w", err)
	}
	if rc != nil {
		if err := vm.Set("variables", rc.Variables()); err != nil {
			return nil, fmt.Errorf("code: %w", err)
		}
	}

	timer := time.AfterFunc(codeTimeout, func() { vm.Interrupt("code: execution timed out") })
	defer timer.Stop()

	done := make(chan struct{})
	var value goja.Value
	var runErr error
	go func() {
		defer close(done)
		value, runErr = vm.RunString(source)
	}()
	select {
	case <-ctx.Done():
		vm.Interrupt("code: execution cancelled")
		<-done
		return nil, ctx.Err()
	case <-done:
	}
	if runErr != nil {
		return nil, fmt.Errorf("code: %w", runErr)
	}

	result := value.Export()
	switch v := result.(type) {
	case []any:
		out := make(models.ItemSequence, len(v))
		for i, r := range v {
			out[i] = models.Item{JSON: r}
		}
		return out, nil
	case nil:
		return models.ItemSequence{}, nil
	default:
		return models.ItemSequence{{JSON: v}}, nil
	}
}
