package builtin

import (
	"context"

	"github.com/smilemakc/mbflow/go/pkg/engine"
	"github.com/smilemakc/mbflow/go/pkg/executor"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// SplitInBatchesExecutor implements the splitInBatches node: it slices its
// input into fixed-size batches and, across repeated invocations of the
// same execution (e.g. a polling run that re-enters the same workflow),
// advances a cursor held in the node's BatchState so each call emits the
// next batch rather than restarting from the beginning.
type SplitInBatchesExecutor struct {
	*executor.BaseExecutor
}

// NewSplitInBatchesExecutor returns a SplitInBatchesExecutor.
func NewSplitInBatchesExecutor() *SplitInBatchesExecutor {
	return &SplitInBatchesExecutor{BaseExecutor: executor.NewBaseExecutor("splitInBatches")}
}

// Execute implements engine.Executor.
func (e *SplitInBatchesExecutor) Execute(_ context.Context, node *models.Node, input models.ItemSequence, rc *engine.NodeRuntimeContext) (models.ItemSequence, error) {
	batchSize := e.GetIntDefault(node.Parameters, "batch_size", 1)
	if batchSize < 1 {
		batchSize = 1
	}

	if rc == nil {
		return firstBatch(input, batchSize), nil
	}

	batch := rc.BatchState()
	if len(batch.AllItems) == 0 && len(input) > 0 {
		batch.AllItems = input
		batch.BatchSize = batchSize
		batch.TotalBatches = (len(input) + batchSize - 1) / batchSize
		batch.Cursor = 0
	}
	if batch.Cursor >= len(batch.AllItems) {
		return models.ItemSequence{}, nil
	}

	end := batch.Cursor + batch.BatchSize
	if end > len(batch.AllItems) {
		end = len(batch.AllItems)
	}
	out := batch.AllItems[batch.Cursor:end]
	batch.Cursor = end
	return out, nil
}

func firstBatch(input models.ItemSequence, batchSize int) models.ItemSequence {
	if len(input) < batchSize {
		return input
	}
	return input[:batchSize]
}
