package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/smilemakc/mbflow/go/internal/application/expression"
	"github.com/smilemakc/mbflow/go/internal/application/observer"
	"github.com/smilemakc/mbflow/go/internal/domain/repository"
	storagemodels "github.com/smilemakc/mbflow/go/internal/infrastructure/storage/models"
	pkgengine "github.com/smilemakc/mbflow/go/pkg/engine"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// ExecutionManager loads a stored workflow, runs it through the engine
// (pkg/engine), and persists the resulting execution and per-node records.
// It is the single entry point both trigger-driven runs (cron, webhook,
// event poll) and the service API use to start a workflow.
type ExecutionManager struct {
	executorManager pkgengine.ExecutorManager
	workflowRepo    repository.WorkflowRepository
	executionRepo   repository.ExecutionRepository
	eventRepo       repository.EventRepository
	observerManager *observer.ObserverManager
	engine          *pkgengine.Engine
}

// NewExecutionManager builds an ExecutionManager. observerManager may be
// nil, in which case execution events are simply not fanned out anywhere.
func NewExecutionManager(
	executorManager pkgengine.ExecutorManager,
	workflowRepo repository.WorkflowRepository,
	executionRepo repository.ExecutionRepository,
	eventRepo repository.EventRepository,
	observerManager *observer.ObserverManager,
) *ExecutionManager {
	eng := pkgengine.New(
		executorManager,
		pkgengine.WithExpressionEvaluator(expression.New()),
		pkgengine.WithObserverManager(NewObserverAdapter(observerManager)),
	)

	return &ExecutionManager{
		executorManager: executorManager,
		workflowRepo:    workflowRepo,
		executionRepo:   executionRepo,
		eventRepo:       eventRepo,
		observerManager: observerManager,
		engine:          eng,
	}
}

// Execute loads workflowID, runs it synchronously against input, and
// persists the resulting Execution and NodeExecution rows. The returned
// error is only set for abort-class failures (workflow not found, invalid
// ID, persistence failure); a run that completes with per-node errors still
// returns a non-nil *models.Execution with Status failed.
func (em *ExecutionManager) Execute(ctx context.Context, workflowID string, input map[string]any, opts *ExecutionOptions) (*models.Execution, error) {
	if opts == nil {
		opts = DefaultExecutionOptions()
	}

	workflowUUID, err := uuid.Parse(workflowID)
	if err != nil {
		return nil, fmt.Errorf("invalid workflow ID: %w", err)
	}

	workflowModel, err := em.workflowRepo.FindByIDWithRelations(ctx, workflowUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	workflow := storagemodels.WorkflowModelToDomain(workflowModel)

	execution := &models.Execution{
		ID:           uuid.New().String(),
		WorkflowID:   workflow.ID,
		WorkflowName: workflow.Name,
		Status:       models.ExecutionStatusRunning,
		Input:        input,
		Variables:    mergeVariables(workflow.Variables, opts.Variables),
		StrictMode:   opts.StrictMode,
		StartedAt:    time.Now(),
	}

	executionModel := executionDomainToModel(execution)
	if err := em.executionRepo.Create(ctx, executionModel); err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	em.notify(ctx, observer.EventTypeExecutionStarted, execution, nil)

	state := pkgengine.NewExecutionState(
		execution.ID,
		workflow.ID,
		workflow,
		models.NewItemSequence(input),
		execution.Variables,
	)

	result, runErr := em.engine.Run(ctx, state)

	now := time.Now()
	execution.CompletedAt = &now
	execution.Duration = execution.CalculateDuration()

	switch {
	case runErr != nil:
		execution.Status = models.ExecutionStatusFailed
		execution.Error = runErr.Error()
	case result != nil && !result.Success:
		execution.Status = models.ExecutionStatusFailed
		execution.Error = result.Error
	default:
		execution.Status = models.ExecutionStatusCompleted
	}

	if result != nil {
		execution.Output = finalOutput(workflow, result)
		execution.NodeExecutions = em.buildNodeExecutions(execution.ID, workflowModel, workflow, result)
	}

	executionModel = executionDomainToModel(execution)
	if err := em.executionRepo.Update(ctx, executionModel); err != nil {
		return execution, fmt.Errorf("failed to persist execution result: %w", err)
	}
	em.persistNodeExecutions(ctx, executionModel.ID, execution.NodeExecutions)

	if execution.Status == models.ExecutionStatusCompleted {
		em.notify(ctx, observer.EventTypeExecutionCompleted, execution, nil)
	} else {
		em.notify(ctx, observer.EventTypeExecutionFailed, execution, runErr)
	}

	return execution, nil
}

// ExecuteAsync starts the execution in a background goroutine and returns
// immediately with the execution record in its "running" state, for
// callers (the service API) that poll or subscribe for completion instead
// of blocking on it.
func (em *ExecutionManager) ExecuteAsync(ctx context.Context, workflowID string, input map[string]any, opts *ExecutionOptions) (*models.Execution, error) {
	workflowUUID, err := uuid.Parse(workflowID)
	if err != nil {
		return nil, fmt.Errorf("invalid workflow ID: %w", err)
	}
	workflowModel, err := em.workflowRepo.FindByID(ctx, workflowUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}

	pending := &models.Execution{
		ID:         uuid.New().String(),
		WorkflowID: workflowModel.ID.String(),
		Status:     models.ExecutionStatusPending,
		Input:      input,
		StartedAt:  time.Now(),
	}
	if err := em.executionRepo.Create(ctx, executionDomainToModel(pending)); err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	bgCtx := detachContext(ctx)
	go func() {
		if _, err := em.executeExisting(bgCtx, pending.ID, workflowID, input, opts); err != nil {
			slog.Error("async execution failed", "execution_id", pending.ID, "workflow_id", workflowID, "error", err)
		}
	}()

	return pending, nil
}

// executeExisting runs the engine against an execution row that was already
// created (by ExecuteAsync) in the pending state, rather than creating a
// fresh one the way Execute does.
func (em *ExecutionManager) executeExisting(ctx context.Context, executionID, workflowID string, input map[string]any, opts *ExecutionOptions) (*models.Execution, error) {
	if opts == nil {
		opts = DefaultExecutionOptions()
	}

	workflowUUID, err := uuid.Parse(workflowID)
	if err != nil {
		return nil, err
	}
	workflowModel, err := em.workflowRepo.FindByIDWithRelations(ctx, workflowUUID)
	if err != nil {
		return nil, err
	}
	workflow := storagemodels.WorkflowModelToDomain(workflowModel)
	variables := mergeVariables(workflow.Variables, opts.Variables)

	execution := &models.Execution{
		ID:         executionID,
		WorkflowID: workflow.ID,
		Status:     models.ExecutionStatusRunning,
		Input:      input,
		Variables:  variables,
		StartedAt:  time.Now(),
	}
	em.notify(ctx, observer.EventTypeExecutionStarted, execution, nil)

	state := pkgengine.NewExecutionState(executionID, workflow.ID, workflow, models.NewItemSequence(input), variables)
	result, runErr := em.engine.Run(ctx, state)

	now := time.Now()
	execution.CompletedAt = &now
	execution.Duration = execution.CalculateDuration()
	switch {
	case runErr != nil:
		execution.Status = models.ExecutionStatusFailed
		execution.Error = runErr.Error()
	case result != nil && !result.Success:
		execution.Status = models.ExecutionStatusFailed
		execution.Error = result.Error
	default:
		execution.Status = models.ExecutionStatusCompleted
	}
	if result != nil {
		execution.Output = finalOutput(workflow, result)
		execution.NodeExecutions = em.buildNodeExecutions(executionID, workflowModel, workflow, result)
	}

	executionModel := executionDomainToModel(execution)
	if err := em.executionRepo.Update(ctx, executionModel); err != nil {
		return execution, err
	}
	em.persistNodeExecutions(ctx, executionModel.ID, execution.NodeExecutions)

	if execution.Status == models.ExecutionStatusCompleted {
		em.notify(ctx, observer.EventTypeExecutionCompleted, execution, nil)
	} else {
		em.notify(ctx, observer.EventTypeExecutionFailed, execution, runErr)
	}

	return execution, nil
}

func (em *ExecutionManager) notify(ctx context.Context, eventType observer.EventType, execution *models.Execution, notifyErr error) {
	if em.observerManager == nil {
		return
	}
	em.observerManager.Notify(ctx, observer.Event{
		Type:        eventType,
		ExecutionID: execution.ID,
		WorkflowID:  execution.WorkflowID,
		Timestamp:   time.Now(),
		Status:      string(execution.Status),
		Input:       execution.Input,
		Output:      execution.Output,
		Variables:   execution.Variables,
		Error:       notifyErr,
	})
}

func (em *ExecutionManager) persistNodeExecutions(ctx context.Context, executionID uuid.UUID, nodeExecs []*models.NodeExecution) {
	for _, ne := range nodeExecs {
		model := nodeExecutionDomainToModel(executionID, ne)
		if err := em.executionRepo.CreateNodeExecution(ctx, model); err != nil {
			slog.Error("failed to persist node execution", "execution_id", executionID, "node_id", ne.NodeID, "error", err)
		}
	}
}

// buildNodeExecutions turns the engine's per-node status/outputs into
// NodeExecution records keyed by the node's storage row UUID, the same way
// the workflow's own node rows are addressed elsewhere.
func (em *ExecutionManager) buildNodeExecutions(executionID string, workflowModel *storagemodels.WorkflowModel, workflow *models.Workflow, result *models.ExecutionResult) []*models.NodeExecution {
	nodeRowID := make(map[string]string, len(workflowModel.Nodes))
	for _, nm := range workflowModel.Nodes {
		nodeRowID[nm.NodeID] = nm.ID.String()
	}

	nodeExecs := make([]*models.NodeExecution, 0, len(workflow.Nodes))
	errByNode := make(map[string]string, len(result.Errors))
	for _, e := range result.Errors {
		errByNode[e.Node] = e.Message
	}

	for _, node := range workflow.Nodes {
		status, ran := result.Status[node.Name]
		if !ran {
			continue
		}
		rowID, ok := nodeRowID[node.Name]
		if !ok {
			continue
		}

		ne := &models.NodeExecution{
			ID:          uuid.New().String(),
			ExecutionID: executionID,
			NodeID:      rowID,
			NodeName:    node.Name,
			NodeType:    node.Type,
			Status:      engineStatusToDomain(status),
		}
		if output, ok := result.Outputs[node.Name]; ok {
			ne.Output = map[string]any{"items": output}
		}
		if msg, ok := errByNode[node.Name]; ok {
			ne.Error = msg
		}
		nodeExecs = append(nodeExecs, ne)
	}

	return nodeExecs
}

func engineStatusToDomain(s models.NodeExecutionStatus) models.ExecNodeStatus {
	switch s {
	case models.NodeExecutionSuccess:
		return models.NodeExecutionStatusCompleted
	case models.NodeExecutionSkipped:
		return models.NodeExecutionStatusSkipped
	case models.NodeExecutionErrored:
		return models.NodeExecutionStatusFailed
	default:
		return models.NodeExecutionStatusPending
	}
}

// finalOutput returns the output of the workflow's leaf nodes (those that
// feed no other node on the main channel), namespaced by node name when
// there is more than one.
func finalOutput(workflow *models.Workflow, result *models.ExecutionResult) map[string]any {
	hasDownstream := make(map[string]bool)
	for source, byChannel := range workflow.Connections {
		for channel, slots := range byChannel {
			if channel != models.ChannelMain {
				continue
			}
			for _, slot := range slots {
				if len(slot) > 0 {
					hasDownstream[source] = true
				}
			}
		}
	}

	var leaves []string
	for _, node := range workflow.Nodes {
		if !hasDownstream[node.Name] {
			leaves = append(leaves, node.Name)
		}
	}

	if len(leaves) == 1 {
		if out, ok := result.Outputs[leaves[0]]; ok {
			return map[string]any{"items": out}
		}
		return nil
	}

	merged := make(map[string]any, len(leaves))
	for _, name := range leaves {
		if out, ok := result.Outputs[name]; ok {
			merged[name] = out
		}
	}
	return merged
}

func mergeVariables(workflowVars, executionVars map[string]any) map[string]any {
	merged := make(map[string]any, len(workflowVars)+len(executionVars))
	for k, v := range workflowVars {
		merged[k] = v
	}
	for k, v := range executionVars {
		merged[k] = v
	}
	return merged
}

// detachContext strips the deadline/cancellation of ctx while preserving its
// values, so an ExecuteAsync run outlives the HTTP request that started it.
func detachContext(ctx context.Context) context.Context {
	return detachedContext{ctx}
}

type detachedContext struct{ parent context.Context }

func (d detachedContext) Deadline() (time.Time, bool)    { return time.Time{}, false }
func (d detachedContext) Done() <-chan struct{}          { return nil }
func (d detachedContext) Err() error                     { return nil }
func (d detachedContext) Value(key any) any              { return d.parent.Value(key) }
