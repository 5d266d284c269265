package engine

import (
	"github.com/google/uuid"

	storagemodels "github.com/smilemakc/mbflow/go/internal/infrastructure/storage/models"
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// executionDomainToModel converts a domain Execution into the storage row
// ExecutionManager persists via repository.ExecutionRepository. When
// execution.ID does not parse as a UUID (it always should, since
// ExecutionManager mints it itself) a fresh one is generated rather than
// failing the run over a persistence-layer formality.
func executionDomainToModel(execution *models.Execution) *storagemodels.ExecutionModel {
	id, err := uuid.Parse(execution.ID)
	if err != nil {
		id = uuid.New()
	}
	workflowID, _ := uuid.Parse(execution.WorkflowID)

	em := &storagemodels.ExecutionModel{
		ID:         id,
		WorkflowID: workflowID,
		Status:     string(execution.Status),
		InputData:  storagemodels.JSONBMap(execution.Input),
		OutputData: storagemodels.JSONBMap(execution.Output),
		Variables:  storagemodels.JSONBMap(execution.Variables),
		StrictMode: execution.StrictMode,
		Error:      execution.Error,
	}
	if !execution.StartedAt.IsZero() {
		started := execution.StartedAt
		em.StartedAt = &started
	}
	em.CompletedAt = execution.CompletedAt
	return em
}

// nodeExecutionDomainToModel converts a domain NodeExecution into the
// storage row persisted alongside its owning execution.
func nodeExecutionDomainToModel(executionID uuid.UUID, ne *models.NodeExecution) *storagemodels.NodeExecutionModel {
	id, err := uuid.Parse(ne.ID)
	if err != nil {
		id = uuid.New()
	}
	nodeID, _ := uuid.Parse(ne.NodeID)

	model := &storagemodels.NodeExecutionModel{
		ID:          id,
		ExecutionID: executionID,
		NodeID:      nodeID,
		Status:      string(ne.Status),
		InputData:   storagemodels.JSONBMap(ne.Input),
		OutputData:  storagemodels.JSONBMap(ne.Output),
		Error:       ne.Error,
		RetryCount:  ne.RetryCount,
		Wave:        ne.Wave,
	}
	if !ne.StartedAt.IsZero() {
		started := ne.StartedAt
		model.StartedAt = &started
	}
	model.CompletedAt = ne.CompletedAt
	return model
}
