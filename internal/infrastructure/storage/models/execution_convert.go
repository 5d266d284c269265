package models

import (
	"github.com/smilemakc/mbflow/go/pkg/models"
)

// ExecutionModelToDomain converts a storage ExecutionModel (and any preloaded
// NodeExecutions relation) into the domain Execution returned by the
// application and service-API layers.
func ExecutionModelToDomain(em *ExecutionModel) *models.Execution {
	if em == nil {
		return nil
	}

	exec := &models.Execution{
		ID:         em.ID.String(),
		WorkflowID: em.WorkflowID.String(),
		Status:     models.ExecutionStatus(em.Status),
		Input:      map[string]interface{}(em.InputData),
		Output:     map[string]interface{}(em.OutputData),
		Error:      em.Error,
		Variables:  map[string]interface{}(em.Variables),
		StrictMode: em.StrictMode,
	}
	if em.StartedAt != nil {
		exec.StartedAt = *em.StartedAt
	} else {
		exec.StartedAt = em.CreatedAt
	}
	exec.CompletedAt = em.CompletedAt
	exec.Duration = exec.CalculateDuration()
	if em.Workflow != nil {
		exec.WorkflowName = em.Workflow.Name
	}
	for k, v := range em.Metadata {
		if exec.Metadata == nil {
			exec.Metadata = make(map[string]interface{})
		}
		exec.Metadata[k] = v
	}

	for _, ne := range em.NodeExecutions {
		exec.NodeExecutions = append(exec.NodeExecutions, NodeExecutionModelToDomain(ne))
	}

	return exec
}

// NodeExecutionModelToDomain converts a storage NodeExecutionModel into the
// domain NodeExecution used by the service-API layer. NodeID is carried as
// the storage row's UUID string; callers that need the workflow's logical
// node id (NodeModel.NodeID) remap it against the owning workflow's nodes.
func NodeExecutionModelToDomain(ne *NodeExecutionModel) *models.NodeExecution {
	if ne == nil {
		return nil
	}

	domain := &models.NodeExecution{
		ID:          ne.ID.String(),
		ExecutionID: ne.ExecutionID.String(),
		NodeID:      ne.NodeID.String(),
		Status:      models.ExecNodeStatus(ne.Status),
		Input:       map[string]interface{}(ne.InputData),
		Output:      map[string]interface{}(ne.OutputData),
		Error:       ne.Error,
		RetryCount:  ne.RetryCount,
		Wave:        ne.Wave,
	}
	if ne.StartedAt != nil {
		domain.StartedAt = *ne.StartedAt
	} else {
		domain.StartedAt = ne.CreatedAt
	}
	domain.CompletedAt = ne.CompletedAt
	if dur := ne.Duration(); dur != nil {
		domain.Duration = dur.Milliseconds()
	}
	if ne.Node != nil {
		domain.NodeName = ne.Node.Name
		domain.NodeType = ne.Node.Type
	}

	return domain
}
