package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/smilemakc/mbflow/go/internal/infrastructure/storage/models"
)

// WorkflowFilters narrows a workflow listing query.
type WorkflowFilters struct {
	Status         *string
	CreatedBy      *uuid.UUID
	IncludeUnowned bool // also include workflows with created_by IS NULL
}

// WorkflowRepository persists workflow definitions and their graph (nodes,
// edges, triggers, attached resources).
type WorkflowRepository interface {
	Create(ctx context.Context, workflow *models.WorkflowModel) error
	Update(ctx context.Context, workflow *models.WorkflowModel) error
	Delete(ctx context.Context, id uuid.UUID) error
	HardDelete(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*models.WorkflowModel, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*models.WorkflowModel, error)
	FindByName(ctx context.Context, name string, version int) (*models.WorkflowModel, error)
	FindAll(ctx context.Context, limit, offset int) ([]*models.WorkflowModel, error)
	FindByStatus(ctx context.Context, status string, limit, offset int) ([]*models.WorkflowModel, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status string) (int, error)
	FindAllWithFilters(ctx context.Context, filters WorkflowFilters, limit, offset int) ([]*models.WorkflowModel, error)
	CountWithFilters(ctx context.Context, filters WorkflowFilters) (int, error)

	CreateNode(ctx context.Context, node *models.NodeModel) error
	UpdateNode(ctx context.Context, node *models.NodeModel) error
	DeleteNode(ctx context.Context, id uuid.UUID) error
	FindNodeByID(ctx context.Context, id uuid.UUID) (*models.NodeModel, error)
	FindNodesByWorkflowID(ctx context.Context, workflowID uuid.UUID) ([]*models.NodeModel, error)

	CreateEdge(ctx context.Context, edge *models.EdgeModel) error
	UpdateEdge(ctx context.Context, edge *models.EdgeModel) error
	DeleteEdge(ctx context.Context, id uuid.UUID) error
	FindEdgeByID(ctx context.Context, id uuid.UUID) (*models.EdgeModel, error)
	FindEdgesByWorkflowID(ctx context.Context, workflowID uuid.UUID) ([]*models.EdgeModel, error)

	// ValidateDAG reports whether the workflow's edges form a cycle.
	ValidateDAG(ctx context.Context, workflowID uuid.UUID) error

	AssignResource(ctx context.Context, workflowID uuid.UUID, resource *models.WorkflowResourceModel, assignedBy *uuid.UUID) error
	UnassignResource(ctx context.Context, workflowID, resourceID uuid.UUID) error
	UnassignResourceFromAllWorkflows(ctx context.Context, resourceID uuid.UUID) (int64, error)
	GetWorkflowResources(ctx context.Context, workflowID uuid.UUID) ([]*models.WorkflowResourceModel, error)
	UpdateResourceAlias(ctx context.Context, workflowID, resourceID uuid.UUID, newAlias string) error
	ResourceExists(ctx context.Context, workflowID, resourceID uuid.UUID) (bool, error)
	GetResourceByAlias(ctx context.Context, workflowID uuid.UUID, alias string) (*models.WorkflowResourceModel, error)
}
