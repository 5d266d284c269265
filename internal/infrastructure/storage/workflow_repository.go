package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/smilemakc/mbflow/go/internal/domain/repository"
	"github.com/smilemakc/mbflow/go/internal/infrastructure/storage/models"
	"github.com/uptrace/bun"
)

var _ repository.WorkflowRepository = (*WorkflowRepository)(nil)

// WorkflowRepository implements repository.WorkflowRepository over bun/pgx.
// Update performs a smart merge of a workflow's nodes and edges: a node or
// edge matched by its logical ID keeps its UUID and is updated in place; one
// no longer present in the incoming graph is deleted; anything new is
// inserted.
type WorkflowRepository struct {
	db bun.IDB
}

// NewWorkflowRepository returns a WorkflowRepository backed by db.
func NewWorkflowRepository(db bun.IDB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// inTx runs fn in a transaction when db is a *bun.DB, or directly against db
// when it is already a bun.Tx (so repository methods compose inside a
// caller's own transaction without nesting one).
func inTx(ctx context.Context, db bun.IDB, fn func(ctx context.Context, tx bun.Tx) error) error {
	switch conn := db.(type) {
	case *bun.DB:
		return conn.RunInTx(ctx, nil, fn)
	case bun.Tx:
		return fn(ctx, conn)
	default:
		return fmt.Errorf("unsupported bun.IDB implementation %T", db)
	}
}

// Create inserts a workflow together with its nodes and edges in one transaction.
func (r *WorkflowRepository) Create(ctx context.Context, workflow *models.WorkflowModel) error {
	return inTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(workflow).Exec(ctx); err != nil {
			return fmt.Errorf("failed to create workflow: %w", err)
		}

		if len(workflow.Nodes) > 0 {
			for _, node := range workflow.Nodes {
				node.WorkflowID = workflow.ID
				if node.ID == uuid.Nil {
					node.ID = uuid.New()
				}
			}
			if _, err := tx.NewInsert().Model(&workflow.Nodes).Exec(ctx); err != nil {
				return fmt.Errorf("failed to create nodes: %w", err)
			}
		}

		if len(workflow.Edges) > 0 {
			for _, edge := range workflow.Edges {
				edge.WorkflowID = workflow.ID
				if edge.ID == uuid.Nil {
					edge.ID = uuid.New()
				}
			}
			if _, err := tx.NewInsert().Model(&workflow.Edges).Exec(ctx); err != nil {
				return fmt.Errorf("failed to create edges: %w", err)
			}
		}

		return nil
	})
}

// Update updates workflow metadata and smart-merges its nodes and edges.
func (r *WorkflowRepository) Update(ctx context.Context, workflow *models.WorkflowModel) error {
	return inTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		workflow.UpdatedAt = time.Now()
		_, err := tx.NewUpdate().
			Model(workflow).
			Column("name", "description", "version", "status", "variables", "metadata", "updated_at").
			Where("id = ?", workflow.ID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update workflow: %w", err)
		}

		if err := r.syncNodes(ctx, tx, workflow.ID, workflow.Nodes); err != nil {
			return fmt.Errorf("failed to sync nodes: %w", err)
		}

		if err := r.syncEdges(ctx, tx, workflow.ID, workflow.Edges); err != nil {
			return fmt.Errorf("failed to sync edges: %w", err)
		}

		return nil
	})
}

func (r *WorkflowRepository) syncNodes(ctx context.Context, tx bun.Tx, workflowID uuid.UUID, nodes []*models.NodeModel) error {
	var existingNodes []*models.NodeModel
	err := tx.NewSelect().Model(&existingNodes).Where("workflow_id = ?", workflowID).Scan(ctx)
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	existingMap := make(map[string]*models.NodeModel)
	for _, node := range existingNodes {
		existingMap[node.NodeID] = node
	}

	incomingMap := make(map[string]*models.NodeModel)
	for _, node := range nodes {
		incomingMap[node.NodeID] = node
	}

	for _, incomingNode := range nodes {
		if existing, exists := existingMap[incomingNode.NodeID]; exists {
			incomingNode.ID = existing.ID
			incomingNode.CreatedAt = existing.CreatedAt
			incomingNode.WorkflowID = workflowID

			_, err := tx.NewUpdate().
				Model(incomingNode).
				Column("name", "type", "config", "position", "updated_at").
				Where("id = ?", existing.ID).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to update node %s: %w", incomingNode.NodeID, err)
			}
		} else {
			incomingNode.ID = uuid.New()
			incomingNode.WorkflowID = workflowID

			if _, err := tx.NewInsert().Model(incomingNode).Exec(ctx); err != nil {
				return fmt.Errorf("failed to create node %s: %w", incomingNode.NodeID, err)
			}
		}
	}

	for nodeID, existing := range existingMap {
		if _, stillExists := incomingMap[nodeID]; !stillExists {
			if _, err := tx.NewDelete().Model((*models.NodeModel)(nil)).Where("id = ?", existing.ID).Exec(ctx); err != nil {
				return fmt.Errorf("failed to delete node %s: %w", nodeID, err)
			}
		}
	}

	return nil
}

func (r *WorkflowRepository) syncEdges(ctx context.Context, tx bun.Tx, workflowID uuid.UUID, edges []*models.EdgeModel) error {
	var existingEdges []*models.EdgeModel
	err := tx.NewSelect().Model(&existingEdges).Where("workflow_id = ?", workflowID).Scan(ctx)
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	existingMap := make(map[string]*models.EdgeModel)
	for _, edge := range existingEdges {
		existingMap[edge.EdgeID] = edge
	}

	incomingMap := make(map[string]*models.EdgeModel)
	for _, edge := range edges {
		incomingMap[edge.EdgeID] = edge
	}

	for _, incomingEdge := range edges {
		if existing, exists := existingMap[incomingEdge.EdgeID]; exists {
			incomingEdge.ID = existing.ID
			incomingEdge.CreatedAt = existing.CreatedAt
			incomingEdge.WorkflowID = workflowID

			_, err := tx.NewUpdate().
				Model(incomingEdge).
				Column("from_node_id", "to_node_id", "source_handle", "condition", "loop", "updated_at").
				Where("id = ?", existing.ID).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to update edge %s: %w", incomingEdge.EdgeID, err)
			}
		} else {
			incomingEdge.ID = uuid.New()
			incomingEdge.WorkflowID = workflowID

			if _, err := tx.NewInsert().Model(incomingEdge).Exec(ctx); err != nil {
				return fmt.Errorf("failed to create edge %s: %w", incomingEdge.EdgeID, err)
			}
		}
	}

	for edgeID, existing := range existingMap {
		if _, stillExists := incomingMap[edgeID]; !stillExists {
			if _, err := tx.NewDelete().Model((*models.EdgeModel)(nil)).Where("id = ?", existing.ID).Exec(ctx); err != nil {
				return fmt.Errorf("failed to delete edge %s: %w", edgeID, err)
			}
		}
	}

	return nil
}

// Delete soft-deletes a workflow by stamping deleted_at.
func (r *WorkflowRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*models.WorkflowModel)(nil)).
		Set("deleted_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// HardDelete permanently removes a workflow and (via FK cascade) its graph.
func (r *WorkflowRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().Model((*models.WorkflowModel)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// FindByID retrieves a workflow by ID, without its graph relations.
func (r *WorkflowRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.WorkflowModel, error) {
	workflow := &models.WorkflowModel{}
	if err := r.db.NewSelect().Model(workflow).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return workflow, nil
}

// FindByIDWithRelations retrieves a workflow with its nodes, edges, triggers and resources loaded.
func (r *WorkflowRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*models.WorkflowModel, error) {
	workflow := &models.WorkflowModel{}
	err := r.db.NewSelect().
		Model(workflow).
		Relation("Nodes").
		Relation("Edges").
		Relation("Triggers").
		Relation("Resources").
		Where("w.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return workflow, nil
}

// FindByName retrieves a workflow by its name and version.
func (r *WorkflowRepository) FindByName(ctx context.Context, name string, version int) (*models.WorkflowModel, error) {
	workflow := &models.WorkflowModel{}
	err := r.db.NewSelect().Model(workflow).Where("name = ? AND version = ?", name, version).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return workflow, nil
}

// FindAll retrieves a page of workflows ordered by most recently created.
func (r *WorkflowRepository) FindAll(ctx context.Context, limit, offset int) ([]*models.WorkflowModel, error) {
	var workflows []*models.WorkflowModel
	err := r.db.NewSelect().Model(&workflows).Limit(limit).Offset(offset).Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return workflows, nil
}

// FindByStatus retrieves a page of workflows with the given status.
func (r *WorkflowRepository) FindByStatus(ctx context.Context, status string, limit, offset int) ([]*models.WorkflowModel, error) {
	var workflows []*models.WorkflowModel
	err := r.db.NewSelect().
		Model(&workflows).
		Where("status = ?", status).
		Limit(limit).
		Offset(offset).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return workflows, nil
}

// Count returns the total number of workflows.
func (r *WorkflowRepository) Count(ctx context.Context) (int, error) {
	return r.db.NewSelect().Model((*models.WorkflowModel)(nil)).Count(ctx)
}

// CountByStatus returns the number of workflows with the given status.
func (r *WorkflowRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	return r.db.NewSelect().Model((*models.WorkflowModel)(nil)).Where("status = ?", status).Count(ctx)
}

func applyWorkflowFilters(q *bun.SelectQuery, filters repository.WorkflowFilters) *bun.SelectQuery {
	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	switch {
	case filters.CreatedBy != nil && filters.IncludeUnowned:
		q = q.Where("created_by = ? OR created_by IS NULL", *filters.CreatedBy)
	case filters.CreatedBy != nil:
		q = q.Where("created_by = ?", *filters.CreatedBy)
	}
	return q
}

// FindAllWithFilters retrieves a filtered, paginated workflow listing.
func (r *WorkflowRepository) FindAllWithFilters(ctx context.Context, filters repository.WorkflowFilters, limit, offset int) ([]*models.WorkflowModel, error) {
	var workflows []*models.WorkflowModel
	q := r.db.NewSelect().Model(&workflows)
	q = applyWorkflowFilters(q, filters)
	err := q.Limit(limit).Offset(offset).Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return workflows, nil
}

// CountWithFilters returns the number of workflows matching filters.
func (r *WorkflowRepository) CountWithFilters(ctx context.Context, filters repository.WorkflowFilters) (int, error) {
	q := r.db.NewSelect().Model((*models.WorkflowModel)(nil))
	q = applyWorkflowFilters(q, filters)
	return q.Count(ctx)
}

// CreateNode inserts a single node outside the Create/Update merge path.
func (r *WorkflowRepository) CreateNode(ctx context.Context, node *models.NodeModel) error {
	if node.ID == uuid.Nil {
		node.ID = uuid.New()
	}
	_, err := r.db.NewInsert().Model(node).Exec(ctx)
	return err
}

// UpdateNode updates a node looked up by its logical (workflow_id, node_id) pair.
func (r *WorkflowRepository) UpdateNode(ctx context.Context, node *models.NodeModel) error {
	_, err := r.db.NewUpdate().
		Model(node).
		Column("name", "type", "config", "position", "updated_at").
		Where("workflow_id = ? AND node_id = ?", node.WorkflowID, node.NodeID).
		Exec(ctx)
	return err
}

// DeleteNode deletes a node by its storage UUID.
func (r *WorkflowRepository) DeleteNode(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().Model((*models.NodeModel)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// FindNodeByID retrieves a node by its storage UUID.
func (r *WorkflowRepository) FindNodeByID(ctx context.Context, id uuid.UUID) (*models.NodeModel, error) {
	node := &models.NodeModel{}
	if err := r.db.NewSelect().Model(node).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return node, nil
}

// FindNodesByWorkflowID retrieves every node belonging to a workflow.
func (r *WorkflowRepository) FindNodesByWorkflowID(ctx context.Context, workflowID uuid.UUID) ([]*models.NodeModel, error) {
	var nodes []*models.NodeModel
	if err := r.db.NewSelect().Model(&nodes).Where("workflow_id = ?", workflowID).Scan(ctx); err != nil {
		return nil, err
	}
	return nodes, nil
}

// CreateEdge inserts a single edge outside the Create/Update merge path.
func (r *WorkflowRepository) CreateEdge(ctx context.Context, edge *models.EdgeModel) error {
	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}
	_, err := r.db.NewInsert().Model(edge).Exec(ctx)
	return err
}

// UpdateEdge updates an edge looked up by its logical (workflow_id, edge_id) pair.
func (r *WorkflowRepository) UpdateEdge(ctx context.Context, edge *models.EdgeModel) error {
	_, err := r.db.NewUpdate().
		Model(edge).
		Column("from_node_id", "to_node_id", "source_handle", "condition", "loop", "updated_at").
		Where("workflow_id = ? AND edge_id = ?", edge.WorkflowID, edge.EdgeID).
		Exec(ctx)
	return err
}

// DeleteEdge deletes an edge by its storage UUID.
func (r *WorkflowRepository) DeleteEdge(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().Model((*models.EdgeModel)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// FindEdgeByID retrieves an edge by its storage UUID.
func (r *WorkflowRepository) FindEdgeByID(ctx context.Context, id uuid.UUID) (*models.EdgeModel, error) {
	edge := &models.EdgeModel{}
	if err := r.db.NewSelect().Model(edge).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return edge, nil
}

// FindEdgesByWorkflowID retrieves every edge belonging to a workflow.
func (r *WorkflowRepository) FindEdgesByWorkflowID(ctx context.Context, workflowID uuid.UUID) ([]*models.EdgeModel, error) {
	var edges []*models.EdgeModel
	if err := r.db.NewSelect().Model(&edges).Where("workflow_id = ?", workflowID).Scan(ctx); err != nil {
		return nil, err
	}
	return edges, nil
}

// ValidateDAG reports a cycle error if the workflow's edges are not acyclic.
func (r *WorkflowRepository) ValidateDAG(ctx context.Context, workflowID uuid.UUID) error {
	edges, err := r.FindEdgesByWorkflowID(ctx, workflowID)
	if err != nil {
		return err
	}

	graph := make(map[string][]string)
	for _, edge := range edges {
		if edge.IsLoop() {
			continue // bounded back-edges are intentional, not a validation cycle
		}
		graph[edge.FromNodeID] = append(graph[edge.FromNodeID], edge.ToNodeID)
	}

	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	var hasCycle func(string) bool
	hasCycle = func(nodeID string) bool {
		visited[nodeID] = true
		recStack[nodeID] = true

		for _, neighbor := range graph[nodeID] {
			if !visited[neighbor] {
				if hasCycle(neighbor) {
					return true
				}
			} else if recStack[neighbor] {
				return true
			}
		}

		recStack[nodeID] = false
		return false
	}

	for nodeID := range graph {
		if !visited[nodeID] {
			if hasCycle(nodeID) {
				return fmt.Errorf("cycle detected in workflow DAG")
			}
		}
	}

	return nil
}

// AssignResource attaches a credential/connector resource to a workflow under alias.
func (r *WorkflowRepository) AssignResource(ctx context.Context, workflowID uuid.UUID, resource *models.WorkflowResourceModel, assignedBy *uuid.UUID) error {
	resource.WorkflowID = workflowID
	resource.AssignedBy = assignedBy
	_, err := r.db.NewInsert().Model(resource).Exec(ctx)
	return err
}

// UnassignResource detaches a resource from a workflow.
func (r *WorkflowRepository) UnassignResource(ctx context.Context, workflowID, resourceID uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*models.WorkflowResourceModel)(nil)).
		Where("workflow_id = ? AND resource_id = ?", workflowID, resourceID).
		Exec(ctx)
	return err
}

// UnassignResourceFromAllWorkflows detaches a resource wherever it is attached.
func (r *WorkflowRepository) UnassignResourceFromAllWorkflows(ctx context.Context, resourceID uuid.UUID) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*models.WorkflowResourceModel)(nil)).
		Where("resource_id = ?", resourceID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetWorkflowResources lists every resource attached to a workflow.
func (r *WorkflowRepository) GetWorkflowResources(ctx context.Context, workflowID uuid.UUID) ([]*models.WorkflowResourceModel, error) {
	var resources []*models.WorkflowResourceModel
	err := r.db.NewSelect().Model(&resources).Where("workflow_id = ?", workflowID).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return resources, nil
}

// UpdateResourceAlias renames a workflow's local alias for an attached resource.
func (r *WorkflowRepository) UpdateResourceAlias(ctx context.Context, workflowID, resourceID uuid.UUID, newAlias string) error {
	_, err := r.db.NewUpdate().
		Model((*models.WorkflowResourceModel)(nil)).
		Set("alias = ?", newAlias).
		Where("workflow_id = ? AND resource_id = ?", workflowID, resourceID).
		Exec(ctx)
	return err
}

// ResourceExists reports whether a resource is attached to a workflow.
func (r *WorkflowRepository) ResourceExists(ctx context.Context, workflowID, resourceID uuid.UUID) (bool, error) {
	return r.db.NewSelect().
		Model((*models.WorkflowResourceModel)(nil)).
		Where("workflow_id = ? AND resource_id = ?", workflowID, resourceID).
		Exists(ctx)
}

// GetResourceByAlias looks up an attached resource by its workflow-local alias.
func (r *WorkflowRepository) GetResourceByAlias(ctx context.Context, workflowID uuid.UUID, alias string) (*models.WorkflowResourceModel, error) {
	resource := &models.WorkflowResourceModel{}
	err := r.db.NewSelect().
		Model(resource).
		Where("workflow_id = ? AND alias = ?", workflowID, alias).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return resource, nil
}
