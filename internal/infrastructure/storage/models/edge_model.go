package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// EdgeModel represents a directed connection between two nodes in the
// database. SourceHandle distinguishes a conditional node's branches
// ("true"/"false"); Loop, when set, marks the edge as a bounded back-edge
// with a max_iterations bound.
type EdgeModel struct {
	bun.BaseModel `bun:"table:mbflow_edges,alias:e"`

	ID           uuid.UUID `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"-"`
	EdgeID       string    `bun:"edge_id,notnull" json:"id" validate:"required,max=100"`
	WorkflowID   uuid.UUID `bun:"workflow_id,notnull,type:uuid" json:"workflow_id" validate:"required"`
	FromNodeID   string    `bun:"from_node_id,notnull" json:"from" validate:"required,max=100"`
	ToNodeID     string    `bun:"to_node_id,notnull" json:"to" validate:"required,max=100"`
	SourceHandle string    `bun:"source_handle" json:"source_handle,omitempty"`
	Condition    JSONBMap  `bun:"condition,type:jsonb" json:"condition,omitempty"`
	Loop         JSONBMap  `bun:"loop,type:jsonb" json:"loop,omitempty"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	Workflow   *WorkflowModel `bun:"rel:belongs-to,join:workflow_id=id" json:"workflow,omitempty"`
	SourceNode *NodeModel     `bun:"rel:belongs-to,join:from_node_id=node_id" json:"source_node,omitempty"`
	TargetNode *NodeModel     `bun:"rel:belongs-to,join:to_node_id=node_id" json:"target_node,omitempty"`
}

// TableName returns the table name for EdgeModel.
func (EdgeModel) TableName() string { return "mbflow_edges" }

// BeforeInsert sets timestamps and rejects self-loops.
func (e *EdgeModel) BeforeInsert(ctx any) error {
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.FromNodeID == e.ToNodeID {
		return ErrSelfReferenceEdge
	}
	return nil
}

// BeforeUpdate refreshes the updated_at timestamp and rejects self-loops.
func (e *EdgeModel) BeforeUpdate(ctx any) error {
	e.UpdatedAt = time.Now()
	if e.FromNodeID == e.ToNodeID {
		return ErrSelfReferenceEdge
	}
	return nil
}

// IsConditional reports whether the edge carries a branch condition.
func (e *EdgeModel) IsConditional() bool {
	return len(e.Condition) > 0
}

// IsLoop reports whether the edge is a bounded back-edge.
func (e *EdgeModel) IsLoop() bool {
	return len(e.Loop) > 0
}

// MaxIterations returns the loop's configured bound, or 0 if this isn't a
// loop edge.
func (e *EdgeModel) MaxIterations() int {
	if e.Loop == nil {
		return 0
	}
	return e.Loop.GetInt("max_iterations")
}
