package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// WorkflowResourceModel attaches a credential/connector resource to a
// workflow under a workflow-local alias (the node-config name a node's
// Credentials map refers to), with read/write/admin access scoping.
type WorkflowResourceModel struct {
	bun.BaseModel `bun:"table:mbflow_workflow_resources,alias:wr"`

	WorkflowID uuid.UUID  `bun:"workflow_id,pk,type:uuid" json:"workflow_id"`
	ResourceID uuid.UUID  `bun:"resource_id,pk,type:uuid" json:"resource_id"`
	Alias      string     `bun:"alias,notnull" json:"alias" validate:"required,max=100"`
	AccessType string     `bun:"access_type,notnull,default:'read'" json:"access_type" validate:"required,oneof=read write admin"`
	AssignedAt time.Time  `bun:"assigned_at,notnull,default:current_timestamp" json:"assigned_at"`
	AssignedBy *uuid.UUID `bun:"assigned_by,type:uuid" json:"assigned_by,omitempty"`

	Workflow *WorkflowModel `bun:"rel:belongs-to,join:workflow_id=id" json:"workflow,omitempty"`
}

// TableName returns the table name for WorkflowResourceModel.
func (WorkflowResourceModel) TableName() string { return "mbflow_workflow_resources" }

// BeforeInsert sets the assignment timestamp and default access type.
func (wr *WorkflowResourceModel) BeforeInsert(ctx interface{}) error {
	wr.AssignedAt = time.Now()
	if wr.AccessType == "" {
		wr.AccessType = "read"
	}
	return nil
}

// IsReadOnly reports whether the attachment grants read-only access.
func (wr *WorkflowResourceModel) IsReadOnly() bool {
	return wr.AccessType == "read"
}

// IsWritable reports whether the attachment grants write or admin access.
func (wr *WorkflowResourceModel) IsWritable() bool {
	return wr.AccessType == "write" || wr.AccessType == "admin"
}

// IsAdmin reports whether the attachment grants admin access.
func (wr *WorkflowResourceModel) IsAdmin() bool {
	return wr.AccessType == "admin"
}
