package models

import "time"

// ResourceType identifies the kind of owned resource a tenant can hold.
type ResourceType string

const (
	ResourceTypeFileStorage ResourceType = "file_storage"
	ResourceTypeCredentials ResourceType = "credentials"
	ResourceTypeRentalKey   ResourceType = "rental_key"
)

// ResourceStatus is the lifecycle state of a resource.
type ResourceStatus string

const (
	ResourceStatusActive    ResourceStatus = "active"
	ResourceStatusSuspended ResourceStatus = "suspended"
	ResourceStatusDeleted   ResourceStatus = "deleted"
)

// Resource is the common interface every owned resource type implements.
type Resource interface {
	GetID() string
	GetType() ResourceType
	GetOwnerID() string
	GetName() string
	GetDescription() string
	GetStatus() ResourceStatus
	GetMetadata() map[string]any
	Validate() error
}

// BaseResource carries the fields common to every resource type.
type BaseResource struct {
	ID          string         `json:"id"`
	Type        ResourceType   `json:"type"`
	OwnerID     string         `json:"owner_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      ResourceStatus `json:"status"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (r *BaseResource) GetID() string                  { return r.ID }
func (r *BaseResource) GetType() ResourceType           { return r.Type }
func (r *BaseResource) GetOwnerID() string              { return r.OwnerID }
func (r *BaseResource) GetName() string                 { return r.Name }
func (r *BaseResource) GetDescription() string          { return r.Description }
func (r *BaseResource) GetStatus() ResourceStatus       { return r.Status }
func (r *BaseResource) GetMetadata() map[string]any     { return r.Metadata }

// Validate validates the fields common to every resource.
func (r *BaseResource) Validate() error {
	if r.Name == "" {
		return &ValidationError{Field: "name", Message: "resource name is required"}
	}
	if r.OwnerID == "" {
		return &ValidationError{Field: "owner_id", Message: "owner ID is required"}
	}
	return nil
}

// IsActive reports whether the resource's status is active.
func (r *BaseResource) IsActive() bool {
	return r.Status == ResourceStatusActive
}
