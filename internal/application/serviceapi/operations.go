package serviceapi

import (
	"github.com/smilemakc/mbflow/go/internal/application/engine"
	"github.com/smilemakc/mbflow/go/internal/application/systemkey"
	"github.com/smilemakc/mbflow/go/internal/domain/repository"
	"github.com/smilemakc/mbflow/go/internal/infrastructure/logger"
	"github.com/smilemakc/mbflow/go/pkg/crypto"
)

// ExecutorRegistry reports whether a node type has a registered executor.
// Satisfied by *pkg/executor.Manager; defined here (consumer-side) so this
// package doesn't need to import pkg/executor just for a type check, and so
// tests can swap in a stub that only knows a handful of node types.
type ExecutorRegistry interface {
	Has(nodeType string) bool
}

// Operations provides transport-agnostic business logic for the Service API.
// Both REST and gRPC handlers delegate to these operations.
type Operations struct {
	WorkflowRepo    repository.WorkflowRepository
	ExecutionRepo   repository.ExecutionRepository
	TriggerRepo     repository.TriggerRepository
	CredentialsRepo repository.CredentialsRepository
	ExecutionMgr    *engine.ExecutionManager
	ExecutorManager ExecutorRegistry
	EncryptionSvc   *crypto.EncryptionService
	AuditService    *systemkey.AuditService
	Logger          *logger.Logger
}
