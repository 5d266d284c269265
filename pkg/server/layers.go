package server

import (
	"github.com/uptrace/bun"

	"github.com/smilemakc/mbflow/go/internal/application/engine"
	"github.com/smilemakc/mbflow/go/internal/application/observer"
	"github.com/smilemakc/mbflow/go/internal/application/trigger"
	"github.com/smilemakc/mbflow/go/internal/domain/repository"
	"github.com/smilemakc/mbflow/go/internal/infrastructure/cache"
	"github.com/smilemakc/mbflow/go/internal/infrastructure/storage"
	"github.com/smilemakc/mbflow/go/pkg/executor"
)

// DataLayer holds the database connection, cache, and repositories.
type DataLayer struct {
	DB         *bun.DB
	RedisCache *cache.RedisCache

	WorkflowRepo  *storage.WorkflowRepository
	ExecutionRepo *storage.ExecutionRepository
	EventRepo     *storage.EventRepository
	TriggerRepo   repository.TriggerRepository
}

// ExecutionLayer holds workflow execution components (C4/C5).
type ExecutionLayer struct {
	ExecutorManager  *executor.Manager
	ExecutionManager *engine.ExecutionManager
	ObserverManager  *observer.ObserverManager
	WSHub            *observer.WebSocketHub
}

// TriggerLayer holds trigger management components (C6).
type TriggerLayer struct {
	TriggerManager *trigger.Manager
}
