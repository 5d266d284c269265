package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smilemakc/mbflow/go/internal/application/observer"
	"github.com/smilemakc/mbflow/go/internal/application/serviceapi"
	"github.com/smilemakc/mbflow/go/internal/infrastructure/api/rest"
	"github.com/smilemakc/mbflow/go/internal/infrastructure/storage"
)

func (s *Server) setupRoutes() error {
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery())

	if s.config.Server.CORS {
		s.setupCORS()
	}

	s.setupHealthEndpoints()
	s.setupWebSocketEndpoints()
	s.setupAPIv1Routes()

	s.logger.Info("REST API routes registered")
	return nil
}

func (s *Server) setupCORS() {
	allowedOrigins := s.config.Server.CORSAllowedOrigins
	allowAll := len(allowedOrigins) == 0 && s.config.Logging.Level == "debug"

	if !allowAll && len(allowedOrigins) == 0 {
		s.logger.Warn("CORS enabled but no allowed origins configured (MBFLOW_CORS_ALLOWED_ORIGINS). Set origins or use debug log level for wildcard.")
	}

	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = struct{}{}
	}

	s.router.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if allowAll {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			if _, ok := originSet[origin]; ok {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				c.Writer.Header().Set("Vary", "Origin")
			}
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})
}

func (s *Server) setupHealthEndpoints() {
	s.router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := storage.Ping(ctx, s.data.DB); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  fmt.Sprintf("database: %s", err.Error()),
			})
			return
		}

		if s.data.RedisCache != nil {
			if err := s.data.RedisCache.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"error":  fmt.Sprintf("redis: %s", err.Error()),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
}

func (s *Server) setupWebSocketEndpoints() {
	if s.config.Observer.EnableWebSocket && s.execution.WSHub != nil {
		wsHandler := observer.NewWebSocketHandler(s.execution.WSHub, s.logger)
		s.router.GET("/ws/executions", func(c *gin.Context) {
			wsHandler.ServeHTTP(c.Writer, c.Request)
		})
		s.router.GET("/ws/health", func(c *gin.Context) {
			wsHandler.HandleHealthCheck(c.Writer, c.Request)
		})
		s.logger.Info("WebSocket endpoints registered", "endpoints", []string{"/ws/executions", "/ws/health"})
	}
}

func (s *Server) setupAPIv1Routes() {
	apiV1 := s.router.Group("/api/v1")
	{
		s.setupWorkflowRoutes(apiV1)
		s.setupExecutionRoutes(apiV1)
		s.setupWebhookRoutes(apiV1)
	}
}

func (s *Server) operations() *serviceapi.Operations {
	return &serviceapi.Operations{
		WorkflowRepo:    s.data.WorkflowRepo,
		ExecutionRepo:   s.data.ExecutionRepo,
		TriggerRepo:     s.data.TriggerRepo,
		ExecutionMgr:    s.execution.ExecutionManager,
		ExecutorManager: s.execution.ExecutorManager,
		Logger:          s.logger,
	}
}

func (s *Server) setupWorkflowRoutes(apiV1 *gin.RouterGroup) {
	ops := s.operations()
	workflowHandlers := rest.NewWorkflowHandlers(ops, s.logger)
	executionHandlers := rest.NewExecutionHandlers(ops, s.logger)

	workflows := apiV1.Group("/workflows")
	{
		workflows.POST("", workflowHandlers.HandleCreateWorkflow)
		workflows.GET("", workflowHandlers.HandleListWorkflows)
		workflows.GET("/:workflow_id", workflowHandlers.HandleGetWorkflow)
		workflows.PUT("/:workflow_id", workflowHandlers.HandleUpdateWorkflow)
		workflows.DELETE("/:workflow_id", workflowHandlers.HandleDeleteWorkflow)
		workflows.POST("/:workflow_id/execute", executionHandlers.HandleRunExecution)
		workflows.POST("/:workflow_id/publish", workflowHandlers.HandlePublishWorkflow)
		workflows.POST("/:workflow_id/unpublish", workflowHandlers.HandleUnpublishWorkflow)
		workflows.GET("/:workflow_id/diagram", workflowHandlers.HandleGetWorkflowDiagram)

		workflows.POST("/:workflow_id/resources", workflowHandlers.AttachWorkflowResource)
		workflows.GET("/:workflow_id/resources", workflowHandlers.GetWorkflowResources)
		workflows.PUT("/:workflow_id/resources/:resource_id", workflowHandlers.UpdateWorkflowResourceAlias)
		workflows.DELETE("/:workflow_id/resources/:resource_id", workflowHandlers.DetachWorkflowResource)
	}
}

func (s *Server) setupExecutionRoutes(apiV1 *gin.RouterGroup) {
	ops := s.operations()
	executionHandlers := rest.NewExecutionHandlers(ops, s.logger)

	executions := apiV1.Group("/executions")
	{
		executions.POST("/run/:workflow_id", executionHandlers.HandleRunExecution)
		executions.GET("", executionHandlers.HandleListExecutions)
		executions.GET("/:id", executionHandlers.HandleGetExecution)
		executions.GET("/:id/logs", executionHandlers.HandleGetLogs)
		executions.GET("/:id/nodes/:node_id/result", executionHandlers.HandleGetNodeResult)
		executions.POST("/:id/cancel", executionHandlers.HandleCancelExecution)
		executions.POST("/:id/retry", executionHandlers.HandleRetryExecution)
		executions.GET("/:id/watch", executionHandlers.HandleWatchExecution)
		executions.GET("/:id/stream", executionHandlers.HandleStreamLogs)
	}
}

func (s *Server) setupWebhookRoutes(apiV1 *gin.RouterGroup) {
	if s.triggers.TriggerManager == nil {
		return
	}

	telegramWebhookHandlers := rest.NewTelegramWebhookHandlers(s.triggers.TriggerManager.WebhookRegistry(), s.logger)
	apiV1.POST("/webhooks/telegram/:trigger_id", telegramWebhookHandlers.HandleTelegramWebhook)

	s.logger.Info("Webhook endpoints registered", "endpoints", []string{"/api/v1/webhooks/telegram/:trigger_id"})
}
