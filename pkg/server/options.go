package server

import (
	"github.com/smilemakc/mbflow/go/internal/config"
	"github.com/smilemakc/mbflow/go/internal/infrastructure/logger"
	"github.com/smilemakc/mbflow/go/pkg/executor"
)

// Option configures a Server during New.
type Option func(*Server) error

// WithConfig sets the server configuration, bypassing config.Load.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) error {
		s.config = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) error {
		s.logger = l
		return nil
	}
}

// WithExecutorManager sets a custom executor manager, bypassing the default
// builtin registration in initExecutorManager.
func WithExecutorManager(m *executor.Manager) Option {
	return func(s *Server) error {
		s.execution.ExecutorManager = m
		return nil
	}
}
