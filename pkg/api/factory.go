// Package api provides factory implementations for dependency injection
package api

import (
	"context"
	"log/slog"

	"github.com/ssargent/msgstore/pkg/service"
)

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct {
	log *slog.Logger
}

// NewServerFactory creates a new server factory
func NewServerFactory(log *slog.Logger) ServerFactory {
	return &DefaultServerFactory{log: log}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{log: f.log}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct {
	log *slog.Logger
}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(
	ctx context.Context,
	svc service.MessageService,
	storage StorageStats,
	config ServerConfig,
) error {
	server := NewServer(svc, config, NewMetrics(), s.log)
	server.WithStorage(storage)
	return server.Run(ctx)
}
