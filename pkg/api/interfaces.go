// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/ssargent/msgstore/pkg/memory"
	"github.com/ssargent/msgstore/pkg/service"
)

// StorageStats reports usage of the durable memory region
type StorageStats interface {
	Stats() memory.Stats
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer runs the API server until ctx is cancelled
	StartServer(ctx context.Context, svc service.MessageService, storage StorageStats, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
