// Package di provides dependency injection container
package di

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ssargent/msgstore/pkg/api" //nolint:depguard
	"github.com/ssargent/msgstore/pkg/codec"
	"github.com/ssargent/msgstore/pkg/config"
	"github.com/ssargent/msgstore/pkg/idalloc"
	"github.com/ssargent/msgstore/pkg/memory"
	"github.com/ssargent/msgstore/pkg/service"
	"github.com/ssargent/msgstore/pkg/store"
)

// Partition layout of the durable memory region
const (
	CounterPartition memory.PartitionID = 0
	RecordPartition  memory.PartitionID = 1
)

// Stack is an opened message store: durable memory plus the service on top
type Stack struct {
	Memory  *memory.Manager
	Service *service.Service
}

// Close releases the durable memory region
func (s *Stack) Close() error {
	return s.Memory.Close()
}

// StackOpener opens the message store described by a configuration
type StackOpener func(cfg *config.Config, log *slog.Logger) (*Stack, error)

// OpenStack opens the durable memory region and builds the message service
func OpenStack(cfg *config.Config, log *slog.Logger) (*Stack, error) {
	if !cfg.Storage.InMemory {
		if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}

	mem, err := memory.Open(memory.Options{
		Dir:      cfg.DataDir,
		InMemory: cfg.Storage.InMemory,
		NoSync:   cfg.Storage.NoSync,
	})
	if err != nil {
		return nil, err
	}

	ids, err := idalloc.New(mem.Get(CounterPartition))
	if err != nil {
		mem.Close()
		return nil, fmt.Errorf("failed to initialize id allocator: %w", err)
	}
	records := store.NewDurableStore(mem.Get(RecordPartition), codec.NewRecordCodec())

	log.Debug("message store opened",
		"data_dir", cfg.DataDir,
		"in_memory", cfg.Storage.InMemory,
		"last_id", ids.Current())

	return &Stack{
		Memory:  mem,
		Service: service.New(records, ids, service.NewSystemClock(), log),
	}, nil
}

// Container holds all the dependencies for the application
type Container struct {
	log           *slog.Logger
	stackOpener   StackOpener
	serverFactory api.ServerFactory
}

// NewContainer creates a new dependency injection container
func NewContainer(log *slog.Logger) *Container {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Container{
		log:           log,
		stackOpener:   OpenStack,
		serverFactory: api.NewServerFactory(log),
	}
}

// Logger returns the process logger
func (c *Container) Logger() *slog.Logger {
	return c.log
}

// SetLogger replaces the process logger. A default server factory is
// rebuilt so servers log through it; overridden factories are kept.
func (c *Container) SetLogger(log *slog.Logger) {
	c.log = log
	if _, ok := c.serverFactory.(*api.DefaultServerFactory); ok {
		c.serverFactory = api.NewServerFactory(log)
	}
}

// OpenStack opens the message store with the configured opener
func (c *Container) OpenStack(cfg *config.Config) (*Stack, error) {
	return c.stackOpener(cfg, c.log)
}

// SetStackOpener allows overriding how the store is opened (for testing)
func (c *Container) SetStackOpener(opener StackOpener) {
	c.stackOpener = opener
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}
