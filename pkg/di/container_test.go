package di

import (
	"context"
	"log/slog"
	"testing"

	"github.com/ssargent/msgstore/pkg/config"
	"github.com/ssargent/msgstore/pkg/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStack_Durable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Storage.NoSync = true
	ctx := context.Background()

	container := NewContainer(nil)
	stack, err := container.OpenStack(cfg)
	require.NoError(t, err)

	added, err := stack.Service.AddMessage(ctx, message.Payload{Title: "T"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), added.ID)
	require.NoError(t, stack.Close())

	stack, err = container.OpenStack(cfg)
	require.NoError(t, err)
	defer stack.Close()

	got, err := stack.Service.GetMessage(ctx, 1)
	require.NoError(t, err)
	assert.True(t, added.Equal(got))

	next, err := stack.Service.AddMessage(ctx, message.Payload{})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next.ID)
}

func TestOpenStack_InMemory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = ""
	cfg.Storage.InMemory = true

	stack, err := OpenStack(cfg, NewContainer(nil).Logger())
	require.NoError(t, err)
	defer stack.Close()

	stats, err := stack.Service.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Messages)
	assert.Equal(t, uint64(0), stats.LastID)
}

func TestContainer_Overrides(t *testing.T) {
	container := NewContainer(nil)

	called := false
	container.SetStackOpener(func(cfg *config.Config, _ *slog.Logger) (*Stack, error) {
		called = true
		return nil, assert.AnError
	})

	_, err := container.OpenStack(config.DefaultConfig())
	assert.ErrorIs(t, err, assert.AnError)
	assert.True(t, called)
	assert.NotNil(t, container.GetServerFactory())
}
