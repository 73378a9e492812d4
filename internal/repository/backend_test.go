package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RIGishan/text-toolkit/internal/config"
)

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Storage.Driver = config.DriverMemory
		b, err := OpenBackend(ctx, cfg, nopLogger{})
		require.NoError(t, err)
		defer b.Close()
		assert.False(t, b.Durable())
		require.NoError(t, b.Set(ctx, "k", "v"))
		v, ok, err := b.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v", v)
	})

	t.Run("file", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Storage.Driver = config.DriverFile
		cfg.Storage.Path = filepath.Join(t.TempDir(), "kv.json")
		b, err := OpenBackend(ctx, cfg, nopLogger{})
		require.NoError(t, err)
		assert.True(t, b.Durable())
		assert.Equal(t, config.DriverFile, b.Driver())
		cancel := b.Watch(func(string) {})
		cancel()
		require.NoError(t, b.Close())
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Storage.Driver = "redis"
		_, err := OpenBackend(ctx, cfg, nopLogger{})
		assert.Error(t, err)
	})
}

func TestBackend_ListenWithoutPostgresWaitsForCancel(t *testing.T) {
	b := &Backend{KVStore: NewMemoryKVStore(), driver: config.DriverMemory}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, b.Listen(ctx))
}
