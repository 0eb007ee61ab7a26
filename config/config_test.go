package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marcelsud/go-live/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("environment only", func(t *testing.T) {
		t.Setenv("GO_LIVE_SECRET", "s3cret")
		t.Setenv("GO_LIVE_MATCH_TOKENS", " Vercel , prod ,,")
		t.Setenv("REDIS_DB", "2")

		cfg, err := config.Load(t.TempDir())

		require.NoError(t, err)
		assert.Equal(t, "s3cret", cfg.GoLiveSecret)
		assert.Equal(t, []string{"Vercel", "prod"}, cfg.GetMatchTokens())
		assert.Equal(t, 2, cfg.RedisDB)
		assert.Equal(t, "8080", cfg.GetPort())
		assert.Equal(t, 15*time.Second, cfg.GetTimeout())
		assert.Equal(t, config.DriverRedis, cfg.GetStoreDriver())
	})

	t.Run("file with environment override", func(t *testing.T) {
		dir := t.TempDir()
		content := "PORT = \"9000\"\nGO_LIVE_TIMEOUT_SECONDS = 5\nSTORE_DRIVER = \"postgres\"\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))
		t.Setenv("PORT", "9100")

		cfg, err := config.Load(dir)

		require.NoError(t, err)
		assert.Equal(t, "9100", cfg.GetPort())
		assert.Equal(t, 5*time.Second, cfg.GetTimeout())
		assert.Equal(t, config.DriverPostgres, cfg.GetStoreDriver())
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "mongo")

		_, err := config.Load(t.TempDir())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown STORE_DRIVER")
	})
}

func TestConfig_Defaults(t *testing.T) {
	cfg := &config.Config{}

	assert.Nil(t, cfg.GetMatchTokens())
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
	maxOpen, maxIdle, life := cfg.GetPostgresPool()
	assert.Equal(t, []int{25, 5, 5}, []int{maxOpen, maxIdle, life})

	cfg.PostgresMaxOpenConns = 50
	maxOpen, _, _ = cfg.GetPostgresPool()
	assert.Equal(t, 50, maxOpen)
}
