package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, DefaultBatchMaxSize, cfg.Scoring.BatchMaxSize)
	assert.Equal(t, DefaultBatchConcurrency, cfg.Scoring.BatchConcurrency)
	assert.Equal(t, time.Hour, cfg.Scoring.CacheTTL)
	assert.Equal(t, DefaultDailyCallLimit, cfg.Quota.DailyCallLimit)
	assert.Equal(t, "govmatch", cfg.Metrics.Namespace)
}

func TestLoad_FileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  mode: debug
scoring:
  batch_max_size: 25
  enrichment_enabled: true
database:
  host: db.internal
  database: govmatch
redis:
  addr: redis.internal:6379
llm:
  api_key: test-key
`), 0o600))

	t.Setenv("GOVMATCH_SERVER_PORT", "9191")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port, "env var beats the file")
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, 25, cfg.Scoring.BatchMaxSize)
	assert.True(t, cfg.Scoring.EnrichmentEnabled)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, DefaultBatchConcurrency, cfg.Scoring.BatchConcurrency, "unset fields still get defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		ApplyDefaults(cfg)
		return cfg
	}

	t.Run("DefaultsAreValid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("BadPort", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = 70000
		assert.Error(t, cfg.Validate())
	})

	t.Run("BadMode", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Mode = "production"
		assert.Error(t, cfg.Validate())
	})

	t.Run("ZeroBatchSize", func(t *testing.T) {
		cfg := valid()
		cfg.Scoring.BatchMaxSize = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("EnrichmentWithoutAPIKey", func(t *testing.T) {
		cfg := valid()
		cfg.Scoring.EnrichmentEnabled = true
		assert.Error(t, cfg.Validate())

		cfg.LLM.APIKey = "test-key"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("KafkaEnabledWithoutBrokers", func(t *testing.T) {
		cfg := valid()
		cfg.Kafka.Enabled = true
		assert.Error(t, cfg.Validate())
	})
}
