// Package config defines the engine's configuration tree and its loading
// rules.  Structures only — infrastructure packages own their own sub-config
// types and this package composes them.
package config

import (
	"time"

	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/cache"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/database/postgres"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/GovMatch-Engine/internal/intelligence/enrichment"
	"github.com/turtacn/GovMatch-Engine/pkg/errors"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ScoringConfig holds match-engine behavior settings.
type ScoringConfig struct {
	// BatchMaxSize caps opportunities per batch request.
	BatchMaxSize int `mapstructure:"batch_max_size"`
	// BatchConcurrency bounds parallel scoring inside one batch.
	BatchConcurrency int `mapstructure:"batch_concurrency"`
	// CacheTTL is the default lifetime of a cached score.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// RecentScoresTTL is the lifetime of the recent-scores listing cache.
	RecentScoresTTL time.Duration `mapstructure:"recent_scores_ttl"`
	// EnrichmentEnabled gates LLM enrichment globally.
	EnrichmentEnabled bool `mapstructure:"enrichment_enabled"`
}

// QuotaConfig bounds daily LLM spend per organization.
type QuotaConfig struct {
	DailyCallLimit int     `mapstructure:"daily_call_limit"`
	DailyBudgetUSD float64 `mapstructure:"daily_budget_usd"`
}

// KafkaConfig groups producer and consumer settings.
type KafkaConfig struct {
	Enabled  bool                 `mapstructure:"enabled"`
	Producer kafka.ProducerConfig `mapstructure:"producer"`
	Consumer kafka.ConsumerConfig `mapstructure:"consumer"`
}

// Config is the root configuration tree.
type Config struct {
	Server     ServerConfig               `mapstructure:"server"`
	Scoring    ScoringConfig              `mapstructure:"scoring"`
	Quota      QuotaConfig                `mapstructure:"quota"`
	Database   postgres.Config            `mapstructure:"database"`
	Redis      cache.RedisConfig          `mapstructure:"redis"`
	Kafka      KafkaConfig                `mapstructure:"kafka"`
	Enrichment enrichment.ClientConfig    `mapstructure:"enrichment"`
	LLM        enrichment.OpenAIConfig    `mapstructure:"llm"`
	Logging    logging.LogConfig          `mapstructure:"logging"`
	Metrics    prometheus.CollectorConfig `mapstructure:"metrics"`
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Validation("server.port must be in (0, 65535]")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return errors.Validation("server.mode must be debug, release, or test")
	}
	if c.Scoring.BatchMaxSize <= 0 {
		return errors.Validation("scoring.batch_max_size must be positive")
	}
	if c.Scoring.BatchConcurrency <= 0 {
		return errors.Validation("scoring.batch_concurrency must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Producer.Brokers) == 0 {
		return errors.Validation("kafka.producer.brokers required when kafka is enabled")
	}
	if c.Scoring.EnrichmentEnabled && c.LLM.APIKey == "" {
		return errors.Validation("llm.api_key required when enrichment is enabled")
	}
	return nil
}
