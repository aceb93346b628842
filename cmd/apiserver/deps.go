package main

import (
	"context"

	appscoring "github.com/turtacn/GovMatch-Engine/internal/application/scoring"
	"github.com/turtacn/GovMatch-Engine/internal/config"
	domain "github.com/turtacn/GovMatch-Engine/internal/domain/scoring"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/cache"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/database/postgres"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/store/memory"
	"github.com/turtacn/GovMatch-Engine/internal/intelligence/enrichment"
	"github.com/turtacn/GovMatch-Engine/internal/interfaces/http/handlers"
)

// dependencies holds everything the service layer needs, plus the shutdown
// hooks acquired while building it.
type dependencies struct {
	Store    domain.RecordStore
	Cache    cache.Cache
	Enricher *enrichment.Client
	Quota    appscoring.QuotaGuard
	Notifier appscoring.Notifier

	Metrics   *prometheus.EngineMetrics
	Collector prometheus.MetricsCollector

	ReadinessChecks []handlers.ReadinessCheck

	closers []func()
}

// Close releases resources in reverse acquisition order.
func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// buildDependencies wires the infrastructure described by cfg.  Postgres and
// redis are optional: when unconfigured the engine falls back to in-process
// storage and caching, which keeps local development dependency-free.
func buildDependencies(ctx context.Context, cfg *config.Config, log logging.Logger) (*dependencies, error) {
	deps := &dependencies{}

	collector, err := prometheus.NewMetricsCollector(cfg.Metrics)
	if err != nil {
		return nil, err
	}
	deps.Collector = collector
	deps.Metrics = prometheus.NewEngineMetrics(collector)

	if cfg.Database.Host != "" {
		if err := postgres.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationsPath); err != nil {
			return nil, err
		}
		pool, err := postgres.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, pool.Close)
		deps.Store = postgres.NewStore(pool, log)
		deps.ReadinessChecks = append(deps.ReadinessChecks, handlers.ReadinessCheck{
			Name:  "postgres",
			Check: pool.Ping,
		})
	} else {
		log.Warn("database.host not set, using in-memory store")
		deps.Store = memory.NewStore()
	}

	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, func() { _ = client.Close() })
		deps.Cache = cache.NewRedisCache(client, cfg.Redis, log)
		deps.ReadinessChecks = append(deps.ReadinessChecks, handlers.ReadinessCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	} else {
		log.Warn("redis.addr not set, using in-memory cache")
		deps.Cache = cache.NewMemoryCache(cfg.Scoring.CacheTTL, log)
	}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka.Producer, log)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, func() { _ = producer.Close() })
		deps.Notifier = appscoring.NewEventNotifier(producer, "apiserver", log)
	}

	if cfg.Scoring.EnrichmentEnabled {
		provider, err := enrichment.NewOpenAIProvider(cfg.LLM, log)
		if err != nil {
			return nil, err
		}
		deps.Enricher = enrichment.NewClient(provider, cfg.Enrichment, log)
	}

	deps.Quota = appscoring.NewDailyQuotaGuard(cfg.Quota.DailyCallLimit, cfg.Quota.DailyBudgetUSD)
	return deps, nil
}
