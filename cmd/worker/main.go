// Worker entry point: consumes scoring requests from kafka and computes them
// through the same service layer the API uses, so cached and persisted
// results are identical regardless of which path produced them.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

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
	"github.com/turtacn/GovMatch-Engine/pkg/errors"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	root := &cobra.Command{
		Use:     "worker",
		Short:   "GovMatch scoring worker",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		RunE:    run,
	}
	root.Flags().String("config", "", "path to configuration file (default: environment only)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath == "" {
		cfg, err = config.LoadFromEnv()
	} else {
		cfg, err = config.Load(configPath)
	}
	if err != nil {
		return err
	}
	if !cfg.Kafka.Enabled {
		return errors.Validation("worker requires kafka.enabled=true")
	}

	log, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	log = log.Named("worker")
	log.Info("starting", logging.String("version", version))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, err := prometheus.NewMetricsCollector(cfg.Metrics)
	if err != nil {
		return err
	}
	metrics := prometheus.NewEngineMetrics(collector)

	svc, closeEngine, err := buildEngine(ctx, cfg, metrics, log)
	if err != nil {
		return err
	}
	defer closeEngine()

	wrk := &worker{svc: svc, log: log}

	scoreConsumer, err := newTopicConsumer(cfg.Kafka.Consumer, kafka.TopicScoreRequested, log)
	if err != nil {
		return err
	}
	defer scoreConsumer.Close()
	batchConsumer, err := newTopicConsumer(cfg.Kafka.Consumer, kafka.TopicBatchRequested, log)
	if err != nil {
		return err
	}
	defer batchConsumer.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"ok"}`)
	})
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return scoreConsumer.Run(ctx, wrk.handleScoreRequested) })
	g.Go(func() error { return batchConsumer.Run(ctx, wrk.handleBatchRequested) })
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if err == context.Canceled {
		err = nil
	}
	log.Info("stopped", logging.Err(err))
	return err
}

// buildEngine wires storage, caching, enrichment, and eventing into a match
// service.  Postgres and redis fall back to in-process implementations when
// unconfigured.
func buildEngine(ctx context.Context, cfg *config.Config, metrics *prometheus.EngineMetrics, log logging.Logger) (appscoring.Service, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var store domain.RecordStore
	if cfg.Database.Host != "" {
		if err := postgres.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationsPath); err != nil {
			return nil, nil, err
		}
		pool, err := postgres.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		store = postgres.NewStore(pool, log)
	} else {
		log.Warn("database.host not set, using in-memory store")
		store = memory.NewStore()
	}

	var scoreCache cache.Cache
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		scoreCache = cache.NewRedisCache(client, cfg.Redis, log)
	} else {
		log.Warn("redis.addr not set, using in-memory cache")
		scoreCache = cache.NewMemoryCache(cfg.Scoring.CacheTTL, log)
	}

	producer, err := kafka.NewProducer(cfg.Kafka.Producer, log)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	closers = append(closers, func() { _ = producer.Close() })
	notifier := appscoring.NewEventNotifier(producer, "worker", log)

	var enricher *enrichment.Client
	if cfg.Scoring.EnrichmentEnabled {
		provider, err := enrichment.NewOpenAIProvider(cfg.LLM, log)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		enricher = enrichment.NewClient(provider, cfg.Enrichment, log)
	}

	quota := appscoring.NewDailyQuotaGuard(cfg.Quota.DailyCallLimit, cfg.Quota.DailyBudgetUSD)

	svc := appscoring.NewMatchService(store, scoreCache, enricher, quota, notifier, metrics, log,
		appscoring.Options{
			BatchMaxSize:      cfg.Scoring.BatchMaxSize,
			BatchConcurrency:  cfg.Scoring.BatchConcurrency,
			CacheTTL:          cfg.Scoring.CacheTTL,
			RecentScoresTTL:   cfg.Scoring.RecentScoresTTL,
			EnrichmentEnabled: cfg.Scoring.EnrichmentEnabled,
		})
	return svc, closeAll, nil
}

func newTopicConsumer(base kafka.ConsumerConfig, topic string, log logging.Logger) (*kafka.Consumer, error) {
	cfg := base
	cfg.Topic = topic
	if cfg.GroupID == "" {
		cfg.GroupID = "govmatch-worker"
	}
	return kafka.NewConsumer(cfg, log)
}

// worker routes decoded events to the service layer.
type worker struct {
	svc appscoring.Service
	log logging.Logger
}

// handleScoreRequested computes one pair.  Requests that can never succeed
// (validation failures, unknown profile or opportunity) are logged and
// dropped; transient failures are returned so the consumer retries the
// message in place.
func (w *worker) handleScoreRequested(ctx context.Context, envelope *kafka.EventEnvelope) error {
	var payload kafka.ScoreRequestedPayload
	if err := envelope.DecodePayload(&payload); err != nil {
		w.log.Warn("dropping undecodable score request",
			logging.String("event_id", envelope.EventID), logging.Err(err))
		return nil
	}

	score, err := w.svc.ScoreOpportunity(ctx, &appscoring.ScoreInput{
		ProfileID:     payload.ProfileID,
		OpportunityID: payload.OpportunityID,
		OrgID:         payload.OrgID,
		Enrich:        payload.EnrichWithLLM,
	})
	if err != nil {
		if errors.IsClientError(errors.GetCode(err)) {
			w.log.Warn("dropping unprocessable score request",
				logging.String("event_id", envelope.EventID),
				logging.String("code", string(errors.GetCode(err))),
				logging.Err(err))
			return nil
		}
		return err
	}

	w.log.Info("score request processed",
		logging.String("event_id", envelope.EventID),
		logging.String("score_id", string(score.ID)),
		logging.Int("overall_score", score.OverallScore),
		logging.Duration("lag", time.Since(payload.RequestedAt)),
	)
	return nil
}

// handleBatchRequested computes one batch.  Per-item failures are already
// isolated by the service; only a whole-batch failure triggers a retry.
func (w *worker) handleBatchRequested(ctx context.Context, envelope *kafka.EventEnvelope) error {
	var payload kafka.BatchRequestedPayload
	if err := envelope.DecodePayload(&payload); err != nil {
		w.log.Warn("dropping undecodable batch request",
			logging.String("event_id", envelope.EventID), logging.Err(err))
		return nil
	}

	result, err := w.svc.ScoreBatch(ctx, &appscoring.BatchInput{
		ProfileID:      payload.ProfileID,
		OpportunityIDs: payload.OpportunityIDs,
		OrgID:          payload.OrgID,
		Enrich:         payload.EnrichWithLLM,
	})
	if err != nil {
		if errors.IsClientError(errors.GetCode(err)) {
			w.log.Warn("dropping unprocessable batch request",
				logging.String("event_id", envelope.EventID),
				logging.String("code", string(errors.GetCode(err))),
				logging.Err(err))
			return nil
		}
		return err
	}

	w.log.Info("batch request processed",
		logging.String("event_id", envelope.EventID),
		logging.Int("scored", len(result.Scores)),
		logging.Int("failed", len(result.Failures)),
		logging.Duration("elapsed", result.Elapsed),
	)
	return nil
}
