// API server entry point: loads configuration, wires the engine, and serves
// the scoring API until SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	appscoring "github.com/turtacn/GovMatch-Engine/internal/application/scoring"
	"github.com/turtacn/GovMatch-Engine/internal/config"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/GovMatch-Engine/internal/interfaces/http"
	"github.com/turtacn/GovMatch-Engine/internal/interfaces/http/handlers"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	root := &cobra.Command{
		Use:     "apiserver",
		Short:   "GovMatch scoring API server",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		RunE:    run,
	}
	root.Flags().String("config", "", "path to configuration file (default: environment only)")
	root.Flags().Int("port", 0, "HTTP port (overrides config)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	portOverride, _ := cmd.Flags().GetInt("port")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if portOverride > 0 {
		cfg.Server.Port = portOverride
	}

	log, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	log = log.Named("apiserver")
	log.Info("starting",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port),
		logging.Bool("enrichment", cfg.Scoring.EnrichmentEnabled),
	)

	deps, err := buildDependencies(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	svc := appscoring.NewMatchService(deps.Store, deps.Cache, deps.Enricher,
		deps.Quota, deps.Notifier, deps.Metrics, log, appscoring.Options{
			BatchMaxSize:      cfg.Scoring.BatchMaxSize,
			BatchConcurrency:  cfg.Scoring.BatchConcurrency,
			CacheTTL:          cfg.Scoring.CacheTTL,
			RecentScoresTTL:   cfg.Scoring.RecentScoresTTL,
			EnrichmentEnabled: cfg.Scoring.EnrichmentEnabled,
		})

	router := httpserver.NewRouter(httpserver.RouterConfig{
		MatchHandler:  handlers.NewMatchHandler(svc),
		HealthHandler: handlers.NewHealthHandler(deps.ReadinessChecks...),
		Mode:          cfg.Server.Mode,
		Logger:        log,
		Metrics:       deps.Metrics,
		MetricsServer: deps.Collector,
	})
	srv := httpserver.NewServer(cfg.Server.Port, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", logging.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", logging.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown incomplete", logging.Err(err))
		return err
	}
	log.Info("stopped")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}
