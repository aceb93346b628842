// Package http wires the gin route tree and HTTP server for the match API.
package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/GovMatch-Engine/internal/interfaces/http/handlers"
	"github.com/turtacn/GovMatch-Engine/internal/interfaces/http/middleware"
)

// RouterConfig aggregates handler and middleware dependencies.
type RouterConfig struct {
	MatchHandler  *handlers.MatchHandler
	HealthHandler *handlers.HealthHandler

	Mode          string // gin mode: "debug" | "release" | "test"
	Logger        logging.Logger
	Metrics       *prometheus.EngineMetrics
	MetricsServer prometheus.MetricsCollector
}

// NewRouter builds the route tree: public health and metrics endpoints plus
// the org-scoped v1 API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.RequestMetrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsServer != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsServer.Handler()))
	}

	api := r.Group("/api/v1", middleware.RequireOrg())
	{
		api.POST("/matches/score", cfg.MatchHandler.Score)
		api.POST("/matches/batch", cfg.MatchHandler.Batch)
		api.GET("/scores/recent", cfg.MatchHandler.RecentScores)
		api.GET("/scores/:id", cfg.MatchHandler.GetScore)
		api.POST("/scores/:id/feedback", cfg.MatchHandler.Feedback)
	}
	return r
}

// NewServer wraps the router in an http.Server ready for ListenAndServe.
func NewServer(port int, readTimeout, writeTimeout time.Duration, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}
