package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Histogram bucket presets.
var (
	scoreDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
	llmDurationBuckets   = []float64{.5, 1, 2, 5, 10, 20, 30, 45, 60}
	batchSizeBuckets     = []float64{1, 2, 5, 10, 20, 30, 40, 50}
	httpDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
)

// EngineMetrics holds every metric the match engine records.
type EngineMetrics struct {
	// Scoring
	ScoresComputedTotal *prometheus.CounterVec   // method, degraded
	ScoreDuration       *prometheus.HistogramVec // method
	BatchesTotal        *prometheus.CounterVec   // outcome
	BatchSize           *prometheus.HistogramVec
	BatchDuration       *prometheus.HistogramVec
	BatchFailuresTotal  *prometheus.CounterVec // code

	// Cache
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheInvalidated *prometheus.CounterVec // reason

	// LLM
	LLMRequestsTotal *prometheus.CounterVec // outcome
	LLMDuration      *prometheus.HistogramVec
	LLMTokensTotal   *prometheus.CounterVec // direction
	LLMCostUSDTotal  *prometheus.CounterVec
	QuotaDeniedTotal *prometheus.CounterVec

	// Feedback
	FeedbackTotal *prometheus.CounterVec // has_rating, outcome

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec // method, path, status
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewEngineMetrics registers all engine metrics on the collector.
func NewEngineMetrics(c MetricsCollector) *EngineMetrics {
	return &EngineMetrics{
		ScoresComputedTotal: c.RegisterCounter("scores_computed_total", "Match scores computed", "method", "degraded"),
		ScoreDuration:       c.RegisterHistogram("score_duration_seconds", "Single score computation duration", scoreDurationBuckets, "method"),
		BatchesTotal:        c.RegisterCounter("batches_total", "Batch scoring requests", "outcome"),
		BatchSize:           c.RegisterHistogram("batch_size", "Opportunities per batch request", batchSizeBuckets),
		BatchDuration:       c.RegisterHistogram("batch_duration_seconds", "Batch scoring duration", llmDurationBuckets),
		BatchFailuresTotal:  c.RegisterCounter("batch_item_failures_total", "Failed items inside batches", "code"),

		CacheHitsTotal:   c.RegisterCounter("cache_hits_total", "Score cache hits"),
		CacheMissesTotal: c.RegisterCounter("cache_misses_total", "Score cache misses"),
		CacheInvalidated: c.RegisterCounter("cache_invalidations_total", "Score cache invalidations", "reason"),

		LLMRequestsTotal: c.RegisterCounter("llm_requests_total", "LLM enrichment calls", "outcome"),
		LLMDuration:      c.RegisterHistogram("llm_request_duration_seconds", "LLM call duration", llmDurationBuckets),
		LLMTokensTotal:   c.RegisterCounter("llm_tokens_total", "LLM tokens consumed", "direction"),
		LLMCostUSDTotal:  c.RegisterCounter("llm_cost_usd_total", "LLM spend in USD"),
		QuotaDeniedTotal: c.RegisterCounter("llm_quota_denied_total", "Enrichment requests denied by quota"),

		FeedbackTotal: c.RegisterCounter("feedback_total", "Feedback records appended", "has_rating", "outcome"),

		HTTPRequestsTotal:   c.RegisterCounter("http_requests_total", "HTTP requests", "method", "path", "status"),
		HTTPRequestDuration: c.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", httpDurationBuckets, "method", "path"),
	}
}
