package prometheus

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{})
	assert.Error(t, err)
}

func TestRegisterIsIdempotent(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "govmatch"})
	require.NoError(t, err)

	first := c.RegisterCounter("scores_computed_total", "help", "method", "degraded")
	second := c.RegisterCounter("scores_computed_total", "help", "method", "degraded")
	assert.Same(t, first, second, "double registration returns the existing vec")
}

func TestEngineMetrics_Exposed(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "govmatch"})
	require.NoError(t, err)
	m := NewEngineMetrics(c)

	m.ScoresComputedTotal.WithLabelValues("calculation", "false").Inc()
	m.CacheHitsTotal.WithLabelValues().Add(3)
	m.LLMTokensTotal.WithLabelValues("input").Add(1200)
	m.ScoreDuration.WithLabelValues("calculation").Observe(0.012)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `govmatch_scores_computed_total{degraded="false",method="calculation"} 1`)
	assert.Contains(t, body, "govmatch_cache_hits_total 3")
	assert.Contains(t, body, `govmatch_llm_tokens_total{direction="input"} 1200`)
}
