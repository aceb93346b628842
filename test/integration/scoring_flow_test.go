// Package integration exercises the full scoring flow over HTTP with
// in-process storage, caching, and a stubbed LLM provider.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appscoring "github.com/turtacn/GovMatch-Engine/internal/application/scoring"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/cache"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/store/memory"
	"github.com/turtacn/GovMatch-Engine/internal/intelligence/enrichment"
	httpserver "github.com/turtacn/GovMatch-Engine/internal/interfaces/http"
	"github.com/turtacn/GovMatch-Engine/internal/interfaces/http/handlers"
	"github.com/turtacn/GovMatch-Engine/internal/interfaces/http/middleware"
	"github.com/turtacn/GovMatch-Engine/pkg/types/match"
)

const testOrg = "org-int"

type fixedProvider struct {
	text string
}

func (p *fixedProvider) Complete(_ context.Context, _ enrichment.CompletionRequest) (*enrichment.CompletionResult, error) {
	return &enrichment.CompletionResult{
		Text:         p.text,
		InputTokens:  900,
		OutputTokens: 300,
		CostUSD:      0.012,
		Model:        "stub",
	}, nil
}

func enrichmentJSON() string {
	return `{
		"implicit_requirements": ["facility clearance"],
		"competitive_landscape": "crowded field of incumbents",
		"win_probability_pct": 45,
		"rationale": "strong technical overlap, thin agency history",
		"capability_gaps": ["no prior DoD contracts"],
		"teaming_partners": ["incumbent subcontractor"],
		"score_adjustment": 5,
		"recommendations": ["pursue as subcontractor first"]
	}`
}

func newStack(t *testing.T, quotaCalls int) (*memory.Store, http.Handler) {
	t.Helper()

	store := memory.NewStore()
	store.PutProfile(&match.Profile{
		ID:             "prof-int",
		OrgID:          testOrg,
		PrimaryNAICS:   "541512",
		State:          "MD",
		Certifications: []string{"8(a)"},
		PastProjects: []match.PastProject{
			{Title: "GSA cloud migration", ValueUSD: 2_500_000},
			{Title: "DHS data platform", ValueUSD: 1_200_000},
		},
	})
	for i := 1; i <= 6; i++ {
		store.PutOpportunity(&match.Opportunity{
			ID:         match.ID(fmt.Sprintf("opp-int-%d", i)),
			NAICSCodes: []string{"541512"},
			State:      "MD",
			SetAside:   "8(a)",
		})
	}

	enricher := enrichment.NewClient(&fixedProvider{text: enrichmentJSON()},
		enrichment.ClientConfig{Timeout: time.Second, MaxHybridDelta: 10}, logging.NewNopLogger())
	quota := appscoring.NewDailyQuotaGuard(quotaCalls, 0)

	svc := appscoring.NewMatchService(store, cache.NewMemoryCache(time.Minute, nil), enricher,
		quota, nil, nil, logging.NewNopLogger(), appscoring.Options{EnrichmentEnabled: true})

	router := httpserver.NewRouter(httpserver.RouterConfig{
		MatchHandler:  handlers.NewMatchHandler(svc),
		HealthHandler: handlers.NewHealthHandler(),
		Mode:          "test",
	})
	return store, router
}

func do(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.OrgHeader, testOrg)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestScoringFlow_EnrichedScoreToFeedback(t *testing.T) {
	_, router := newStack(t, 0)

	// Enriched score: the stub suggests +5, so the result is hybrid.
	rec := do(t, router, "POST", "/api/v1/matches/score", map[string]interface{}{
		"profile_id": "prof-int", "opportunity_id": "opp-int-1", "enrich": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var score match.MatchScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.Equal(t, match.MethodHybrid, score.Method)
	assert.Equal(t, 5, score.HybridDelta)
	assert.False(t, score.Degraded)
	require.NotNil(t, score.Strategic)
	assert.Equal(t, 45, score.Strategic.WinProbabilityPct)
	assert.InDelta(t, 0.012, score.CostUSD, 1e-9)

	// Same request again is served from cache: identical score ID.
	rec = do(t, router, "POST", "/api/v1/matches/score", map[string]interface{}{
		"profile_id": "prof-int", "opportunity_id": "opp-int-1", "enrich": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var cached match.MatchScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cached))
	assert.Equal(t, score.ID, cached.ID)

	// Feedback on the score invalidates the org's cache.
	rec = do(t, router, "POST", "/api/v1/scores/"+string(score.ID)+"/feedback", map[string]interface{}{
		"rating": 4, "comment": "good shortlist candidate", "outcome": "won",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, "POST", "/api/v1/matches/score", map[string]interface{}{
		"profile_id": "prof-int", "opportunity_id": "opp-int-1", "enrich": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var recomputed match.MatchScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recomputed))
	assert.NotEqual(t, score.ID, recomputed.ID)

	// The recent listing reflects both persisted scores.
	rec = do(t, router, "GET", "/api/v1/scores/recent?window=1h", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var recent struct {
		Scores []match.MatchScore `json:"scores"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recent))
	assert.Len(t, recent.Scores, 2)
}

func TestScoringFlow_BatchWithEnrichment(t *testing.T) {
	_, router := newStack(t, 0)

	rec := do(t, router, "POST", "/api/v1/matches/batch", map[string]interface{}{
		"profile_id":      "prof-int",
		"opportunity_ids": []string{"opp-int-1", "opp-int-2", "opp-int-3", "opp-int-4", "opp-int-5", "opp-int-6"},
		"enrich":          true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Scores map[string]match.MatchScore `json:"scores"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Scores, 6)
	for id, s := range resp.Scores {
		assert.Equal(t, match.MethodHybrid, s.Method, id)
		assert.False(t, s.Degraded, id)
	}
}

func TestScoringFlow_QuotaExhaustionDegrades(t *testing.T) {
	// Daily limit of one call: the first enrichment runs, the second degrades.
	_, router := newStack(t, 1)

	rec := do(t, router, "POST", "/api/v1/matches/score", map[string]interface{}{
		"profile_id": "prof-int", "opportunity_id": "opp-int-1", "enrich": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var first match.MatchScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.False(t, first.Degraded)

	rec = do(t, router, "POST", "/api/v1/matches/score", map[string]interface{}{
		"profile_id": "prof-int", "opportunity_id": "opp-int-2", "enrich": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var second match.MatchScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.True(t, second.Degraded)
	assert.Equal(t, match.MethodCalculation, second.Method)
}
