package enrichment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GovMatch-Engine/pkg/types/match"
)

type stubProvider struct {
	result *CompletionResult
	err    error
	delay  time.Duration
	calls  int
}

func (s *stubProvider) Complete(ctx context.Context, _ CompletionRequest) (*CompletionResult, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.result, s.err
}

func baseScore() *match.MatchScore {
	return &match.MatchScore{
		ProfileID:     "prof-1",
		OpportunityID: "opp-1",
		OrgID:         "org-1",
		OverallScore:  72,
		Confidence:    80,
		Method:        match.MethodCalculation,
	}
}

func validPayload(adjustment int) string {
	return fmt.Sprintf(`{
		"implicit_requirements": ["staff with active clearances"],
		"competitive_landscape": "two incumbent primes",
		"win_probability_pct": 55,
		"rationale": "strong technical fit, weak incumbency",
		"capability_gaps": ["no prior work at this agency"],
		"teaming_partners": ["incumbent subcontractor"],
		"score_adjustment": %d,
		"recommendations": ["request a capability briefing"]
	}`, adjustment)
}

func TestEnrich_Success(t *testing.T) {
	provider := &stubProvider{result: &CompletionResult{
		Text:         validPayload(0),
		InputTokens:  900,
		OutputTokens: 210,
		CostUSD:      0.004,
	}}
	client := NewClient(provider, DefaultClientConfig(), logging.NewNopLogger())

	out, usage := client.Enrich(context.Background(), &match.Profile{}, &match.Opportunity{}, baseScore())

	require.NotNil(t, usage)
	assert.Equal(t, 900, usage.InputTokens)
	assert.Equal(t, 210, usage.OutputTokens)
	assert.Equal(t, match.MethodLLM, out.Method)
	assert.False(t, out.Degraded)
	assert.Equal(t, 72, out.OverallScore, "zero adjustment keeps the base score")
	require.NotNil(t, out.Semantic)
	assert.Equal(t, []string{"staff with active clearances"}, out.Semantic.ImplicitRequirements)
	require.NotNil(t, out.Strategic)
	assert.Equal(t, 55, out.Strategic.WinProbabilityPct)
	assert.Contains(t, out.Recommendations, "request a capability briefing")
	assert.InDelta(t, 0.004, out.CostUSD, 1e-9)
}

func TestEnrich_HybridDeltaClamped(t *testing.T) {
	tests := []struct {
		name        string
		adjustment  int
		wantDelta   int
		wantOverall int
	}{
		{"WithinBound", 6, 6, 78},
		{"PositiveClamped", 25, 10, 82},
		{"NegativeClamped", -40, -10, 62},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubProvider{result: &CompletionResult{Text: validPayload(tt.adjustment)}}
			client := NewClient(provider, DefaultClientConfig(), logging.NewNopLogger())

			out, _ := client.Enrich(context.Background(), &match.Profile{}, &match.Opportunity{}, baseScore())

			assert.Equal(t, match.MethodHybrid, out.Method)
			assert.Equal(t, tt.wantDelta, out.HybridDelta)
			assert.Equal(t, tt.wantOverall, out.OverallScore)
		})
	}
}

func TestEnrich_HybridStaysBounded(t *testing.T) {
	provider := &stubProvider{result: &CompletionResult{Text: validPayload(10)}}
	client := NewClient(provider, DefaultClientConfig(), logging.NewNopLogger())

	base := baseScore()
	base.OverallScore = 97
	out, _ := client.Enrich(context.Background(), &match.Profile{}, &match.Opportunity{}, base)
	assert.Equal(t, 100, out.OverallScore)
}

func TestEnrich_ProviderErrorDegrades(t *testing.T) {
	provider := &stubProvider{err: fmt.Errorf("backend unavailable")}
	client := NewClient(provider, DefaultClientConfig(), logging.NewNopLogger())

	base := baseScore()
	out, usage := client.Enrich(context.Background(), &match.Profile{}, &match.Opportunity{}, base)

	assert.Nil(t, usage, "no token usage on degradation")
	assert.True(t, out.Degraded)
	assert.Equal(t, match.MethodCalculation, out.Method)
	assert.Equal(t, base.OverallScore, out.OverallScore, "base score survives degradation")
	assert.Nil(t, out.Semantic)
	assert.Nil(t, out.Strategic)
}

func TestEnrich_TimeoutDegrades(t *testing.T) {
	provider := &stubProvider{
		delay:  200 * time.Millisecond,
		result: &CompletionResult{Text: validPayload(0)},
	}
	cfg := DefaultClientConfig()
	cfg.Timeout = 20 * time.Millisecond
	client := NewClient(provider, cfg, logging.NewNopLogger())

	start := time.Now()
	out, _ := client.Enrich(context.Background(), &match.Profile{}, &match.Opportunity{}, baseScore())

	assert.True(t, out.Degraded)
	assert.Equal(t, match.MethodCalculation, out.Method)
	assert.Less(t, time.Since(start), 150*time.Millisecond, "timeout is enforced, not the provider delay")
}

func TestEnrich_UnparseableResponseDegrades(t *testing.T) {
	provider := &stubProvider{result: &CompletionResult{Text: "I cannot produce JSON today."}}
	client := NewClient(provider, DefaultClientConfig(), logging.NewNopLogger())

	out, _ := client.Enrich(context.Background(), &match.Profile{}, &match.Opportunity{}, baseScore())
	assert.True(t, out.Degraded)
}

func TestEnrich_DoesNotMutateBase(t *testing.T) {
	provider := &stubProvider{result: &CompletionResult{Text: validPayload(8)}}
	client := NewClient(provider, DefaultClientConfig(), logging.NewNopLogger())

	base := baseScore()
	_, _ = client.Enrich(context.Background(), &match.Profile{}, &match.Opportunity{}, base)

	assert.Equal(t, 72, base.OverallScore)
	assert.Equal(t, match.MethodCalculation, base.Method)
	assert.Nil(t, base.Semantic)
}
