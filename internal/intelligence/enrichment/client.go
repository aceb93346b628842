package enrichment

import (
	"context"
	"time"

	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GovMatch-Engine/pkg/errors"
	"github.com/turtacn/GovMatch-Engine/pkg/types/match"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// ClientConfig controls the enrichment client.
type ClientConfig struct {
	// Timeout is the hard per-call deadline imposed on the provider.  The
	// incoming context may be tighter; it is never loosened.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxHybridDelta bounds how far the model may move the overall score in
	// either direction.  Larger suggested adjustments are clamped, not
	// rejected.
	MaxHybridDelta int `mapstructure:"max_hybrid_delta"`
	// MaxTokens caps model output length.
	MaxTokens int `mapstructure:"max_tokens"`
	// Temperature is passed through to the provider.
	Temperature float64 `mapstructure:"temperature"`
}

// DefaultClientConfig returns production defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:        30 * time.Second,
		MaxHybridDelta: 10,
		MaxTokens:      2048,
		Temperature:    0.2,
	}
}

func (c *ClientConfig) normalize() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxHybridDelta <= 0 {
		c.MaxHybridDelta = 10
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 2048
	}
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// Client enriches a calculation score with semantic analysis from an LLM
// provider.  All failure paths degrade rather than error: the caller always
// gets a usable MatchScore back.
type Client struct {
	provider LLMProvider
	cfg      ClientConfig
	log      logging.Logger
}

// NewClient builds an enrichment client.  provider must be non-nil; use the
// service's quota guard to decide whether to call Enrich at all.
func NewClient(provider LLMProvider, cfg ClientConfig, log logging.Logger) *Client {
	cfg.normalize()
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{provider: provider, cfg: cfg, log: log.Named("enrichment")}
}

// Usage reports provider token consumption for one successful enrichment
// call, for metrics and quota accounting.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Enrich runs the provider against the base score and returns an upgraded
// copy plus the provider's token usage.  On success the copy carries Method
// "llm" (or "hybrid" when the model moved the overall score), semantic
// analysis, strategic insights, and cost accounting.  On any provider failure
// the copy carries Method "calculation" and Degraded=true with nil usage;
// Enrich never returns an error for provider faults.
func (c *Client) Enrich(ctx context.Context, p *match.Profile, o *match.Opportunity, base *match.MatchScore) (*match.MatchScore, *Usage) {
	out := *base

	prompt, err := BuildPrompt(p, o, base)
	if err != nil {
		return c.degrade(&out, err), nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	result, err := c.provider.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		MaxTokens:    c.cfg.MaxTokens,
		Temperature:  c.cfg.Temperature,
	})
	if err != nil {
		if ctx.Err() != nil {
			err = errors.Wrap(err, errors.ErrCodeProviderTimeout, "enrichment provider timed out")
		}
		return c.degrade(&out, err), nil
	}

	payload, err := ParseResponse(result.Text)
	if err != nil {
		return c.degrade(&out, err), nil
	}

	out.Method = match.MethodLLM
	out.Semantic = &match.SemanticAnalysis{
		ImplicitRequirements: payload.ImplicitRequirements,
		CompetitiveLandscape: payload.CompetitiveLandscape,
	}
	out.Strategic = &match.StrategicInsights{
		WinProbabilityPct: payload.WinProbabilityPct,
		Rationale:         payload.Rationale,
		Gaps:              payload.CapabilityGaps,
		TeamingPartners:   payload.TeamingPartners,
	}
	out.Recommendations = append(out.Recommendations, payload.Recommendations...)
	out.CostUSD += result.CostUSD

	if delta := c.clampDelta(payload.ScoreAdjustment); delta != 0 {
		out.Method = match.MethodHybrid
		out.HybridDelta = delta
		out.OverallScore = clampOverall(base.OverallScore + delta)
	}

	c.log.Info("score enriched",
		logging.String("profile_id", string(base.ProfileID)),
		logging.String("opportunity_id", string(base.OpportunityID)),
		logging.String("method", string(out.Method)),
		logging.Int("hybrid_delta", out.HybridDelta),
		logging.Int("input_tokens", result.InputTokens),
		logging.Int("output_tokens", result.OutputTokens),
		logging.Float64("cost_usd", result.CostUSD),
		logging.Duration("provider_latency", time.Since(start)),
	)
	return &out, &Usage{InputTokens: result.InputTokens, OutputTokens: result.OutputTokens}
}

// degrade returns the calculation-only score, flagged.  The cause is logged
// at warn level and then dropped; degradation is not an error condition for
// the scoring call.
func (c *Client) degrade(out *match.MatchScore, cause error) *match.MatchScore {
	out.Method = match.MethodCalculation
	out.Degraded = true
	out.Semantic = nil
	out.Strategic = nil
	out.HybridDelta = 0
	c.log.Warn("enrichment degraded to calculation score",
		logging.String("profile_id", string(out.ProfileID)),
		logging.String("opportunity_id", string(out.OpportunityID)),
		logging.String("code", string(errors.GetCode(cause))),
		logging.Err(cause),
	)
	return out
}

func (c *Client) clampDelta(delta int) int {
	if delta > c.cfg.MaxHybridDelta {
		return c.cfg.MaxHybridDelta
	}
	if delta < -c.cfg.MaxHybridDelta {
		return -c.cfg.MaxHybridDelta
	}
	return delta
}

func clampOverall(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
