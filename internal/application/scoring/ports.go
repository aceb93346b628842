// Package scoring is the application service for the match engine: it
// orchestrates the deterministic scorer, LLM enrichment, the score cache,
// and the record store behind one transactional-looking API.
package scoring

import (
	"context"

	"github.com/turtacn/GovMatch-Engine/pkg/types/match"
)

// QuotaGuard decides whether an organization may spend LLM budget right now.
// A denial is not an error: the caller degrades to the calculation score.
type QuotaGuard interface {
	// Allow reports whether one enrichment call is within quota.  The reason
	// is informational, for logs and metrics.
	Allow(ctx context.Context, orgID match.OrgID) (ok bool, reason string)
	// Record charges one completed call against the quota.
	Record(ctx context.Context, orgID match.OrgID, costUSD float64)
}

// Notifier publishes engine events.  All methods are best-effort: failures
// are logged by implementations and never surface to the caller.
type Notifier interface {
	ScoreComputed(ctx context.Context, score *match.MatchScore)
	FeedbackRecorded(ctx context.Context, fb *match.Feedback)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) ScoreComputed(context.Context, *match.MatchScore) {}
func (NopNotifier) FeedbackRecorded(context.Context, *match.Feedback) {}
