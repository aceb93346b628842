package scoring

import (
	"context"
	"time"

	"github.com/turtacn/GovMatch-Engine/pkg/types/match"
)

// The engine consumes the record store through these ports and never
// implements persistence policy itself.  Implementations are expected to
// provide read-after-write consistency for score lookups.

// ProfileRepository reads capability-profile snapshots.
type ProfileRepository interface {
	GetProfile(ctx context.Context, id match.ID) (*match.Profile, error)
}

// OpportunityRepository reads contract-opportunity snapshots.
type OpportunityRepository interface {
	GetOpportunity(ctx context.Context, id match.ID) (*match.Opportunity, error)
}

// ScoreRepository persists and retrieves computed match scores.  Scores are
// logically versioned: SaveScore always appends, and historical scores stay
// queryable by creation time.
type ScoreRepository interface {
	SaveScore(ctx context.Context, score *match.MatchScore) error
	GetScore(ctx context.Context, id match.ID) (*match.MatchScore, error)
	RecentScores(ctx context.Context, orgID match.OrgID, since time.Time) ([]*match.MatchScore, error)
}

// FeedbackRepository appends user feedback records.  Feedback never mutates
// the referenced score's algorithmic fields.
type FeedbackRepository interface {
	SaveFeedback(ctx context.Context, fb *match.Feedback) error
	FeedbackForScore(ctx context.Context, scoreID match.ID) ([]*match.Feedback, error)
}

// RecordStore aggregates all record-store ports; concrete stores implement
// the whole interface so wiring stays a single constructor argument.
type RecordStore interface {
	ProfileRepository
	OpportunityRepository
	ScoreRepository
	FeedbackRepository
}
