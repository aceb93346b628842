package scoring

import (
	"context"
	"time"

	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GovMatch-Engine/pkg/types/match"
)

// EventNotifier publishes engine events to Kafka.  Publish failures are
// logged and swallowed; scoring and feedback must not depend on the broker
// being up.
type EventNotifier struct {
	producer *kafka.Producer
	source   string
	log      logging.Logger
}

var _ Notifier = (*EventNotifier)(nil)

// NewEventNotifier wraps a producer.  source names the publishing service in
// event envelopes.
func NewEventNotifier(producer *kafka.Producer, source string, log logging.Logger) *EventNotifier {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &EventNotifier{producer: producer, source: source, log: log.Named("notifier")}
}

func (n *EventNotifier) ScoreComputed(ctx context.Context, score *match.MatchScore) {
	env, err := kafka.NewEventEnvelope("score.computed", n.source, kafka.ScoreComputedPayload{
		ScoreID:       score.ID,
		ProfileID:     score.ProfileID,
		OpportunityID: score.OpportunityID,
		OrgID:         score.OrgID,
		OverallScore:  score.OverallScore,
		Method:        score.Method,
		Degraded:      score.Degraded,
		ComputedAt:    time.Now().UTC(),
	})
	if err == nil {
		err = n.producer.Publish(ctx, kafka.TopicScoreComputed, string(score.OrgID), env)
	}
	if err != nil {
		n.log.Warn("score.computed event dropped",
			logging.String("score_id", string(score.ID)),
			logging.Err(err),
		)
	}
}

func (n *EventNotifier) FeedbackRecorded(ctx context.Context, fb *match.Feedback) {
	env, err := kafka.NewEventEnvelope("feedback.recorded", n.source, kafka.FeedbackRecordedPayload{
		FeedbackID: fb.ID,
		ScoreID:    fb.ScoreID,
		OrgID:      fb.OrgID,
		Rating:     fb.Rating,
		Outcome:    fb.Outcome,
		RecordedAt: time.Now().UTC(),
	})
	if err == nil {
		err = n.producer.Publish(ctx, kafka.TopicFeedbackRecorded, string(fb.OrgID), env)
	}
	if err != nil {
		n.log.Warn("feedback.recorded event dropped",
			logging.String("feedback_id", string(fb.ID)),
			logging.Err(err),
		)
	}
}
