// Package kafka carries the engine's event traffic: batch scoring requests
// dispatched to workers, score-computed notifications, and the feedback
// audit trail.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/GovMatch-Engine/pkg/errors"
	"github.com/turtacn/GovMatch-Engine/pkg/types/match"
)

// Topic constants.
const (
	TopicScoreRequested   = "match.score.requested"
	TopicScoreComputed    = "match.score.computed"
	TopicBatchRequested   = "match.batch.requested"
	TopicFeedbackRecorded = "match.feedback.recorded"
	TopicAuditLog         = "audit.log"
)

// EventEnvelope standardizes event messages across topics.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ScoreRequestedPayload asks a worker to score one pair.
type ScoreRequestedPayload struct {
	ProfileID     match.ID    `json:"profile_id"`
	OpportunityID match.ID    `json:"opportunity_id"`
	OrgID         match.OrgID `json:"org_id"`
	EnrichWithLLM bool        `json:"enrich_with_llm"`
	RequestedAt   time.Time   `json:"requested_at"`
}

// BatchRequestedPayload asks a worker to score one profile against many
// opportunities.
type BatchRequestedPayload struct {
	ProfileID      match.ID    `json:"profile_id"`
	OpportunityIDs []match.ID  `json:"opportunity_ids"`
	OrgID          match.OrgID `json:"org_id"`
	EnrichWithLLM  bool        `json:"enrich_with_llm"`
	RequestedAt    time.Time   `json:"requested_at"`
}

// ScoreComputedPayload announces a persisted score.
type ScoreComputedPayload struct {
	ScoreID       match.ID     `json:"score_id"`
	ProfileID     match.ID     `json:"profile_id"`
	OpportunityID match.ID     `json:"opportunity_id"`
	OrgID         match.OrgID  `json:"org_id"`
	OverallScore  int          `json:"overall_score"`
	Method        match.Method `json:"method"`
	Degraded      bool         `json:"degraded"`
	ComputedAt    time.Time    `json:"computed_at"`
}

// FeedbackRecordedPayload announces an appended feedback record.
type FeedbackRecordedPayload struct {
	FeedbackID match.ID      `json:"feedback_id"`
	ScoreID    match.ID      `json:"score_id"`
	OrgID      match.OrgID   `json:"org_id"`
	Rating     *int          `json:"rating,omitempty"`
	Outcome    match.Outcome `json:"outcome,omitempty"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// NewEventEnvelope wraps a payload for publication.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshal event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the envelope payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeSerialization, "event payload is empty")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "decode event payload")
	}
	return nil
}
