package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/logging"
)

func TestNewEventEnvelope(t *testing.T) {
	payload := ScoreRequestedPayload{
		ProfileID:     "prof-1",
		OpportunityID: "opp-1",
		OrgID:         "org-1",
		EnrichWithLLM: true,
		RequestedAt:   time.Now().UTC(),
	}
	env, err := NewEventEnvelope("score.requested", "apiserver", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "score.requested", env.EventType)
	assert.Equal(t, "v1", env.SchemaVersion)

	var decoded ScoreRequestedPayload
	require.NoError(t, env.DecodePayload(&decoded))
	assert.Equal(t, payload.ProfileID, decoded.ProfileID)
	assert.True(t, decoded.EnrichWithLLM)
}

func TestDecodePayload_Empty(t *testing.T) {
	env := &EventEnvelope{}
	var decoded ScoreRequestedPayload
	assert.Error(t, env.DecodePayload(&decoded))
}

type captureWriter struct {
	messages []kafka.Message
	err      error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestProducer_Publish(t *testing.T) {
	writer := &captureWriter{}
	p := &Producer{writer: writer, log: logging.NewNopLogger()}

	env, err := NewEventEnvelope("batch.requested", "apiserver", BatchRequestedPayload{
		ProfileID: "prof-1",
		OrgID:     "org-1",
	})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), TopicBatchRequested, "org-1", env))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, TopicBatchRequested, msg.Topic)
	assert.Equal(t, "org-1", string(msg.Key))

	var roundTrip EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Value, &roundTrip))
	assert.Equal(t, env.EventID, roundTrip.EventID)

	published, failed := p.Stats()
	assert.EqualValues(t, 1, published)
	assert.EqualValues(t, 0, failed)
}

func TestProducer_PublishAfterClose(t *testing.T) {
	p := &Producer{writer: &captureWriter{}, log: logging.NewNopLogger()}
	require.NoError(t, p.Close())

	env, err := NewEventEnvelope("score.requested", "apiserver", ScoreRequestedPayload{})
	require.NoError(t, err)
	assert.ErrorIs(t, p.Publish(context.Background(), TopicScoreRequested, "k", env), ErrProducerClosed)
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(ProducerConfig{}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestNewConsumer_Validation(t *testing.T) {
	_, err := NewConsumer(ConsumerConfig{Brokers: []string{"localhost:9092"}}, logging.NewNopLogger())
	assert.Error(t, err, "missing group id and topic")

	_, err = NewConsumer(ConsumerConfig{GroupID: "g", Topic: "t"}, logging.NewNopLogger())
	assert.Error(t, err, "missing brokers")
}
