package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GovMatch-Engine/pkg/errors"
)

// scriptedReader feeds a fixed sequence of messages, then blocks until ctx
// cancel so Run terminates cleanly.
type scriptedReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	next      int
	committed []kafka.Message
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if r.next < len(r.messages) {
		msg := r.messages[r.next]
		r.next++
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *scriptedReader) Close() error { return nil }

func envelopeMessage(t *testing.T, offset int64) kafka.Message {
	t.Helper()
	env, err := NewEventEnvelope("score.requested", "test", ScoreRequestedPayload{
		ProfileID: "prof-1", OpportunityID: "opp-1", OrgID: "org-1",
	})
	require.NoError(t, err)
	value, err := json.Marshal(env)
	require.NoError(t, err)
	return kafka.Message{Topic: TopicScoreRequested, Offset: offset, Value: value}
}

func newTestConsumer(r reader, maxRetries int) *Consumer {
	return &Consumer{
		reader:       r,
		maxRetries:   maxRetries,
		retryBackoff: time.Millisecond,
		log:          logging.NewNopLogger(),
	}
}

func TestConsumer_RetriesFailedMessageInPlace(t *testing.T) {
	r := &scriptedReader{messages: []kafka.Message{
		envelopeMessage(t, 7),
		envelopeMessage(t, 8),
	}}
	c := newTestConsumer(r, 5)

	// First message fails twice before succeeding; the commit for it must
	// land before the second message is handled.
	var mu sync.Mutex
	var attempts int
	var handledOffsets []int64
	handler := func(_ context.Context, _ *EventEnvelope) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return errors.Persistence("db down", nil)
		}
		handledOffsets = append(handledOffsets, int64(len(r.committed)))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := c.Run(ctx, handler)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 4, attempts, "two failures, then both messages succeed")
	require.Len(t, r.committed, 2)
	assert.EqualValues(t, 7, r.committed[0].Offset)
	assert.EqualValues(t, 8, r.committed[1].Offset)
	// The second message saw exactly one prior commit: the retried first one.
	assert.Equal(t, []int64{0, 1}, handledOffsets)
}

func TestConsumer_DropsMessageAfterRetryBudget(t *testing.T) {
	r := &scriptedReader{messages: []kafka.Message{
		envelopeMessage(t, 3),
		envelopeMessage(t, 4),
	}}
	c := newTestConsumer(r, 3)

	var mu sync.Mutex
	var firstAttempts, secondHandled int
	handler := func(_ context.Context, env *EventEnvelope) error {
		mu.Lock()
		defer mu.Unlock()
		if len(r.committed) == 0 {
			firstAttempts++
			return errors.Persistence("db down", nil)
		}
		secondHandled++
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := c.Run(ctx, handler)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, firstAttempts, "retry budget spent")
	assert.Equal(t, 1, secondHandled, "poison message does not wedge the partition")
	require.Len(t, r.committed, 2)
}

func TestConsumer_DropsMalformedEnvelope(t *testing.T) {
	r := &scriptedReader{messages: []kafka.Message{
		{Topic: TopicScoreRequested, Offset: 1, Value: []byte("not json")},
		envelopeMessage(t, 2),
	}}
	c := newTestConsumer(r, 3)

	var mu sync.Mutex
	var handled int
	handler := func(_ context.Context, _ *EventEnvelope) error {
		mu.Lock()
		defer mu.Unlock()
		handled++
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := c.Run(ctx, handler)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, handled, "malformed message never reaches the handler")
	require.Len(t, r.committed, 2, "malformed message is committed past")
}
