package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/GovMatch-Engine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GovMatch-Engine/pkg/errors"
)

// EnvelopeHandler processes one decoded event.  A returned error makes the
// consumer retry the same message in place with backoff; the committed
// offset never advances past an unprocessed message.
type EnvelopeHandler func(ctx context.Context, envelope *EventEnvelope) error

// ConsumerConfig holds consumer settings.
type ConsumerConfig struct {
	Brokers        []string      `mapstructure:"brokers"`
	GroupID        string        `mapstructure:"group_id"`
	Topic          string        `mapstructure:"topic"`
	MinBytes       int           `mapstructure:"min_bytes"`
	MaxBytes       int           `mapstructure:"max_bytes"`
	CommitInterval time.Duration `mapstructure:"commit_interval"`
	// MaxRetries bounds in-place handler retries per message; once exhausted
	// the message is dropped with an error log so one poison message cannot
	// wedge the partition.  Zero means unlimited retries.
	MaxRetries int `mapstructure:"max_retries"`
	// RetryBackoff is the initial delay between handler retries; it doubles
	// per attempt up to maxRetryBackoff.
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

const (
	defaultMaxRetries   = 5
	defaultRetryBackoff = time.Second
	maxRetryBackoff     = 30 * time.Second
)

// reader abstracts *kafka.Reader for tests.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads envelopes from one topic as part of a consumer group.
type Consumer struct {
	reader       reader
	maxRetries   int
	retryBackoff time.Duration
	log          logging.Logger
}

// NewConsumer builds a consumer; Run drives it.
func NewConsumer(cfg ConsumerConfig, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.Validation("at least one kafka broker is required")
	}
	if cfg.GroupID == "" || cfg.Topic == "" {
		return nil, errors.Validation("kafka group id and topic are required")
	}
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10 << 20
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		CommitInterval: cfg.CommitInterval,
	})
	return &Consumer{
		reader:       r,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		log:          log.Named("kafka.consumer"),
	}, nil
}

// Run consumes until ctx is canceled.  Malformed envelopes are committed and
// dropped.  Handler failures retry the same message in place with doubling
// backoff; the message is committed only after the handler succeeds or the
// retry budget is spent.  Fetching never races ahead of an uncommitted
// failure, so a later commit cannot skip past it.
func (c *Consumer) Run(ctx context.Context, handler EnvelopeHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, errors.ErrCodeInternal, "fetch message")
		}

		var envelope EventEnvelope
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			c.log.Warn("dropping malformed envelope",
				logging.String("topic", msg.Topic),
				logging.Int64("offset", msg.Offset),
				logging.Err(err),
			)
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "commit message")
			}
			continue
		}

		if err := c.process(ctx, msg, &envelope, handler); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "commit message")
		}
	}
}

// process drives the handler for one message, retrying in place until it
// succeeds, the retry budget is spent, or ctx is canceled.
func (c *Consumer) process(ctx context.Context, msg kafka.Message, envelope *EventEnvelope, handler EnvelopeHandler) error {
	backoff := c.retryBackoff
	for attempt := 1; ; attempt++ {
		err := handler(ctx, envelope)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if c.maxRetries > 0 && attempt >= c.maxRetries {
			c.log.Error("dropping message after exhausting retries",
				logging.String("topic", msg.Topic),
				logging.String("event_type", envelope.EventType),
				logging.Int64("offset", msg.Offset),
				logging.Int("attempts", attempt),
				logging.Err(err),
			)
			return nil
		}

		c.log.Warn("handler failed, retrying in place",
			logging.String("topic", msg.Topic),
			logging.String("event_type", envelope.EventType),
			logging.Int64("offset", msg.Offset),
			logging.Int("attempt", attempt),
			logging.Duration("backoff", backoff),
			logging.Err(err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if backoff *= 2; backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}
}

// Close shuts the reader down.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
