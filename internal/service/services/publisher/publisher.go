package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"

	"github.com/mercatto/stock-reservation/internal/rabbitmq"
	"github.com/mercatto/stock-reservation/internal/service/models/envelope"
	"github.com/mercatto/stock-reservation/internal/service/models/reservation"
)

// ErrPublishExhausted reports that every publish attempt failed. The
// caller owns the decision of whether the originating operation fails.
var ErrPublishExhausted = errors.New("publish retries exhausted")

// Publisher durably enqueues reservation command batches.
type Publisher interface {
	Publish(ctx context.Context, queue string, commands []reservation.Command, correlationID string) error
}

// RabbitPublisher publishes to RabbitMQ with exponential-backoff retry
// against transient transport failures. Every attempt dials its own
// connection and channel and tears both down; retries therefore pay the
// full handshake cost, a tradeoff accepted for the low publish volume.
type RabbitPublisher struct {
	url             string
	deadLetterQueue string
	retryCount      int
	baseDelay       time.Duration

	// attemptFn performs one publish attempt; swapped out in tests.
	attemptFn func(queue string, pub amqp.Publishing) error
}

// option is a function that configures the RabbitPublisher.
type option func(*RabbitPublisher)

// MustNewRabbitPublisher creates a publisher from configuration.
func MustNewRabbitPublisher(opts ...option) *RabbitPublisher {
	retryCount := viper.GetInt("rabbitmq.publish.retry_count")
	if retryCount <= 0 {
		retryCount = 3
	}

	baseDelayMs := viper.GetInt("rabbitmq.publish.retry_base_delay_ms")
	if baseDelayMs <= 0 {
		baseDelayMs = 200
	}

	p := &RabbitPublisher{
		url:             rabbitmq.URL(),
		deadLetterQueue: viper.GetString("rabbitmq.dead_letter_queue"),
		retryCount:      retryCount,
		baseDelay:       time.Duration(baseDelayMs) * time.Millisecond,
	}
	p.attemptFn = p.dialAndPublish

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// WithRetryPolicy overrides the configured attempt bound and base delay.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRetryPolicy(retryCount int, baseDelay time.Duration) option {
	return func(p *RabbitPublisher) {
		p.retryCount = retryCount
		p.baseDelay = baseDelay
	}
}

// Publish serializes the batch, assigns a fresh message id, and
// enqueues it durably. Transport failures are retried with delay
// baseDelay * 2^(attempt-1); exhausting the bound surfaces
// ErrPublishExhausted.
func (p *RabbitPublisher) Publish(
	ctx context.Context,
	queue string,
	commands []reservation.Command,
	correlationID string,
) error {
	body, err := reservation.EncodeBatch(commands)
	if err != nil {
		return err
	}

	env := envelope.New(body, correlationID)
	pub := env.Publishing()

	for attempt := 1; ; attempt++ {
		err = p.attemptFn(queue, pub)
		if err == nil {
			slog.Info("Message published",
				"queue", queue,
				"message_id", env.MessageID,
				"correlation_id", correlationID,
				"attempt", attempt)

			return nil
		}

		if attempt >= p.retryCount {
			return fmt.Errorf("failed to publish to %q after %d attempts: %w",
				queue, attempt, errors.Join(ErrPublishExhausted, err))
		}

		delay := p.baseDelay * (1 << (attempt - 1))
		slog.Warn("Publish attempt failed, backing off",
			"queue", queue,
			"message_id", env.MessageID,
			"attempt", attempt,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// dialAndPublish performs a single attempt over a fresh connection.
// The queue is declared durable with the dead-letter routing arguments
// so the declare agrees with the consumer's.
func (p *RabbitPublisher) dialAndPublish(queue string, pub amqp.Publishing) error {
	deadLetterQueue := p.deadLetterQueue
	if deadLetterQueue == "" {
		deadLetterQueue = queue + "-dlq"
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	channel, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	defer channel.Close()

	if _, err := channel.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		rabbitmq.MainQueueArgs(deadLetterQueue),
	); err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", queue, err)
	}

	if err := channel.Publish("", queue, false, false, pub); err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}

	return nil
}
