package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"

	"github.com/mercatto/stock-reservation/internal/rabbitmq"
	"github.com/mercatto/stock-reservation/internal/service/models/envelope"
	"github.com/mercatto/stock-reservation/internal/service/models/ledger"
	"github.com/mercatto/stock-reservation/internal/service/models/reservation"
)

// service represents the service layer interface.
type service interface {
	ApplyReservations(ctx context.Context, messageID string, commands []reservation.Command) error
}

// broker is the slice of the RabbitMQ client the consumer needs.
type broker interface {
	DeclareQueue(cfg rabbitmq.DeclareQueueConfig) (amqp.Queue, error)
	Consume(cfg rabbitmq.ConsumeConfig) (<-chan amqp.Delivery, error)
	Publish(queue string, msg amqp.Publishing) error
}

// Consumer is the RabbitMQ consumer transport. It drains the main
// reservation queue one message at a time and runs the retry and
// dead-letter protocol around the service's atomic apply.
type Consumer struct {
	client          broker
	service         service
	queueName       string
	deadLetterQueue string
	maxRetries      int
	stop            chan struct{}
	done            chan struct{}
}

// NewConsumer creates a new Consumer and declares the queue topology:
// a durable main queue dead-lettering into a durable sibling queue.
func NewConsumer(client broker, service service) *Consumer {
	queueName := viper.GetString("rabbitmq.queue")
	if queueName == "" {
		panic("rabbitmq.queue is not set in config")
	}

	deadLetterQueue := viper.GetString("rabbitmq.dead_letter_queue")
	if deadLetterQueue == "" {
		deadLetterQueue = queueName + "-dlq"
	}

	maxRetries := viper.GetInt("rabbitmq.consumer.max_retries")
	if maxRetries <= 0 {
		maxRetries = 3
	}

	if _, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:    queueName,
		Durable: true,
		Args:    rabbitmq.MainQueueArgs(deadLetterQueue),
	}); err != nil {
		panic(err)
	}

	if _, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:    deadLetterQueue,
		Durable: true,
	}); err != nil {
		panic(err)
	}

	return &Consumer{
		client:          client,
		service:         service,
		queueName:       queueName,
		deadLetterQueue: deadLetterQueue,
		maxRetries:      maxRetries,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
}

// Run starts consuming messages from RabbitMQ. Handling is serialized:
// the next delivery is not touched until the current one reached a
// terminal outcome, so per-queue state sees no intra-consumer races.
func (c *Consumer) Run(ctx context.Context) error {
	// Closed on every exit path so Shutdown never waits out its
	// timeout on a consumer that failed to start.
	defer close(c.done)

	consumerTag := viper.GetString("rabbitmq.consumer_tag")
	if consumerTag == "" {
		consumerTag = "stock-consumer-svc"
	}

	msgs, err := c.client.Consume(rabbitmq.ConsumeConfig{
		Queue:    c.queueName,
		Consumer: consumerTag,
	})
	if err != nil {
		return err
	}

	slog.Info("Consumer started",
		"queue", c.queueName,
		"dead_letter_queue", c.deadLetterQueue,
		"consumer_tag", consumerTag,
		"max_retries", c.maxRetries)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Consumer context cancelled")

			return nil
		case <-c.stop:
			slog.Info("Stopping consumer")

			return nil
		case msg, ok := <-msgs:
			if !ok {
				slog.Info("Message channel closed")

				return nil
			}

			c.processMessage(ctx, msg)
		}
	}
}

// processMessage runs one delivery through the state machine. The
// original delivery is acknowledged only after a terminal outcome:
// applied, duplicate-skipped, requeued, or dead-lettered. When the
// requeue or dead-letter publish itself fails the delivery stays
// unacknowledged and the broker redelivers it.
func (c *Consumer) processMessage(ctx context.Context, msg amqp.Delivery) {
	ctx, span := otel.Tracer("consumer").Start(ctx, "Consumer.processMessage")
	defer span.End()

	env := envelope.FromDelivery(msg)

	slog.Info("Received message",
		"delivery_tag", msg.DeliveryTag,
		"message_id", env.MessageID,
		"correlation_id", env.CorrelationID,
		"retry_count", env.RetryCount)

	commands, err := reservation.DecodeBatch(env.Body)
	if err == nil {
		err = c.service.ApplyReservations(ctx, env.MessageID, commands)
	}

	switch {
	case err == nil:
		c.ack(msg, env)

		slog.Info("Message processed successfully", "message_id", env.MessageID)
	case errors.Is(err, ledger.ErrAlreadyProcessed):
		// Duplicate delivery: nothing mutated, drop it.
		c.ack(msg, env)

		slog.Warn("Message already processed, skipping", "message_id", env.MessageID)
	default:
		slog.Error("Failed to process message",
			"message_id", env.MessageID,
			"retry_count", env.RetryCount,
			"error", err)

		c.resolveFailure(msg, env)
	}
}

// resolveFailure requeues the message with an incremented retry count,
// or dead-letters it once the budget is exhausted. Both publishes keep
// the original message id so the idempotency key survives the lineage.
func (c *Consumer) resolveFailure(msg amqp.Delivery, env envelope.Envelope) {
	retryCount := env.RetryCount + 1

	if retryCount <= c.maxRetries {
		if err := c.client.Publish(c.queueName, env.WithRetry(retryCount)); err != nil {
			// Leave unacknowledged; the broker will redeliver.
			slog.Error("Failed to requeue message",
				"message_id", env.MessageID,
				"error", err)

			return
		}

		c.ack(msg, env)

		slog.Info("Message requeued for retry",
			"message_id", env.MessageID,
			"retry_count", retryCount)

		return
	}

	if err := c.client.Publish(c.deadLetterQueue, env.ToDeadLetter(retryCount)); err != nil {
		slog.Error("Failed to dead-letter message",
			"message_id", env.MessageID,
			"error", err)

		return
	}

	c.ack(msg, env)

	slog.Warn("Message moved to dead-letter queue",
		"message_id", env.MessageID,
		"original_retries", retryCount)
}

func (c *Consumer) ack(msg amqp.Delivery, env envelope.Envelope) {
	if err := msg.Ack(false); err != nil {
		slog.Error("Failed to ack message",
			"message_id", env.MessageID,
			"delivery_tag", msg.DeliveryTag,
			"error", err)
	}
}

// Shutdown gracefully shuts down the consumer.
func (c *Consumer) Shutdown() error {
	slog.Info("Shutting down consumer")
	close(c.stop)

	// Wait for the in-flight message to finish with timeout
	select {
	case <-c.done:
		slog.Info("Consumer stopped successfully")
	case <-time.After(10 * time.Second):
		slog.Warn("Consumer shutdown timeout")
	}

	return nil
}
