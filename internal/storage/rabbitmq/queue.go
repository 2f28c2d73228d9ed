package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
	repo "github.com/ilindan-dev/fact-scheduler/internal/domain/repository"
)

// Ensure DispatchQueue implements the repository interface at compile time.
var _ repo.DispatchQueue = (*DispatchQueue)(nil)

// Constants for our RabbitMQ topology.
const (
	RetryExchange    = "retry.exchange"
	DeliveryExchange = "delivery.exchange"

	DeliveryQueue = "delivery.queue.process"
	RetryQueue    = "retry.queue.delay"

	Direct = "direct"
)

// DispatchQueue implements the repository DispatchQueue interface. It acts as
// a PUBLISHER. Due notifications go straight to the delivery exchange; the
// delay until the fire instant is handled by the pending registry, so only the
// retry path needs a dead-letter hop.
type DispatchQueue struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger zerolog.Logger
}

// NewDispatchQueue creates a new instance of the DispatchQueue publisher.
// It receives a shared amqp.Connection to create its own channel.
func NewDispatchQueue(conn *amqp.Connection, logger *zerolog.Logger) (*DispatchQueue, error) {
	channel, err := conn.Channel()
	if err != nil {
		logger.Error().Err(err).Msg("storage: rabbitMQ: New: Failed to open a channel")
		return nil, fmt.Errorf("storage: rabbitMQ: New: Failed to open a channel: %w", err)
	}

	queue := &DispatchQueue{
		conn:   conn,
		ch:     channel,
		logger: logger.With().Str("component", "rabbitmq_publisher").Logger(),
	}

	if err = queue.setupTopology(); err != nil {
		queue.logger.Error().Err(err).Msg("storage: rabbitMQ: New: Failed to setup topology")
		return nil, fmt.Errorf("storage: rabbitMQ: New: Failed to setup topology: %w", err)
	}

	return queue, nil
}

// setupTopology declares all necessary exchanges and queues.
func (q *DispatchQueue) setupTopology() error {
	q.logger.Info().Msg("setting up rabbitmq topology")

	exchangesToDeclare := []struct {
		name string
		kind string
	}{
		{DeliveryExchange, Direct},
		{RetryExchange, Direct},
	}
	for _, exInfo := range exchangesToDeclare {
		if err := q.ch.ExchangeDeclare(exInfo.name, exInfo.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", exInfo.name, err)
		}
	}

	if _, err := q.ch.QueueDeclare(DeliveryQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", DeliveryQueue, err)
	}
	// Expired retry messages dead-letter back into the delivery exchange.
	retryQueueArgs := amqp.Table{"x-dead-letter-exchange": DeliveryExchange}
	if _, err := q.ch.QueueDeclare(RetryQueue, true, false, false, false, retryQueueArgs); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", RetryQueue, err)
	}

	if err := q.ch.QueueBind(DeliveryQueue, "", DeliveryExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s to exchange %s: %w", DeliveryQueue, DeliveryExchange, err)
	}
	if err := q.ch.QueueBind(RetryQueue, "", RetryExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s to exchange %s: %w", RetryQueue, RetryExchange, err)
	}

	q.logger.Info().Msg("rabbitmq topology setup successful")
	return nil
}

// Publish hands a due notification to the delivery workers.
func (q *DispatchQueue) Publish(ctx context.Context, m *model.DeliveryMessage) error {
	body, err := json.Marshal(m)
	if err != nil {
		q.logger.Error().Err(err).Str("handle", m.Handle).Msg("failed to marshal delivery message")
		return fmt.Errorf("failed to marshal delivery message: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}

	return q.ch.PublishWithContext(ctx, DeliveryExchange, "", false, false, msg)
}

// PublishRetry re-enqueues a failed delivery after the given delay.
func (q *DispatchQueue) PublishRetry(ctx context.Context, m *model.DeliveryMessage, retryDelay time.Duration) error {
	body, err := json.Marshal(m)
	if err != nil {
		q.logger.Error().Err(err).Str("handle", m.Handle).Msg("failed to marshal delivery message for retry")
		return fmt.Errorf("failed to marshal delivery message for retry: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Expiration:   strconv.FormatInt(retryDelay.Milliseconds(), 10),
	}

	return q.ch.PublishWithContext(ctx, RetryExchange, "", false, false, msg)
}

// Close gracefully shuts down the channel. The connection is managed by Fx.
func (q *DispatchQueue) Close() error {
	if q.ch != nil {
		return q.ch.Close()
	}
	return nil
}
