package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/ilindan-dev/fact-scheduler/internal/config"
	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
	repo "github.com/ilindan-dev/fact-scheduler/internal/domain/repository"
	"github.com/ilindan-dev/fact-scheduler/internal/events"
	"github.com/ilindan-dev/fact-scheduler/internal/notifiers"
	"github.com/ilindan-dev/fact-scheduler/internal/storage/rabbitmq"
)

const (
	// maxRetries is the maximum number of delivery attempts for a fact.
	maxRetries = 5
	// defaultWorkerCount is the default number of worker goroutines in the pool.
	defaultWorkerCount = 5
)

// Consumer listens to the delivery queue and processes messages using a pool of workers.
type Consumer struct {
	cfg         *config.Config
	logger      zerolog.Logger
	conn        *amqp.Connection // Raw connection to create channels for each worker.
	facts       repo.FactRepository
	queue       repo.DispatchQueue
	notifier    notifiers.Notifier
	bus         *events.Bus
	workerCount int
}

// New creates a new instance of Consumer.
func New(
	cfg *config.Config,
	logger *zerolog.Logger,
	conn *amqp.Connection,
	facts repo.FactRepository,
	queue repo.DispatchQueue,
	notifier notifiers.Notifier,
	bus *events.Bus,
) *Consumer {
	return &Consumer{
		cfg:         cfg,
		logger:      logger.With().Str("component", "consumer").Logger(),
		conn:        conn,
		facts:       facts,
		queue:       queue,
		notifier:    notifier,
		bus:         bus,
		workerCount: defaultWorkerCount,
	}
}

// Start launches the worker pool to process messages from the queue.
// This is a blocking method that will run until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	c.logger.Info().Int("count", c.workerCount).Msg("Starting worker pool")
	var wg sync.WaitGroup

	for i := 0; i < c.workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.runWorker(ctx, workerID)
		}(i + 1)
	}

	wg.Wait()
	c.logger.Info().Msg("Consumer stopped")
}

// runWorker contains the main logic for a single worker goroutine.
func (c *Consumer) runWorker(ctx context.Context, workerID int) {
	logger := c.logger.With().Int("worker_id", workerID).Logger()
	logger.Info().Msg("Worker started")

	ch, err := c.conn.Channel()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open channel for worker")
		return
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error().Err(err).Msg("Failed to set QoS")
		return
	}

	msgs, err := ch.Consume(
		rabbitmq.DeliveryQueue,
		fmt.Sprintf("worker-%d", workerID), // A unique consumer tag.
		false,                              // autoAck: false. We will manually acknowledge messages.
		false,                              // exclusive
		false,                              // noLocal
		false,                              // noWait
		nil,                                // args
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to register a consumer")
		return
	}

	logger.Info().Msg("Worker is waiting for messages")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Worker stopping due to context cancellation")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Warn().Msg("Message channel closed by RabbitMQ, worker stopping")
				return
			}
			c.handleMessage(ctx, msg, logger)
		}
	}
}

// handleMessage processes a single message from the queue.
func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery, logger zerolog.Logger) {
	var delivery model.DeliveryMessage
	if err := json.Unmarshal(msg.Body, &delivery); err != nil {
		logger.Error().Err(err).Msg("Failed to unmarshal message, rejecting")
		_ = msg.Nack(false, false)
		return
	}

	log := logger.With().Stringer("fact_id", delivery.FactID).Str("handle", delivery.Handle).Logger()

	fact, err := c.facts.GetByID(ctx, delivery.FactID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("Fact no longer exists, skipping")
			_ = msg.Ack(false)
			return
		}
		log.Error().Err(err).Msg("Failed to load fact, requeueing")
		_ = msg.Nack(false, true)
		return
	}

	// A clear-all or reschedule may have raced the delivery. The handle on the
	// fact is the source of truth.
	if fact.IsShown() || fact.NotificationID == nil || *fact.NotificationID != delivery.Handle {
		log.Warn().Msg("Fact is no longer scheduled under this handle, skipping")
		_ = msg.Ack(false)
		return
	}

	log.Info().Int("attempt", delivery.Attempts+1).Msg("Delivering fact")
	if err := c.notifier.Send(ctx, fact); err != nil {
		c.handleSendError(ctx, &delivery, err, msg, log)
		return
	}

	log.Info().Msg("Fact delivered successfully")
	if err := c.facts.MarkShownAt(ctx, fact.ID, time.Now().UTC()); err != nil {
		log.Error().Err(err).Msg("CRITICAL: failed to mark fact shown after successful delivery")
		_ = msg.Nack(false, true)
		return
	}
	c.bus.Publish(events.FeedRefreshed{Language: fact.Language})
	_ = msg.Ack(false)
}

// handleSendError encapsulates the logic for processing failed deliveries.
func (c *Consumer) handleSendError(ctx context.Context, m *model.DeliveryMessage, sendErr error, msg amqp.Delivery, log zerolog.Logger) {
	m.Attempts++

	if m.Attempts >= maxRetries {
		log.Error().Err(sendErr).Int("attempts", m.Attempts).Msg("Max retries reached, dropping delivery")
		// The fact keeps its scheduling state; the next top-up's past-due
		// pass will fold it into the feed.
		_ = msg.Ack(false)
		return
	}

	backoffDuration := calculateExponentialBackoff(m.Attempts)
	log.Warn().
		Err(sendErr).
		Int("attempt", m.Attempts).
		Dur("backoff", backoffDuration).
		Msg("Delivery failed, scheduling retry")

	if err := c.queue.PublishRetry(ctx, m, backoffDuration); err != nil {
		log.Error().Err(err).Msg("CRITICAL: failed to publish message to retry queue")
		_ = msg.Nack(false, true)
		return
	}

	_ = msg.Ack(false)
}

// calculateExponentialBackoff implements the exponential backoff strategy.
// Formula: 5s * 2^(attempt)
func calculateExponentialBackoff(attempt int) time.Duration {
	baseDelay := 5.0
	delay := baseDelay * math.Pow(2, float64(attempt))
	return time.Duration(delay) * time.Second
}
