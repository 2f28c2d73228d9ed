// Package dispatch moves due notifications from the pending registry to the
// delivery queue.
package dispatch

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ilindan-dev/fact-scheduler/internal/config"
	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
	repo "github.com/ilindan-dev/fact-scheduler/internal/domain/repository"
)

// Poller periodically pops due entries from the pending registry and publishes
// them for delivery. It is the Go counterpart of the OS firing a scheduled
// local notification.
type Poller struct {
	pending   repo.PendingQueue
	dispatch  repo.DispatchQueue
	logger    zerolog.Logger
	interval  time.Duration
	batchSize int
}

// NewPoller creates a new instance of Poller.
func NewPoller(cfg *config.Config, pending repo.PendingQueue, dispatch repo.DispatchQueue, logger *zerolog.Logger) *Poller {
	return &Poller{
		pending:   pending,
		dispatch:  dispatch,
		logger:    logger.With().Str("component", "dispatch_poller").Logger(),
		interval:  cfg.Scheduler.PollInterval,
		batchSize: cfg.Scheduler.DispatchBatchSize,
	}
}

// Start runs the polling loop until the context is cancelled.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info().Dur("interval", p.interval).Msg("dispatch poller started")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("dispatch poller stopped")
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce drains one batch of due entries.
func (p *Poller) pollOnce(ctx context.Context) {
	due, err := p.pending.PopDue(ctx, time.Now().UTC(), p.batchSize)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to pop due entries")
		return
	}
	if len(due) == 0 {
		return
	}

	published := 0
	for _, d := range due {
		msg := &model.DeliveryMessage{
			FactID: d.FactID,
			Handle: d.Handle,
			FireAt: d.FireAt,
		}
		if err := p.dispatch.Publish(ctx, msg); err != nil {
			// The entry is already gone from the registry. Log loudly so the
			// fact can be rescheduled by the next top-up's desync repair.
			p.logger.Error().Err(err).Str("handle", d.Handle).Stringer("fact_id", d.FactID).
				Msg("CRITICAL: failed to publish due entry")
			continue
		}
		published++
	}

	p.logger.Info().Int("due", len(due)).Int("published", published).Msg("due entries dispatched")
}
