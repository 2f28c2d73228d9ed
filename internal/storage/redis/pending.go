package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ilindan-dev/fact-scheduler/internal/config"
	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
	repo "github.com/ilindan-dev/fact-scheduler/internal/domain/repository"
	"github.com/ilindan-dev/fact-scheduler/pkg/keybuilder"
)

// ErrQueueFull is returned when a registration would exceed the pending cap.
var ErrQueueFull = errors.New("pending queue is at capacity")

// Ensure PendingQueue implements the interface
var _ repo.PendingQueue = (*PendingQueue)(nil)

// PendingQueue implements the domain PendingQueue on top of a Redis sorted
// set: one member per handle, scored by the fire instant. It mirrors the
// capability surface of a mobile notification center, including the hard cap
// on concurrently pending entries.
type PendingQueue struct {
	redis          *goredis.Client
	logger         zerolog.Logger
	cap            int
	defaultEnabled bool
}

// NewPendingQueue creates a new instance of the PendingQueue.
func NewPendingQueue(cfg *config.Config, logger *zerolog.Logger, redis *goredis.Client) *PendingQueue {
	return &PendingQueue{
		redis:          redis,
		logger:         logger.With().Str("layer", "redis_pending_queue").Logger(),
		cap:            cfg.Scheduler.Cap,
		defaultEnabled: cfg.Scheduler.Enabled,
	}
}

// PermissionStatus reads the opt-in flag, falling back to the configured
// default when no explicit grant or revocation has been recorded yet.
func (q *PendingQueue) PermissionStatus(ctx context.Context) (bool, error) {
	val, err := q.redis.Get(ctx, keybuilder.RedisPermissionKey()).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return q.defaultEnabled, nil
		}
		return false, fmt.Errorf("redis: reading permission flag failed: %w", err)
	}
	enabled, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("redis: malformed permission flag %q: %w", val, err)
	}
	return enabled, nil
}

// SetPermission records an explicit grant or revocation of the opt-in.
func (q *PendingQueue) SetPermission(ctx context.Context, granted bool) error {
	if err := q.redis.Set(ctx, keybuilder.RedisPermissionKey(), strconv.FormatBool(granted), 0).Err(); err != nil {
		return fmt.Errorf("redis: writing permission flag failed: %w", err)
	}
	q.logger.Info().Bool("granted", granted).Msg("permission flag updated")
	return nil
}

// ListPending returns every live registration with its fire instant.
func (q *PendingQueue) ListPending(ctx context.Context) ([]model.PendingNotification, error) {
	members, err := q.redis.ZRangeWithScores(ctx, keybuilder.RedisPendingScheduleKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: listing pending entries failed: %w", err)
	}
	out := make([]model.PendingNotification, 0, len(members))
	for _, m := range members {
		handle, ok := m.Member.(string)
		if !ok {
			continue
		}
		out = append(out, model.PendingNotification{
			Handle: handle,
			FireAt: time.Unix(int64(m.Score), 0).UTC(),
		})
	}
	return out, nil
}

// Register enqueues the fact for delivery at fireAt and returns the assigned
// handle. The cap is enforced here as well, so even a buggy caller cannot
// push the queue past it.
func (q *PendingQueue) Register(ctx context.Context, f *model.Fact, fireAt time.Time) (string, error) {
	size, err := q.redis.ZCard(ctx, keybuilder.RedisPendingScheduleKey()).Result()
	if err != nil {
		return "", fmt.Errorf("redis: reading pending queue size failed: %w", err)
	}
	if int(size) >= q.cap {
		return "", ErrQueueFull
	}

	handle := uuid.NewString()
	pipe := q.redis.TxPipeline()
	pipe.ZAdd(ctx, keybuilder.RedisPendingScheduleKey(), goredis.Z{
		Score:  float64(fireAt.Unix()),
		Member: handle,
	})
	pipe.Set(ctx, keybuilder.RedisPendingPayloadKey(handle), f.ID.String(), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("redis: registering notification failed: %w", err)
	}

	q.logger.Info().Str("handle", handle).Stringer("fact_id", f.ID).Time("fire_at", fireAt).
		Msg("notification registered")
	return handle, nil
}

// CancelAll removes every pending registration together with its payload.
func (q *PendingQueue) CancelAll(ctx context.Context) error {
	handles, err := q.redis.ZRange(ctx, keybuilder.RedisPendingScheduleKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("redis: listing handles for cancellation failed: %w", err)
	}

	pipe := q.redis.TxPipeline()
	for _, handle := range handles {
		pipe.Del(ctx, keybuilder.RedisPendingPayloadKey(handle))
	}
	pipe.Del(ctx, keybuilder.RedisPendingScheduleKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: cancelling pending entries failed: %w", err)
	}

	q.logger.Info().Int("count", len(handles)).Msg("pending queue cancelled")
	return nil
}

// PopDue atomically removes and returns up to limit entries due at now.
func (q *PendingQueue) PopDue(ctx context.Context, now time.Time, limit int) ([]model.DueNotification, error) {
	members, err := q.redis.ZRangeByScoreWithScores(ctx, keybuilder.RedisPendingScheduleKey(), &goredis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: listing due entries failed: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	due := make([]model.DueNotification, 0, len(members))
	for _, m := range members {
		handle, ok := m.Member.(string)
		if !ok {
			continue
		}

		rawID, err := q.redis.GetDel(ctx, keybuilder.RedisPendingPayloadKey(handle)).Result()
		if err != nil && !errors.Is(err, goredis.Nil) {
			q.logger.Error().Err(err).Str("handle", handle).Msg("failed to read payload for due entry")
			continue
		}
		if err := q.redis.ZRem(ctx, keybuilder.RedisPendingScheduleKey(), handle).Err(); err != nil {
			q.logger.Error().Err(err).Str("handle", handle).Msg("failed to remove due entry")
			continue
		}

		factID, err := uuid.Parse(rawID)
		if err != nil {
			q.logger.Warn().Str("handle", handle).Str("payload", rawID).Msg("due entry without a valid fact id, dropping")
			continue
		}
		due = append(due, model.DueNotification{
			Handle: handle,
			FactID: factID,
			FireAt: time.Unix(int64(m.Score), 0).UTC(),
		})
	}
	return due, nil
}
