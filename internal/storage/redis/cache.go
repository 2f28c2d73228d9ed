package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
	repo "github.com/ilindan-dev/fact-scheduler/internal/domain/repository"
	"github.com/ilindan-dev/fact-scheduler/pkg/keybuilder"
)

// Ensure FeedCache implements the interface
var _ repo.FeedCache = (*FeedCache)(nil)

// FeedCache implements the domain FeedCache interface
// using the standard go-redis client.
type FeedCache struct {
	redis  *goredis.Client
	logger zerolog.Logger
}

// NewFeedCache creates a new instance of the FeedCache.
func NewFeedCache(logger *zerolog.Logger, redis *goredis.Client) *FeedCache {
	return &FeedCache{
		redis:  redis,
		logger: logger.With().Str("layer", "redis_feed_cache").Logger(),
	}
}

// Get retrieves the cached feed for a language.
func (c *FeedCache) Get(ctx context.Context, language string) ([]model.Fact, error) {
	key := keybuilder.RedisFeedKey(language)
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			c.logger.Info().Str("key", key).Str("cache", "miss").Msg("feed not found in cache")
			return nil, repo.ErrNotFound
		}
		c.logger.Error().Err(err).Str("key", key).Msg("failed to get key from redis")
		return nil, err
	}

	var facts []model.Fact
	if err := json.Unmarshal([]byte(val), &facts); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to unmarshal feed from cache")
		return nil, fmt.Errorf("failed to unmarshal cached feed: %w", err)
	}

	c.logger.Info().Str("key", key).Str("cache", "hit").Msg("feed found in cache")
	return facts, nil
}

// Set stores the feed for a language for the given duration.
func (c *FeedCache) Set(ctx context.Context, language string, facts []model.Fact, expiration time.Duration) error {
	key := keybuilder.RedisFeedKey(language)
	raw, err := json.Marshal(facts)
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to marshal feed for cache")
		return fmt.Errorf("failed to marshal feed: %w", err)
	}

	if err := c.redis.Set(ctx, key, raw, expiration).Err(); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to set key in redis")
		return err
	}
	return nil
}

// Invalidate drops the cached feed for a language.
func (c *FeedCache) Invalidate(ctx context.Context, language string) error {
	key := keybuilder.RedisFeedKey(language)
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("failed to delete key from redis")
		return err
	}
	c.logger.Info().Str("key", key).Msg("feed cache invalidated")
	return nil
}
