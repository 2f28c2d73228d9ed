package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ilindan-dev/fact-scheduler/internal/config"
	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
	"github.com/ilindan-dev/fact-scheduler/internal/domain/repository"
	"github.com/ilindan-dev/fact-scheduler/internal/events"
)

// FeedService serves the user's permanent feed of shown facts, newest
// delivery first, with a cache-aside layer that is invalidated whenever the
// scheduler publishes a feed-refresh event.
type FeedService struct {
	facts  repository.FactRepository
	cache  repository.FeedCache
	bus    *events.Bus
	logger zerolog.Logger
	limit  int
	ttl    time.Duration
}

// NewFeedService creates the feed service.
func NewFeedService(
	cfg *config.Config,
	facts repository.FactRepository,
	cache repository.FeedCache,
	bus *events.Bus,
	logger *zerolog.Logger,
) *FeedService {
	return &FeedService{
		facts:  facts,
		cache:  cache,
		bus:    bus,
		logger: logger.With().Str("layer", "feed_service").Logger(),
		limit:  cfg.Feed.Limit,
		ttl:    cfg.Feed.CacheTTL,
	}
}

// Feed returns the shown facts for a language, serving from the cache when
// possible. Cache errors degrade to a direct store read.
func (s *FeedService) Feed(ctx context.Context, language string) ([]model.Fact, error) {
	cached, err := s.cache.Get(ctx, language)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error().Err(err).Str("language", language).Msg("feed cache read failed, falling back to store")
	}

	facts, err := s.facts.ListShown(ctx, language, s.limit)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, language, facts, s.ttl); err != nil {
		s.logger.Error().Err(err).Str("language", language).Msg("failed to cache feed")
	}
	return facts, nil
}

// Watch subscribes to feed-refresh events and invalidates the cache for the
// affected language. Blocks until the context is cancelled.
func (s *FeedService) Watch(ctx context.Context) {
	updates, unsubscribe := s.bus.Subscribe()
	defer unsubscribe()

	s.logger.Info().Msg("feed watcher started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("feed watcher stopped")
			return
		case e, ok := <-updates:
			if !ok {
				return
			}
			if err := s.cache.Invalidate(ctx, e.Language); err != nil {
				s.logger.Error().Err(err).Str("language", e.Language).Msg("failed to invalidate feed cache")
			}
		}
	}
}
