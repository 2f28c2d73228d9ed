package app

import (
	"context"
	"net/http"

	"go.uber.org/fx"

	"github.com/ilindan-dev/fact-scheduler/internal/config"
	"github.com/ilindan-dev/fact-scheduler/internal/consumer"
	deliveryHTTP "github.com/ilindan-dev/fact-scheduler/internal/delivery/http"
	"github.com/ilindan-dev/fact-scheduler/internal/dispatch"
	repo "github.com/ilindan-dev/fact-scheduler/internal/domain/repository"
	"github.com/ilindan-dev/fact-scheduler/internal/events"
	"github.com/ilindan-dev/fact-scheduler/internal/logger"
	"github.com/ilindan-dev/fact-scheduler/internal/notifiers"
	"github.com/ilindan-dev/fact-scheduler/internal/preferences"
	"github.com/ilindan-dev/fact-scheduler/internal/service"
	"github.com/ilindan-dev/fact-scheduler/internal/storage/postgres"
	"github.com/ilindan-dev/fact-scheduler/internal/storage/rabbitmq"
	"github.com/ilindan-dev/fact-scheduler/internal/storage/redis"
)

// CommonModule provides dependencies that are shared between the API and Worker applications.
var CommonModule = fx.Options(
	fx.Provide(
		// Core components
		config.NewConfig,
		logger.NewLogger,
		events.NewBus,

		// Storage Layer - concrete implementations
		postgres.NewPool,
		redis.NewClient,
		rabbitmq.NewConnection,
		postgres.NewFactRepository,
		redis.NewPendingQueue,
		redis.NewFeedCache,
		rabbitmq.NewDispatchQueue,

		// Interface bindings for the service layer
		func(r *postgres.FactRepository) repo.FactRepository { return r },
		func(q *redis.PendingQueue) repo.PendingQueue { return q },
		func(c *redis.FeedCache) repo.FeedCache { return c },
		func(q *rabbitmq.DispatchQueue) repo.DispatchQueue { return q },
		func(s *preferences.Source) repo.PreferenceSource { return s },

		// Service Layer
		preferences.NewSource,
		service.NewImagePrefetcher,
		service.NewScheduleService,
		service.NewFeedService,
	),
)

// APIModule defines the Fx module for the HTTP API application.
var APIModule = fx.Options(
	CommonModule, // Include all shared components
	fx.Provide(
		// API-specific components
		deliveryHTTP.NewHandlers,
		deliveryHTTP.NewServer,
	),

	fx.Invoke(func(server *deliveryHTTP.Server, feed *service.FeedService, lc fx.Lifecycle) {
		ctx, cancel := context.WithCancel(context.Background())
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go feed.Watch(ctx)
				go func() {
					if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						panic(err)
					}
				}()
				return nil
			},
			OnStop: func(stopCtx context.Context) error {
				cancel()
				return server.Shutdown(stopCtx)
			},
		})
	}),
)

// WorkerModule defines the Fx module for the background worker application.
// It runs the dispatch poller that fires due notifications and the consumer
// pool that delivers them.
var WorkerModule = fx.Options(
	CommonModule, // Include all shared components
	fx.Provide(
		// Worker-specific components
		notifiers.NewDispatcher,
		func(d *notifiers.Dispatcher) notifiers.Notifier { return d },
		dispatch.NewPoller,
		consumer.New,
	),
	fx.Invoke(func(poller *dispatch.Poller, consumer *consumer.Consumer, lc fx.Lifecycle) {
		ctx, cancel := context.WithCancel(context.Background())
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go poller.Start(ctx)
				go consumer.Start(ctx)
				return nil
			},
			OnStop: func(context.Context) error {
				cancel()
				return nil
			},
		})
	}),
)
