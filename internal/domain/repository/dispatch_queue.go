package repository

import (
	"context"
	"time"

	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
)

// DispatchQueue is the broker-side delivery queue. Due notifications popped
// from the pending registry are published here and picked up by the consumer
// worker pool.
type DispatchQueue interface {
	// Publish hands a due notification to the delivery workers.
	Publish(ctx context.Context, msg *model.DeliveryMessage) error

	// PublishRetry re-enqueues a failed delivery after the given delay.
	PublishRetry(ctx context.Context, msg *model.DeliveryMessage, retryDelay time.Duration) error
}
