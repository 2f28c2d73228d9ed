package notifiers

import (
	"context"

	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
)

// Notifier defines the interface for any fact delivery channel.
// This allows us to easily swap or add new channels (e.g., SMS, Slack).
type Notifier interface {
	// Send delivers the fact to the user.
	Send(ctx context.Context, f *model.Fact) error
}
