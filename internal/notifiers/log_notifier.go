package notifiers

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
)

// LogNotifier is a mock notifier that implements the Notifier interface.
// It simply logs the fact details to the console instead of delivering them
// through a real channel. This is extremely useful for development and testing.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a new instance of LogNotifier.
func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{
		logger: logger.With().Str("component", "log_notifier").Logger(),
	}
}

// Send implements the Notifier interface.
func (n *LogNotifier) Send(_ context.Context, f *model.Fact) error {
	n.logger.Info().
		Stringer("fact_id", f.ID).
		Str("language", f.Language).
		Str("category", f.Category).
		Str("text", f.Text).
		Msg(">>> MOCK SEND: Fact delivered")

	return nil
}
