package notifiers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ilindan-dev/fact-scheduler/internal/config"
	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
)

// Dispatcher is a composite notifier that routes facts to the configured
// delivery channel. It implements the Notifier interface itself.
type Dispatcher struct {
	notifiers map[string]Notifier
	channel   string
	logger    zerolog.Logger
}

// NewDispatcher creates a new Dispatcher and initializes channel-specific notifiers
// based on the application's configuration mode.
func NewDispatcher(cfg *config.Config, logger *zerolog.Logger) (*Dispatcher, error) {
	log := logger.With().Str("component", "dispatcher").Logger()
	log.Info().Str("mode", cfg.Notifiers.Mode).Str("channel", cfg.Notifiers.Channel).Msg("initializing notifiers")

	notifiersMap := make(map[string]Notifier)
	// Create the LogNotifier once to use as a fallback.
	logNotifier := NewLogNotifier(logger)

	// Set LogNotifier as the default for all channels.
	notifiersMap["log"] = logNotifier
	notifiersMap["email"] = logNotifier
	notifiersMap["telegram"] = logNotifier

	// If in "production" mode, try to override the defaults with real notifiers.
	if cfg.Notifiers.Mode == "production" {
		if cfg.Notifiers.Email.Host != "" {
			notifiersMap["email"] = NewEmailNotifier(cfg.Notifiers.Email, logger)
			log.Info().Msg("email notifier enabled")
		}
		if cfg.Notifiers.Telegram.BotToken != "" {
			tgNotifier, err := NewTelegramNotifier(cfg.Notifiers.Telegram, logger)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize telegram notifier: %w", err)
			}
			notifiersMap["telegram"] = tgNotifier
			log.Info().Msg("telegram notifier enabled")
		}
	}

	return &Dispatcher{
		notifiers: notifiersMap,
		channel:   cfg.Notifiers.Channel,
		logger:    log,
	}, nil
}

// Send implements the Notifier interface. It finds the notifier for the
// configured channel and delegates the send operation to it.
func (d *Dispatcher) Send(ctx context.Context, f *model.Fact) error {
	notifier, ok := d.notifiers[d.channel]
	if !ok {
		d.logger.Error().Str("channel", d.channel).Msg("no notifier found for channel")
		return fmt.Errorf("notifier for channel %s not found", d.channel)
	}

	return notifier.Send(ctx, f)
}
