package notifiers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/ilindan-dev/fact-scheduler/internal/config"
	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
)

// TelegramNotifier delivers facts via a Telegram bot.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegramNotifier creates a new instance of TelegramNotifier.
func NewTelegramNotifier(cfg config.TelegramConfig, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot api: %w", err)
	}
	return &TelegramNotifier{
		bot:    bot,
		chatID: cfg.ChatID,
		logger: logger.With().Str("component", "telegram_notifier").Logger(),
	}, nil
}

// Send implements the Notifier interface for Telegram.
func (n *TelegramNotifier) Send(_ context.Context, f *model.Fact) error {
	fullMessage := fmt.Sprintf("*Did you know?*\n\n%s", f.Text)

	if f.ImageURL != nil {
		photo := tgbotapi.NewPhoto(n.chatID, tgbotapi.FileURL(*f.ImageURL))
		photo.Caption = f.Text
		if _, err := n.bot.Send(photo); err != nil {
			n.logger.Error().Err(err).Stringer("fact_id", f.ID).Msg("failed to send telegram photo")
			return err
		}
	} else {
		msg := tgbotapi.NewMessage(n.chatID, fullMessage)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error().Err(err).Stringer("fact_id", f.ID).Msg("failed to send telegram message")
			return err
		}
	}

	n.logger.Info().Stringer("fact_id", f.ID).Int64("chat_id", n.chatID).Msg("telegram message sent successfully")
	return nil
}
