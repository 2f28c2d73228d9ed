package notifiers

import (
	"context"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/ilindan-dev/fact-scheduler/internal/config"
	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
)

// EmailNotifier delivers facts via SMTP.
type EmailNotifier struct {
	dialer *gomail.Dialer
	from   string
	to     string
	logger zerolog.Logger
}

// NewEmailNotifier creates a new instance of EmailNotifier.
func NewEmailNotifier(cfg config.EmailConfig, logger *zerolog.Logger) *EmailNotifier {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &EmailNotifier{
		dialer: d,
		from:   cfg.From,
		to:     cfg.To,
		logger: logger.With().Str("component", "email_notifier").Logger(),
	}
}

// Send implements the Notifier interface for email.
func (n *EmailNotifier) Send(_ context.Context, f *model.Fact) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to)
	m.SetHeader("Subject", "Did you know?")
	m.SetBody("text/plain", f.Text)

	// DialAndSend opens a connection, sends the email, and closes it.
	if err := n.dialer.DialAndSend(m); err != nil {
		n.logger.Error().Err(err).Stringer("fact_id", f.ID).Msg("failed to send email")
		return err
	}

	n.logger.Info().Stringer("fact_id", f.ID).Str("recipient", n.to).Msg("email sent successfully")
	return nil
}
