// Package mail delivers rendered notification mails through SendGrid,
// plain SMTP, or the log when no provider is configured.
package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/iliyamo/taxischool/internal/config"
)

// Message is a single outgoing mail.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New picks SendGrid when an API key is set, SMTP when a host is set,
// and the log sender otherwise.
func New(cfg config.MailConfig, log *zap.Logger) Sender {
	switch {
	case cfg.SendgridAPIKey != "":
		return NewSendGrid(cfg.SendgridAPIKey, cfg.From, cfg.FromName)
	case cfg.SMTPHost != "":
		return NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.From)
	}
	return NewLog(log)
}

// LogSender writes mails to the logger instead of sending them.
type LogSender struct {
	log *zap.Logger
}

// NewLog returns a Sender that only logs messages.
func NewLog(log *zap.Logger) *LogSender { return &LogSender{log: log} }

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("mail (not sent)", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
