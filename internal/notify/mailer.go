// Package notify sends backer emails.
package notify

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v3"
	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// mailgunClient is the subset of mailgun.Mailgun used here.
type mailgunClient interface {
	NewMessage(from, subject, text string, to ...string) *mailgun.Message
	Send(ctx context.Context, m *mailgun.Message) (string, string, error)
}

type MailgunMailer struct {
	client mailgunClient
	sender string
	logger *zap.Logger
}

func NewMailgunMailer(domain, apiKey, sender string, logger *zap.Logger) *MailgunMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailgunMailer{client: mailgun.NewMailgun(domain, apiKey), sender: sender, logger: logger}
}

func (m *MailgunMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("notify: recipient is required")
	}
	message := m.client.NewMessage(m.sender, msg.Subject, msg.Body, msg.To)
	resp, id, err := m.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("notify: mailgun send: %w", err)
	}
	m.logger.Debug("mail sent", zap.String("id", id), zap.String("response", resp))
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	Logger *zap.Logger
}

func (m LogMailer) Send(_ context.Context, msg Message) error {
	logger := m.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("mail (not sent)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_len", len(msg.Body)))
	return nil
}

var (
	_ Mailer = (*MailgunMailer)(nil)
	_ Mailer = LogMailer{}
)
