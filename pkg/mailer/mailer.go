// Package mailer sends report emails through Resend.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("mail delivery is not configured")

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is an outgoing email.
type Message struct {
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers messages.
type Mailer struct {
	client *resend.Client
	from   string
	logger *slog.Logger
}

// New creates a mailer. An empty API key yields a mailer that refuses to send.
func New(apiKey, from string, logger *slog.Logger) *Mailer {
	var client *resend.Client
	if apiKey != "" {
		client = resend.NewClient(apiKey)
	}
	return &Mailer{client: client, from: from, logger: logger}
}

// Send delivers msg and returns the provider message ID.
func (m *Mailer) Send(ctx context.Context, msg Message) (string, error) {
	if m.client == nil {
		m.logger.Warn("resend client not configured, skipping email", slog.Int("recipients", len(msg.To)))
		return "", ErrNotConfigured
	}
	if len(msg.To) == 0 {
		return "", errors.New("message has no recipients")
	}

	req := &resend.SendEmailRequest{
		From:    m.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Content:     a.Content,
		})
	}

	sent, err := m.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("email sent",
		slog.String("id", sent.Id),
		slog.Int("recipients", len(msg.To)),
		slog.Int("attachments", len(msg.Attachments)),
	)
	return sent.Id, nil
}
