package services

import (
	"context"
	"fmt"
	"net/http"

	"practice-journal-api/internal/config"
	"practice-journal-api/pkg/logging"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// Message is a single transactional email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// BrevoService sends email through the Brevo transactional API
type BrevoService struct {
	api       *brevo.APIClient
	fromEmail string
	fromName  string
}

// NewBrevoService creates a Brevo sender from config
func NewBrevoService(cfg config.Brevo) *BrevoService {
	bc := brevo.NewConfiguration()
	bc.AddDefaultHeader("api-key", cfg.APIKey)
	return &BrevoService{
		api:       brevo.NewAPIClient(bc),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

func (s *BrevoService) Send(ctx context.Context, msg Message) error {
	to := brevo.SendSmtpEmailTo{Email: msg.To, Name: msg.ToName}
	_, resp, err := s.api.TransactionalEmailsApi.SendTransacEmail(ctx, brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  s.fromName,
			Email: s.fromEmail,
		},
		To:          []brevo.SendSmtpEmailTo{to},
		Subject:     msg.Subject,
		HtmlContent: msg.HTML,
		TextContent: msg.Text,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp != nil && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("brevo API error: status %d", resp.StatusCode)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. It is used
// when no Brevo API key is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	logging.Logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("text", msg.Text).
		Msg("Email not sent, no provider configured")
	return nil
}

// NewSender picks Brevo when an API key is set.
func NewSender(cfg config.Brevo) Sender {
	if cfg.APIKey == "" {
		logging.Warnf("BREVO_API_KEY not set, emails will only be logged")
		return LogSender{}
	}
	return NewBrevoService(cfg)
}
