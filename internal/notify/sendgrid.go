package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/linguahub/institute-api/pkg/config"
)

// SendgridSender dispatches transactional email through SendGrid.
type SendgridSender struct {
	apiKey      string
	fromAddress string
	fromName    string
}

// NewSendgridSender builds a sender from messaging config.
func NewSendgridSender(cfg config.MessagingConfig) *SendgridSender {
	return &SendgridSender{
		apiKey:      cfg.SendgridAPIKey,
		fromAddress: cfg.SendgridFromAddress,
		fromName:    cfg.SendgridFromName,
	}
}

// Configured reports whether credentials were supplied.
func (s *SendgridSender) Configured() bool {
	return s.apiKey != "" && s.fromAddress != ""
}

// SendEmail dispatches one plain-text email. Subject and body arrive already
// sanitized by the service layer.
func (s *SendgridSender) SendEmail(ctx context.Context, to, subject, body string) error {
	if !s.Configured() {
		return fmt.Errorf("sendgrid: not configured")
	}

	from := mail.NewEmail(s.fromName, s.fromAddress)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmailPlainText(from, subject, recipient, body)

	client := sendgrid.NewSendClient(s.apiKey)
	resp, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		detail := strings.TrimSpace(resp.Body)
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
