// Package notify wraps the outbound messaging providers behind small
// interfaces so the service layer can be tested without network calls.
package notify

import "context"

// SMSSender dispatches a single SMS or WhatsApp message and returns the
// provider's message SID.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
	SendWhatsApp(ctx context.Context, to, body string) (string, error)
	Configured() bool
}

// EmailSender dispatches one transactional email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	Configured() bool
}
