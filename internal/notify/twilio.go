package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/linguahub/institute-api/pkg/config"
)

// TwilioSender dispatches SMS and WhatsApp messages through the Twilio REST
// API. A sender built from empty credentials reports unconfigured and the
// handlers answer 503 instead of calling out.
type TwilioSender struct {
	client       *twilio.RestClient
	fromNumber   string
	whatsAppFrom string
	configured   bool
}

// NewTwilioSender builds a sender from messaging config.
func NewTwilioSender(cfg config.MessagingConfig) *TwilioSender {
	configured := cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioPhoneNumber != ""
	var client *twilio.RestClient
	if configured {
		client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
	}
	return &TwilioSender{
		client:       client,
		fromNumber:   cfg.TwilioPhoneNumber,
		whatsAppFrom: cfg.TwilioWhatsAppFrom,
		configured:   configured,
	}
}

// Configured reports whether credentials were supplied.
func (s *TwilioSender) Configured() bool {
	return s.configured
}

// SendSMS dispatches one SMS and returns the message SID.
func (s *TwilioSender) SendSMS(_ context.Context, to, body string) (string, error) {
	return s.send(to, s.fromNumber, body)
}

// SendWhatsApp dispatches one WhatsApp message and returns the message SID.
// Twilio addresses WhatsApp endpoints with a channel prefix on both sides.
func (s *TwilioSender) SendWhatsApp(_ context.Context, to, body string) (string, error) {
	from := s.whatsAppFrom
	if from == "" {
		from = s.fromNumber
	}
	return s.send("whatsapp:"+to, "whatsapp:"+from, body)
}

func (s *TwilioSender) send(to, from, body string) (string, error) {
	if !s.configured {
		return "", fmt.Errorf("twilio: not configured")
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("twilio send: %w", err)
	}
	if resp.Sid == nil {
		return "", fmt.Errorf("twilio send: missing message sid")
	}
	return *resp.Sid, nil
}
