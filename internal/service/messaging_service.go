package service

import (
	"context"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/linguahub/institute-api/internal/models"
	"github.com/linguahub/institute-api/internal/notify"
	"github.com/linguahub/institute-api/pkg/config"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
)

// studentNamePlaceholder is substituted per recipient in bulk messages.
const studentNamePlaceholder = "{{ogrenci_adi}}"

// fallbackSalutation replaces the placeholder when no student name is known.
const fallbackSalutation = "Değerli Öğrenci"

// MessagingService dispatches SMS, WhatsApp and email through the configured
// providers. Bulk dispatch fans out concurrently and reports per-recipient
// outcomes; a failed recipient never fails the batch.
type MessagingService struct {
	sms         notify.SMSSender
	email       notify.EmailSender
	countryCode string
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewMessagingService constructs the messaging service.
func NewMessagingService(sms notify.SMSSender, email notify.EmailSender, cfg config.MessagingConfig, validate *validator.Validate, logger *zap.Logger) *MessagingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	countryCode := cfg.DefaultCountryCode
	if countryCode == "" {
		countryCode = "+90"
	}
	return &MessagingService{sms: sms, email: email, countryCode: countryCode, validator: validate, logger: logger}
}

// NormalizePhone converts local numbers to E.164 using the configured country
// code. A leading zero marks a local number; numbers already carrying a plus
// pass through with whitespace stripped.
func (s *MessagingService) NormalizePhone(raw string) string {
	phone := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '(' || r == ')' {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	switch {
	case strings.HasPrefix(phone, "+"):
		return phone
	case strings.HasPrefix(phone, "00"):
		return "+" + phone[2:]
	case strings.HasPrefix(phone, "0"):
		return s.countryCode + phone[1:]
	default:
		return s.countryCode + phone
	}
}

// SendSMS dispatches one SMS.
func (s *MessagingService) SendSMS(ctx context.Context, req models.SMSRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sms payload")
	}
	if s.sms == nil || !s.sms.Configured() {
		return "", appErrors.ErrProviderUnavailable
	}

	sid, err := s.sms.SendSMS(ctx, s.NormalizePhone(req.To), req.Message)
	if err != nil {
		s.logger.Error("sms dispatch failed", zap.Error(err))
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send sms")
	}
	return sid, nil
}

// SendWhatsApp dispatches one WhatsApp message.
func (s *MessagingService) SendWhatsApp(ctx context.Context, req models.SMSRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid whatsapp payload")
	}
	if s.sms == nil || !s.sms.Configured() {
		return "", appErrors.ErrProviderUnavailable
	}

	sid, err := s.sms.SendWhatsApp(ctx, s.NormalizePhone(req.To), req.Message)
	if err != nil {
		s.logger.Error("whatsapp dispatch failed", zap.Error(err))
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send whatsapp message")
	}
	return sid, nil
}

// SendBulk dispatches a templated message to up to 100 recipients
// concurrently. The summary reports per-recipient outcomes; partial failure is
// data, not an error.
func (s *MessagingService) SendBulk(ctx context.Context, req models.BulkSMSRequest) (*models.BulkSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	if s.sms == nil || !s.sms.Configured() {
		return nil, appErrors.ErrProviderUnavailable
	}

	results := make([]models.SendResult, len(req.Recipients))
	var wg sync.WaitGroup
	for i, recipient := range req.Recipients {
		wg.Add(1)
		go func(i int, recipient models.BulkRecipient) {
			defer wg.Done()
			body := s.renderTemplate(req.Message, recipient.StudentName)
			to := s.NormalizePhone(recipient.Phone)

			var sid string
			var err error
			if req.Channel == "whatsapp" {
				sid, err = s.sms.SendWhatsApp(ctx, to, body)
			} else {
				sid, err = s.sms.SendSMS(ctx, to, body)
			}

			result := models.SendResult{Phone: recipient.Phone}
			if err != nil {
				result.Error = err.Error()
			} else {
				result.Success = true
				result.MessageID = sid
			}
			results[i] = result
		}(i, recipient)
	}
	wg.Wait()

	summary := &models.BulkSummary{Total: len(results), Results: results}
	for _, r := range results {
		if r.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	s.logger.Info("bulk dispatch finished",
		zap.Int("total", summary.Total),
		zap.Int("successful", summary.Successful),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// defaultEmailSubject is used when the caller sends no subject.
const defaultEmailSubject = "Kurum Bilgilendirme"

// SendEmail dispatches one transactional email. The student-name placeholder
// is rendered before sending, and angle brackets are stripped from the subject
// and body to keep injected markup out of provider templates.
func (s *MessagingService) SendEmail(ctx context.Context, req models.EmailRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid email payload")
	}
	if s.email == nil || !s.email.Configured() {
		return appErrors.ErrProviderUnavailable
	}

	subject := sanitizeText(strings.TrimSpace(req.Subject))
	if subject == "" {
		subject = defaultEmailSubject
	}
	body := sanitizeText(s.renderTemplate(req.Message, req.StudentName))
	if err := s.email.SendEmail(ctx, req.To, subject, body); err != nil {
		s.logger.Error("email dispatch failed", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send email")
	}
	return nil
}

func (s *MessagingService) renderTemplate(message, studentName string) string {
	name := strings.TrimSpace(studentName)
	if name == "" {
		name = fallbackSalutation
	}
	return strings.ReplaceAll(message, studentNamePlaceholder, name)
}

func sanitizeText(text string) string {
	return strings.NewReplacer("<", "", ">", "").Replace(text)
}
