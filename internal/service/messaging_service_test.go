package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguahub/institute-api/internal/models"
	"github.com/linguahub/institute-api/pkg/config"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
)

type fakeSMSSender struct {
	mu         sync.Mutex
	sent       map[string]string
	failPhones map[string]bool
	configured bool
	whatsApp   bool
}

func (f *fakeSMSSender) SendSMS(_ context.Context, to, body string) (string, error) {
	return f.record(to, body)
}

func (f *fakeSMSSender) SendWhatsApp(_ context.Context, to, body string) (string, error) {
	f.mu.Lock()
	f.whatsApp = true
	f.mu.Unlock()
	return f.record(to, body)
}

func (f *fakeSMSSender) Configured() bool { return f.configured }

func (f *fakeSMSSender) record(to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPhones[to] {
		return "", fmt.Errorf("provider rejected %s", to)
	}
	if f.sent == nil {
		f.sent = make(map[string]string)
	}
	f.sent[to] = body
	return "SM" + to, nil
}

type fakeEmailSender struct {
	to, subject, body string
	configured        bool
}

func (f *fakeEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	f.to, f.subject, f.body = to, subject, body
	return nil
}

func (f *fakeEmailSender) Configured() bool { return f.configured }

func newMessagingFixture(sms *fakeSMSSender, email *fakeEmailSender) *MessagingService {
	return NewMessagingService(sms, email, config.MessagingConfig{DefaultCountryCode: "+90"}, nil, nil)
}

func TestNormalizePhone(t *testing.T) {
	svc := newMessagingFixture(&fakeSMSSender{configured: true}, nil)

	assert.Equal(t, "+905551112233", svc.NormalizePhone("05551112233"))
	assert.Equal(t, "+905551112233", svc.NormalizePhone("0555 111 22 33"))
	assert.Equal(t, "+905551112233", svc.NormalizePhone("+90 555 111 22 33"))
	assert.Equal(t, "+445551112233", svc.NormalizePhone("00445551112233"))
	assert.Equal(t, "+905551112233", svc.NormalizePhone("5551112233"))
}

func TestSendSMSRequiresConfiguredProvider(t *testing.T) {
	svc := newMessagingFixture(&fakeSMSSender{configured: false}, nil)

	_, err := svc.SendSMS(context.Background(), models.SMSRequest{To: "05551112233", Message: "hello"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrProviderUnavailable.Code, appErrors.FromError(err).Code)
}

func TestSendSMSNormalizesRecipient(t *testing.T) {
	sms := &fakeSMSSender{configured: true}
	svc := newMessagingFixture(sms, nil)

	sid, err := svc.SendSMS(context.Background(), models.SMSRequest{To: "05551112233", Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "SM+905551112233", sid)
	assert.Equal(t, "hello", sms.sent["+905551112233"])
}

func TestSendBulkReportsPartialFailure(t *testing.T) {
	sms := &fakeSMSSender{
		configured: true,
		failPhones: map[string]bool{"+905550000002": true},
	}
	svc := newMessagingFixture(sms, nil)

	summary, err := svc.SendBulk(context.Background(), models.BulkSMSRequest{
		Message: "Merhaba {{ogrenci_adi}}, kaydınız yenilendi.",
		Channel: "sms",
		Recipients: []models.BulkRecipient{
			{Phone: "05550000001", StudentName: "Ada Lovelace"},
			{Phone: "05550000002", StudentName: "Grace Hopper"},
			{Phone: "05550000003"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Results, 3)

	// Results keep request order regardless of dispatch interleaving.
	assert.True(t, summary.Results[0].Success)
	assert.False(t, summary.Results[1].Success)
	assert.NotEmpty(t, summary.Results[1].Error)
	assert.True(t, summary.Results[2].Success)

	assert.Equal(t, "Merhaba Ada Lovelace, kaydınız yenilendi.", sms.sent["+905550000001"])
	assert.Equal(t, "Merhaba Değerli Öğrenci, kaydınız yenilendi.", sms.sent["+905550000003"])
}

func TestSendBulkOverWhatsAppChannel(t *testing.T) {
	sms := &fakeSMSSender{configured: true}
	svc := newMessagingFixture(sms, nil)

	summary, err := svc.SendBulk(context.Background(), models.BulkSMSRequest{
		Message:    "ders iptal",
		Channel:    "whatsapp",
		Recipients: []models.BulkRecipient{{Phone: "05550000001"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Successful)
	assert.True(t, sms.whatsApp)
}

func TestSendBulkRejectsOversizedBatch(t *testing.T) {
	svc := newMessagingFixture(&fakeSMSSender{configured: true}, nil)

	recipients := make([]models.BulkRecipient, 101)
	for i := range recipients {
		recipients[i] = models.BulkRecipient{Phone: "05550000001"}
	}
	_, err := svc.SendBulk(context.Background(), models.BulkSMSRequest{Message: "x", Channel: "sms", Recipients: recipients})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSendBulkRequiresChannel(t *testing.T) {
	svc := newMessagingFixture(&fakeSMSSender{configured: true}, nil)

	_, err := svc.SendBulk(context.Background(), models.BulkSMSRequest{
		Message:    "ders iptal",
		Recipients: []models.BulkRecipient{{Phone: "05550000001"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.SendBulk(context.Background(), models.BulkSMSRequest{
		Message:    "ders iptal",
		Channel:    "fax",
		Recipients: []models.BulkRecipient{{Phone: "05550000001"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSendEmailStripsAngleBrackets(t *testing.T) {
	email := &fakeEmailSender{configured: true}
	svc := newMessagingFixture(nil, email)

	err := svc.SendEmail(context.Background(), models.EmailRequest{
		To:      "parent@example.com",
		Subject: "Ödeme <hatırlatma>",
		Message: "Sayın veli, <script>alert(1)</script> ödemeniz gecikti.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ödeme hatırlatma", email.subject)
	assert.Equal(t, "Sayın veli, scriptalert(1)/script ödemeniz gecikti.", email.body)
}

func TestSendEmailRendersStudentNameAndDefaultSubject(t *testing.T) {
	email := &fakeEmailSender{configured: true}
	svc := newMessagingFixture(nil, email)

	err := svc.SendEmail(context.Background(), models.EmailRequest{
		To:          "parent@example.com",
		Message:     "Sayın veli, {{ogrenci_adi}} için ödeme hatırlatması.",
		StudentName: "Ada Lovelace",
	})
	require.NoError(t, err)
	assert.Equal(t, "Kurum Bilgilendirme", email.subject)
	assert.Equal(t, "Sayın veli, Ada Lovelace için ödeme hatırlatması.", email.body)
}
