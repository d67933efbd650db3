package derive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/linguahub/institute-api/internal/models"
)

func payment(status models.PaymentStatus, amount float64, dueDate time.Time) models.Payment {
	return models.Payment{
		ID:            "pay-1",
		InstitutionID: "inst-1",
		StudentID:     "stu-1",
		EnrollmentID:  "enr-1",
		Amount:        amount,
		DueDate:       dueDate,
		Status:        status,
	}
}

func TestIsOverdueClassifiesPendingPastDue(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, IsOverdue(payment(models.PaymentPending, 100, now.AddDate(0, 0, -1)), now))
	assert.False(t, IsOverdue(payment(models.PaymentPending, 100, now.AddDate(0, 0, 1)), now))
	assert.True(t, IsOverdue(payment(models.PaymentOverdue, 100, now.AddDate(0, 0, 5)), now))
}

func TestIsOverdueNeverReclassifiesTerminal(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	longPast := now.AddDate(0, -6, 0)
	assert.False(t, IsOverdue(payment(models.PaymentPaid, 100, longPast), now))
	assert.False(t, IsOverdue(payment(models.PaymentCancelled, 100, longPast), now))
}

func TestPaymentTotals(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	payments := []models.Payment{
		payment(models.PaymentPaid, 500, now.AddDate(0, 0, -30)),
		payment(models.PaymentPaid, 250, now.AddDate(0, 0, -10)),
		payment(models.PaymentPending, 100, now.AddDate(0, 0, 10)),
		payment(models.PaymentPending, 80, now.AddDate(0, 0, -2)),
		payment(models.PaymentOverdue, 40, now.AddDate(0, 0, -20)),
		payment(models.PaymentCancelled, 999, now.AddDate(0, 0, -20)),
	}

	summary := PaymentTotals(payments, now)
	assert.Equal(t, 750.0, summary.PaidSum)
	assert.Equal(t, 100.0, summary.PendingSum)
	assert.Equal(t, 120.0, summary.OverdueSum)
	assert.Equal(t, 1, summary.PendingCount)
	assert.Equal(t, 2, summary.OverdueCount)
}
