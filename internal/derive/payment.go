package derive

import (
	"time"

	"github.com/linguahub/institute-api/internal/models"
)

// IsOverdue classifies a payment at read time: pending past its due date.
// Terminal statuses are never reclassified regardless of date.
func IsOverdue(p models.Payment, now time.Time) bool {
	if p.Status == models.PaymentOverdue {
		return true
	}
	return p.Status == models.PaymentPending && p.DueDate.Before(now)
}

// OverduePayments returns the overdue subset.
func OverduePayments(payments []models.Payment, now time.Time) []models.Payment {
	var out []models.Payment
	for _, p := range payments {
		if IsOverdue(p, now) {
			out = append(out, p)
		}
	}
	return out
}

// PendingPayments returns payments still pending and not yet past due.
func PendingPayments(payments []models.Payment, now time.Time) []models.Payment {
	var out []models.Payment
	for _, p := range payments {
		if p.Status == models.PaymentPending && !IsOverdue(p, now) {
			out = append(out, p)
		}
	}
	return out
}

// PaymentTotals folds the collection into the tenant's financial summary.
func PaymentTotals(payments []models.Payment, now time.Time) models.PaymentSummary {
	var summary models.PaymentSummary
	for _, p := range payments {
		switch {
		case p.Status == models.PaymentPaid:
			summary.PaidSum += p.Amount
		case IsOverdue(p, now):
			summary.OverdueSum += p.Amount
			summary.OverdueCount++
		case p.Status == models.PaymentPending:
			summary.PendingSum += p.Amount
			summary.PendingCount++
		}
	}
	return summary
}
