package models

import "time"

// PaymentStatus enumerates payment states. Pending rows past their due date
// are reconciled to overdue at load time; paid and cancelled are terminal and
// are never overwritten by the overdue check.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentOverdue   PaymentStatus = "overdue"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Terminal reports whether the status admits no further transition.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentPaid || s == PaymentCancelled
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentOverdue, PaymentCancelled:
		return true
	}
	return false
}

// PaymentMethod records how a payment was settled.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodOther    PaymentMethod = "other"
)

// Payment tracks one installment owed by a student for an enrollment.
type Payment struct {
	ID            string         `db:"id" json:"id"`
	InstitutionID string         `db:"institution_id" json:"institution_id"`
	StudentID     string         `db:"student_id" json:"student_id"`
	EnrollmentID  string         `db:"enrollment_id" json:"enrollment_id"`
	Amount        float64        `db:"amount" json:"amount"`
	DueDate       time.Time      `db:"due_date" json:"due_date"`
	PaidDate      *time.Time     `db:"paid_date" json:"paid_date,omitempty"`
	Status        PaymentStatus  `db:"status" json:"status"`
	Method        *PaymentMethod `db:"method" json:"method,omitempty"`
	Notes         *string        `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	StudentID    string
	EnrollmentID string
	Status       *PaymentStatus
	Page         int
	PageSize     int
}

// PaymentSummary aggregates financial totals for the tenant.
type PaymentSummary struct {
	PaidSum      float64 `json:"paid_sum"`
	PendingSum   float64 `json:"pending_sum"`
	OverdueSum   float64 `json:"overdue_sum"`
	PendingCount int     `json:"pending_count"`
	OverdueCount int     `json:"overdue_count"`
}
