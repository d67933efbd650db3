package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/linguahub/institute-api/internal/models"
)

// PaymentRepository manages persistence for payment installments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// List returns payments matching the provided filters.
func (r *PaymentRepository) List(ctx context.Context, institutionID string, filter models.PaymentFilter) ([]models.Payment, int, error) {
	base := "FROM payments"
	args := []interface{}{institutionID}
	conditions := []string{"institution_id = $1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.EnrollmentID != "" {
		conditions = append(conditions, fmt.Sprintf("enrollment_id = $%d", len(args)+1))
		args = append(args, filter.EnrollmentID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, institution_id, student_id, enrollment_id, amount, due_date, paid_date, status, method, notes, created_at
        %s ORDER BY due_date ASC LIMIT %d OFFSET %d`, base, size, offset)

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// ListAll returns every payment in the tenant, for snapshot loads, summaries
// and exports.
func (r *PaymentRepository) ListAll(ctx context.Context, institutionID string) ([]models.Payment, error) {
	const query = `SELECT id, institution_id, student_id, enrollment_id, amount, due_date, paid_date, status, method, notes, created_at
        FROM payments WHERE institution_id = $1 ORDER BY due_date ASC`
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, institutionID); err != nil {
		return nil, fmt.Errorf("list all payments: %w", err)
	}
	return payments, nil
}

// FindByID fetches a payment within the tenant scope.
func (r *PaymentRepository) FindByID(ctx context.Context, institutionID, id string) (*models.Payment, error) {
	const query = `SELECT id, institution_id, student_id, enrollment_id, amount, due_date, paid_date, status, method, notes, created_at
        FROM payments WHERE institution_id = $1 AND id = $2`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, institutionID, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Create inserts a new payment in pending status.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO payments (id, institution_id, student_id, enrollment_id, amount, due_date, paid_date, status, method, notes, created_at)
        VALUES (:id, :institution_id, :student_id, :enrollment_id, :amount, :due_date, :paid_date, :status, :method, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// MarkPaid settles a payment. Only pending and overdue rows transition;
// returns false when the payment was already terminal.
func (r *PaymentRepository) MarkPaid(ctx context.Context, institutionID, id string, paidDate time.Time, method models.PaymentMethod) (bool, error) {
	const query = `UPDATE payments SET status = $3, paid_date = $4, method = $5
        WHERE institution_id = $1 AND id = $2 AND status IN ($6, $7)`
	res, err := r.db.ExecContext(ctx, query, institutionID, id,
		models.PaymentPaid, paidDate.UTC(), method, models.PaymentPending, models.PaymentOverdue)
	if err != nil {
		return false, fmt.Errorf("mark payment paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark payment paid: %w", err)
	}
	return affected == 1, nil
}

// Cancel voids a payment. Paid rows stay paid; returns false when no
// transition happened.
func (r *PaymentRepository) Cancel(ctx context.Context, institutionID, id string) (bool, error) {
	const query = `UPDATE payments SET status = $3
        WHERE institution_id = $1 AND id = $2 AND status IN ($4, $5)`
	res, err := r.db.ExecContext(ctx, query, institutionID, id,
		models.PaymentCancelled, models.PaymentPending, models.PaymentOverdue)
	if err != nil {
		return false, fmt.Errorf("cancel payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancel payment: %w", err)
	}
	return affected == 1, nil
}

// Update rewrites the mutable fields of an open payment. Paid and cancelled
// rows are left untouched; returns false when no row transitioned.
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) (bool, error) {
	const query = `UPDATE payments SET amount = $3, due_date = $4, notes = $5
        WHERE institution_id = $1 AND id = $2 AND status IN ($6, $7)`
	res, err := r.db.ExecContext(ctx, query, payment.InstitutionID, payment.ID,
		payment.Amount, payment.DueDate.UTC(), payment.Notes,
		models.PaymentPending, models.PaymentOverdue)
	if err != nil {
		return false, fmt.Errorf("update payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update payment: %w", err)
	}
	return affected == 1, nil
}

// ReconcileOverdue flips pending payments past their due date to overdue.
// Returns the number of rows reclassified.
func (r *PaymentRepository) ReconcileOverdue(ctx context.Context, institutionID string, now time.Time) (int64, error) {
	const query = `UPDATE payments SET status = $2
        WHERE institution_id = $1 AND status = $3 AND due_date < $4`
	res, err := r.db.ExecContext(ctx, query, institutionID,
		models.PaymentOverdue, models.PaymentPending, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("reconcile overdue payments: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reconcile overdue payments: %w", err)
	}
	return affected, nil
}

// DeleteByStudent removes all of a student's payments. Runs as part of the
// student delete cascade.
func (r *PaymentRepository) DeleteByStudent(ctx context.Context, institutionID, studentID string) error {
	const query = `DELETE FROM payments WHERE institution_id = $1 AND student_id = $2`
	if _, err := r.db.ExecContext(ctx, query, institutionID, studentID); err != nil {
		return fmt.Errorf("delete payments by student: %w", err)
	}
	return nil
}

// Delete removes a payment.
func (r *PaymentRepository) Delete(ctx context.Context, institutionID, id string) error {
	const query = `DELETE FROM payments WHERE institution_id = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, institutionID, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}
