package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/linguahub/institute-api/internal/derive"
	"github.com/linguahub/institute-api/internal/models"
	"github.com/linguahub/institute-api/internal/store"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
)

type paymentRepository interface {
	List(ctx context.Context, institutionID string, filter models.PaymentFilter) ([]models.Payment, int, error)
	ListAll(ctx context.Context, institutionID string) ([]models.Payment, error)
	FindByID(ctx context.Context, institutionID, id string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) (bool, error)
	MarkPaid(ctx context.Context, institutionID, id string, paidDate time.Time, method models.PaymentMethod) (bool, error)
	Cancel(ctx context.Context, institutionID, id string) (bool, error)
	ReconcileOverdue(ctx context.Context, institutionID string, now time.Time) (int64, error)
	Delete(ctx context.Context, institutionID, id string) error
}

type enrollmentFinder interface {
	FindByID(ctx context.Context, institutionID, id string) (*models.Enrollment, error)
}

// CreatePaymentRequest holds payload for recording an installment.
type CreatePaymentRequest struct {
	StudentID    string    `json:"student_id" validate:"required"`
	EnrollmentID string    `json:"enrollment_id" validate:"required"`
	Amount       float64   `json:"amount" validate:"required,gt=0"`
	DueDate      time.Time `json:"due_date" validate:"required"`
	Notes        *string   `json:"notes"`
}

// UpdatePaymentRequest holds payload for amending an open installment.
type UpdatePaymentRequest struct {
	Amount  float64   `json:"amount" validate:"required,gt=0"`
	DueDate time.Time `json:"due_date" validate:"required"`
	Notes   *string   `json:"notes"`
}

// MarkPaidRequest holds payload for settling an installment.
type MarkPaidRequest struct {
	Method   models.PaymentMethod `json:"method" validate:"required,oneof=cash card transfer other"`
	PaidDate *time.Time           `json:"paid_date"`
}

// PaymentService handles the payment lifecycle. Listing reconciles pending
// rows past their due date into overdue before returning, so stored state
// converges with the date-derived truth.
type PaymentService struct {
	repo        paymentRepository
	enrollments enrollmentFinder
	stores      *store.Set
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewPaymentService constructs the payment service.
func NewPaymentService(repo paymentRepository, enrollments enrollmentFinder, stores *store.Set, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, enrollments: enrollments, stores: stores, validator: validate, logger: logger, now: time.Now}
}

// Create records a pending installment against an enrollment.
func (s *PaymentService) Create(ctx context.Context, institutionID string, req CreatePaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	enrollment, err := s.enrollments.FindByID(ctx, institutionID, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.StudentID != req.StudentID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment does not belong to student")
	}

	payment := &models.Payment{
		InstitutionID: institutionID,
		StudentID:     req.StudentID,
		EnrollmentID:  req.EnrollmentID,
		Amount:        req.Amount,
		DueDate:       req.DueDate.UTC(),
		Status:        models.PaymentPending,
		Notes:         req.Notes,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}

	s.invalidate(ctx, institutionID)
	return payment, nil
}

// List reconciles overdue state and returns payments with pagination metadata.
func (s *PaymentService) List(ctx context.Context, institutionID string, filter models.PaymentFilter) ([]models.Payment, *models.Pagination, error) {
	if err := s.reconcile(ctx, institutionID); err != nil {
		return nil, nil, err
	}

	payments, total, err := s.repo.List(ctx, institutionID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return payments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one payment.
func (s *PaymentService) Get(ctx context.Context, institutionID, id string) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, institutionID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

// Update amends the amount, due date and notes of an open payment. Paid and
// cancelled rows are refused.
func (s *PaymentService) Update(ctx context.Context, institutionID, id string, req UpdatePaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	payment, err := s.Get(ctx, institutionID, id)
	if err != nil {
		return nil, err
	}
	if payment.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payment already finalized")
	}

	payment.Amount = req.Amount
	payment.DueDate = req.DueDate.UTC()
	payment.Notes = req.Notes
	ok, err := s.repo.Update(ctx, payment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payment already finalized")
	}

	s.invalidate(ctx, institutionID)
	return payment, nil
}

// MarkPaid settles a pending or overdue payment. Paid and cancelled rows are
// refused.
func (s *PaymentService) MarkPaid(ctx context.Context, institutionID, id string, req MarkPaidRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	payment, err := s.Get(ctx, institutionID, id)
	if err != nil {
		return nil, err
	}
	if payment.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payment already finalized")
	}

	paidDate := s.now().UTC()
	if req.PaidDate != nil {
		paidDate = req.PaidDate.UTC()
	}
	ok, err := s.repo.MarkPaid(ctx, institutionID, id, paidDate, req.Method)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to settle payment")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payment already finalized")
	}

	payment.Status = models.PaymentPaid
	payment.PaidDate = &paidDate
	payment.Method = &req.Method
	s.invalidate(ctx, institutionID)
	return payment, nil
}

// Cancel voids a pending or overdue payment.
func (s *PaymentService) Cancel(ctx context.Context, institutionID, id string) (*models.Payment, error) {
	payment, err := s.Get(ctx, institutionID, id)
	if err != nil {
		return nil, err
	}
	if payment.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payment already finalized")
	}

	ok, err := s.repo.Cancel(ctx, institutionID, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel payment")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payment already finalized")
	}

	payment.Status = models.PaymentCancelled
	s.invalidate(ctx, institutionID)
	return payment, nil
}

// Delete removes a payment record outright. Kept for correcting entry
// mistakes; settled history worth keeping should be cancelled instead.
func (s *PaymentService) Delete(ctx context.Context, institutionID, id string) error {
	if _, err := s.Get(ctx, institutionID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, institutionID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment")
	}
	s.invalidate(ctx, institutionID)
	return nil
}

// OutstandingPayments groups the open ledger rows for follow-up.
type OutstandingPayments struct {
	Overdue []models.Payment `json:"overdue"`
	Pending []models.Payment `json:"pending"`
}

// Outstanding returns the overdue and still-pending sets, classified against
// the current date.
func (s *PaymentService) Outstanding(ctx context.Context, institutionID string) (*OutstandingPayments, error) {
	if err := s.reconcile(ctx, institutionID); err != nil {
		return nil, err
	}
	payments, err := s.repo.ListAll(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}
	now := s.now()
	return &OutstandingPayments{
		Overdue: derive.OverduePayments(payments, now),
		Pending: derive.PendingPayments(payments, now),
	}, nil
}

// Summary reconciles overdue state and returns the tenant's financial totals.
func (s *PaymentService) Summary(ctx context.Context, institutionID string) (*models.PaymentSummary, error) {
	if err := s.reconcile(ctx, institutionID); err != nil {
		return nil, err
	}
	payments, err := s.repo.ListAll(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}
	summary := derive.PaymentTotals(payments, s.now())
	return &summary, nil
}

func (s *PaymentService) reconcile(ctx context.Context, institutionID string) error {
	n, err := s.repo.ReconcileOverdue(ctx, institutionID, s.now())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reconcile payments")
	}
	if n > 0 {
		s.logger.Info("payments reclassified overdue", zap.String("institution_id", institutionID), zap.Int64("count", n))
		s.invalidate(ctx, institutionID)
	}
	return nil
}

func (s *PaymentService) invalidate(ctx context.Context, institutionID string) {
	if s.stores == nil {
		return
	}
	reg, err := s.stores.For(ctx, institutionID)
	if err != nil {
		s.logger.Warn("store refresh failed", zap.String("institution_id", institutionID), zap.Error(err))
		return
	}
	if err := reg.Payments.Invalidate(ctx); err != nil {
		s.logger.Warn("payment store invalidate failed", zap.Error(err))
	}
}
