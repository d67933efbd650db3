package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/linguahub/institute-api/internal/derive"
	"github.com/linguahub/institute-api/internal/models"
	"github.com/linguahub/institute-api/internal/store"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
	"github.com/linguahub/institute-api/pkg/export"
)

// ReportFormat selects the export encoding.
type ReportFormat string

const (
	FormatCSV ReportFormat = "csv"
	FormatPDF ReportFormat = "pdf"
)

// ReportFile bundles rendered bytes with transport metadata.
type ReportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ReportService renders student, payment and enrollment exports from store
// snapshots.
type ReportService struct {
	stores *store.Set
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(stores *store.Set, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{stores: stores, logger: logger, now: time.Now}
}

// Students renders the student roster export.
func (s *ReportService) Students(ctx context.Context, institutionID string, format ReportFormat) (*ReportFile, error) {
	reg, err := s.stores.For(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	now := s.now().UTC()
	table := export.Table{
		Title:       "Student Roster",
		Columns:     []string{"Name", "Email", "Phone", "Registered"},
		GeneratedAt: now,
	}
	for _, st := range reg.Students.Snapshot() {
		table.Rows = append(table.Rows, []string{
			st.FullName(),
			st.Email,
			st.Phone,
			st.CreatedAt.Format("2006-01-02"),
		})
	}
	return s.render("students", table, format, now)
}

// Payments renders the payment ledger export with derived overdue state.
func (s *ReportService) Payments(ctx context.Context, institutionID string, format ReportFormat) (*ReportFile, error) {
	reg, err := s.stores.For(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}

	now := s.now().UTC()
	students := make(map[string]models.Student)
	for _, st := range reg.Students.Snapshot() {
		students[st.ID] = st
	}

	table := export.Table{
		Title:       "Payment Ledger",
		Columns:     []string{"Student", "Amount", "Due", "Paid", "Status"},
		GeneratedAt: now,
	}
	for _, p := range reg.Payments.Snapshot() {
		name := p.StudentID
		if st, ok := students[p.StudentID]; ok {
			name = st.FullName()
		}
		status := string(p.Status)
		if p.Status == models.PaymentPending && derive.IsOverdue(p, now) {
			status = string(models.PaymentOverdue)
		}
		paid := ""
		if p.PaidDate != nil {
			paid = p.PaidDate.Format("2006-01-02")
		}
		table.Rows = append(table.Rows, []string{
			name,
			strconv.FormatFloat(p.Amount, 'f', 2, 64),
			p.DueDate.Format("2006-01-02"),
			paid,
			status,
		})
	}
	return s.render("payments", table, format, now)
}

// Enrollments renders the enrollment export with derived effective status and
// days remaining.
func (s *ReportService) Enrollments(ctx context.Context, institutionID string, format ReportFormat) (*ReportFile, error) {
	reg, err := s.stores.For(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	now := s.now().UTC()
	details := derive.EnrollmentsWithDetails(reg.Enrollments.Snapshot(), reg.Students.Snapshot(), reg.Courses.Snapshot(), now)

	table := export.Table{
		Title:       "Enrollments",
		Columns:     []string{"Student", "Course", "Start", "End", "Status", "Days Remaining"},
		GeneratedAt: now,
	}
	for _, d := range details {
		table.Rows = append(table.Rows, []string{
			d.Student.FullName(),
			d.Course.Name,
			d.StartDate.Format("2006-01-02"),
			d.EndDate.Format("2006-01-02"),
			string(d.EffectiveStatus),
			strconv.Itoa(d.DaysRemaining),
		})
	}
	return s.render("enrollments", table, format, now)
}

func (s *ReportService) render(prefix string, table export.Table, format ReportFormat, now time.Time) (*ReportFile, error) {
	stamp := now.Format("20060102")
	switch format {
	case FormatCSV:
		data, err := export.RenderCSV(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ReportFile{
			FileName:    fmt.Sprintf("%s-%s.csv", prefix, stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case FormatPDF:
		data, err := export.RenderPDF(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ReportFile{
			FileName:    fmt.Sprintf("%s-%s.pdf", prefix, stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
}
