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

type attendanceRepository interface {
	Upsert(ctx context.Context, attendance *models.Attendance) error
	FindByCourseAndDate(ctx context.Context, institutionID, courseID string, date time.Time) (*models.Attendance, error)
	ListByCourse(ctx context.Context, institutionID, courseID string) ([]models.Attendance, error)
	ListAll(ctx context.Context, institutionID string) ([]models.Attendance, error)
}

// SaveAttendanceRequest holds payload for recording a session sheet.
type SaveAttendanceRequest struct {
	CourseID string                    `json:"course_id" validate:"required"`
	Date     time.Time                 `json:"date" validate:"required"`
	Records  []models.AttendanceRecord `json:"records" validate:"required,min=1,dive"`
	Notes    *string                   `json:"notes"`
}

// AttendanceService handles session sheets. One sheet exists per course per
// day; saving again for the same day replaces the previous sheet.
type AttendanceService struct {
	repo      attendanceRepository
	courses   courseFinder
	stores    *store.Set
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, courses courseFinder, stores *store.Set, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, courses: courses, stores: stores, validator: validate, logger: logger}
}

// Save records the sheet for one course and day, replacing any existing sheet
// for that day. The date is normalized to start of day before persistence.
func (s *AttendanceService) Save(ctx context.Context, institutionID, recordedBy string, req SaveAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	for _, record := range req.Records {
		if !record.Status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown attendance status")
		}
	}
	if _, err := s.courses.FindByID(ctx, institutionID, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	sheet := &models.Attendance{
		InstitutionID: institutionID,
		CourseID:      req.CourseID,
		Date:          derive.StartOfDay(req.Date),
		Records:       req.Records,
		Notes:         req.Notes,
	}
	if recordedBy != "" {
		sheet.CreatedBy = &recordedBy
	}
	if err := s.repo.Upsert(ctx, sheet); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}

	s.invalidate(ctx, institutionID)
	return sheet, nil
}

// GetByDate returns the sheet for one course and day, or not found.
func (s *AttendanceService) GetByDate(ctx context.Context, institutionID, courseID string, date time.Time) (*models.Attendance, error) {
	sheet, err := s.repo.FindByCourseAndDate(ctx, institutionID, courseID, derive.StartOfDay(date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no attendance recorded for this day")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return sheet, nil
}

// CourseHistory returns a course's sheets, newest day first.
func (s *AttendanceService) CourseHistory(ctx context.Context, institutionID, courseID string) ([]models.Attendance, error) {
	sheets, err := s.repo.ListByCourse(ctx, institutionID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return sheets, nil
}

// StudentStats tallies one student's marks across every session in the tenant.
func (s *AttendanceService) StudentStats(ctx context.Context, institutionID, studentID string) (*models.AttendanceStats, error) {
	reg, err := s.stores.For(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	stats := derive.StudentAttendanceStats(reg.Attendance.Snapshot(), studentID)
	return &stats, nil
}

func (s *AttendanceService) invalidate(ctx context.Context, institutionID string) {
	if s.stores == nil {
		return
	}
	reg, err := s.stores.For(ctx, institutionID)
	if err != nil {
		s.logger.Warn("store refresh failed", zap.String("institution_id", institutionID), zap.Error(err))
		return
	}
	if err := reg.Attendance.Invalidate(ctx); err != nil {
		s.logger.Warn("attendance store invalidate failed", zap.Error(err))
	}
}
