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

type enrollmentRepository interface {
	List(ctx context.Context, institutionID string, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
	FindByID(ctx context.Context, institutionID, id string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, institutionID, id string, status models.EnrollmentStatus) (bool, error)
}

type courseFinder interface {
	FindByID(ctx context.Context, institutionID, id string) (*models.Course, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, institutionID, id string) (*models.Student, error)
}

// EnrollRequest holds payload for enrolling a student in a course.
type EnrollRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	CourseID  string    `json:"course_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	Notes     *string   `json:"notes"`
}

// EnrollmentService handles the enrollment lifecycle. Listings are served as
// derived details from the tenant's store snapshots so expiry is always
// computed against the current day without rewriting rows.
type EnrollmentService struct {
	repo      enrollmentRepository
	courses   courseFinder
	students  studentFinder
	stores    *store.Set
	expireIn  int
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(repo enrollmentRepository, courses courseFinder, students studentFinder, stores *store.Set, expiringInDays int, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if expiringInDays <= 0 {
		expiringInDays = derive.DefaultExpiringThresholdDays
	}
	return &EnrollmentService{repo: repo, courses: courses, students: students, stores: stores, expireIn: expiringInDays, validator: validate, logger: logger, now: time.Now}
}

// Enroll registers a student in a course. The end date is fixed here from the
// course duration and never recomputed afterwards.
func (s *EnrollmentService) Enroll(ctx context.Context, institutionID string, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	if _, err := s.students.FindByID(ctx, institutionID, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	course, err := s.courses.FindByID(ctx, institutionID, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	start := derive.StartOfDay(req.StartDate)
	enrollment := &models.Enrollment{
		InstitutionID: institutionID,
		StudentID:     req.StudentID,
		CourseID:      req.CourseID,
		StartDate:     start,
		EndDate:       start.AddDate(0, 0, course.DurationDays),
		Status:        models.EnrollmentStatusActive,
		Notes:         req.Notes,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.invalidate(ctx, institutionID)
	return enrollment, nil
}

// List returns derived enrollment details for the tenant.
func (s *EnrollmentService) List(ctx context.Context, institutionID string, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	reg, err := s.stores.For(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	details := derive.EnrollmentsWithDetails(reg.Enrollments.Snapshot(), reg.Students.Snapshot(), reg.Courses.Snapshot(), s.now())
	filtered := details[:0]
	for _, d := range details {
		if filter.StudentID != "" && d.StudentID != filter.StudentID {
			continue
		}
		if filter.CourseID != "" && d.CourseID != filter.CourseID {
			continue
		}
		if filter.Status != nil && d.EffectiveStatus != *filter.Status {
			continue
		}
		filtered = append(filtered, d)
	}
	return filtered, nil
}

// Get returns one enrollment with derived detail.
func (s *EnrollmentService) Get(ctx context.Context, institutionID, id string) (*models.EnrollmentDetail, error) {
	enrollment, err := s.repo.FindByID(ctx, institutionID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	student, err := s.students.FindByID(ctx, institutionID, enrollment.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	course, err := s.courses.FindByID(ctx, institutionID, enrollment.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	detail, _ := derive.EnrollmentDetail(*enrollment,
		map[string]models.Student{student.ID: *student},
		map[string]models.Course{course.ID: *course},
		s.now())
	return &detail, nil
}

// Complete marks an active enrollment completed. Terminal enrollments are
// refused rather than silently rewritten.
func (s *EnrollmentService) Complete(ctx context.Context, institutionID, id string) (*models.Enrollment, error) {
	return s.transition(ctx, institutionID, id, models.EnrollmentStatusCompleted)
}

// Cancel marks an active enrollment cancelled.
func (s *EnrollmentService) Cancel(ctx context.Context, institutionID, id string) (*models.Enrollment, error) {
	return s.transition(ctx, institutionID, id, models.EnrollmentStatusCancelled)
}

func (s *EnrollmentService) transition(ctx context.Context, institutionID, id string, status models.EnrollmentStatus) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, institutionID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment already finalized")
	}

	ok, err := s.repo.UpdateStatus(ctx, institutionID, id, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	if !ok {
		// Lost a race to another transition.
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment already finalized")
	}

	enrollment.Status = status
	s.invalidate(ctx, institutionID)
	return enrollment, nil
}

// Expiring returns effective-active enrollments ending within the window,
// soonest first. A non-positive days falls back to the configured threshold.
// Enrollments ending today are excluded; they are due, not expiring.
func (s *EnrollmentService) Expiring(ctx context.Context, institutionID string, days int) ([]models.EnrollmentDetail, error) {
	if days <= 0 {
		days = s.expireIn
	}
	reg, err := s.stores.For(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	return derive.ExpiringEnrollments(reg.Enrollments.Snapshot(), reg.Students.Snapshot(), reg.Courses.Snapshot(), s.now(), days), nil
}

// ForStudent returns one student's derived enrollment history.
func (s *EnrollmentService) ForStudent(ctx context.Context, institutionID, studentID string) ([]models.EnrollmentDetail, error) {
	reg, err := s.stores.For(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	return derive.StudentEnrollments(reg.Enrollments.Snapshot(), reg.Students.Snapshot(), reg.Courses.Snapshot(), s.now(), studentID), nil
}

func (s *EnrollmentService) invalidate(ctx context.Context, institutionID string) {
	if s.stores == nil {
		return
	}
	reg, err := s.stores.For(ctx, institutionID)
	if err != nil {
		s.logger.Warn("store refresh failed", zap.String("institution_id", institutionID), zap.Error(err))
		return
	}
	if err := reg.Enrollments.Invalidate(ctx); err != nil {
		s.logger.Warn("enrollment store invalidate failed", zap.Error(err))
	}
}
