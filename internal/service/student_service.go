package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/linguahub/institute-api/internal/models"
	"github.com/linguahub/institute-api/internal/store"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, institutionID string, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, institutionID, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, institutionID, id string) error
}

type enrollmentRemover interface {
	DeleteByStudent(ctx context.Context, institutionID, studentID string) error
}

type paymentRemover interface {
	DeleteByStudent(ctx context.Context, institutionID, studentID string) error
}

// CreateStudentRequest holds payload for registering a student.
type CreateStudentRequest struct {
	FirstName          string     `json:"first_name" validate:"required,min=1,max=80"`
	LastName           string     `json:"last_name" validate:"required,min=1,max=80"`
	Email              string     `json:"email" validate:"omitempty,email"`
	Phone              string     `json:"phone" validate:"omitempty,min=10,max=20"`
	Notes              *string    `json:"notes"`
	KVKKConsentDate    *time.Time `json:"kvkk_consent_date"`
	KVKKConsentVersion *string    `json:"kvkk_consent_version"`
}

// UpdateStudentRequest holds payload for updating a student.
type UpdateStudentRequest struct {
	FirstName          string     `json:"first_name" validate:"required,min=1,max=80"`
	LastName           string     `json:"last_name" validate:"required,min=1,max=80"`
	Email              string     `json:"email" validate:"omitempty,email"`
	Phone              string     `json:"phone" validate:"omitempty,min=10,max=20"`
	Notes              *string    `json:"notes"`
	KVKKConsentDate    *time.Time `json:"kvkk_consent_date"`
	KVKKConsentVersion *string    `json:"kvkk_consent_version"`
}

// StudentService handles student lifecycle use-cases.
type StudentService struct {
	repo        studentRepository
	enrollments enrollmentRemover
	payments    paymentRemover
	stores      *store.Set
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, enrollments enrollmentRemover, payments paymentRemover, stores *store.Set, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, enrollments: enrollments, payments: payments, stores: stores, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, institutionID string, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, institutionID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, institutionID, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, institutionID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, institutionID string, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student := &models.Student{
		InstitutionID:      institutionID,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		Phone:              req.Phone,
		Notes:              req.Notes,
		KVKKConsentDate:    req.KVKKConsentDate,
		KVKKConsentVersion: req.KVKKConsentVersion,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.invalidate(ctx, institutionID)
	return student, nil
}

// Update modifies an existing student.
func (s *StudentService) Update(ctx context.Context, institutionID, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.Get(ctx, institutionID, id)
	if err != nil {
		return nil, err
	}
	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.Email = req.Email
	student.Phone = req.Phone
	student.Notes = req.Notes
	student.KVKKConsentDate = req.KVKKConsentDate
	student.KVKKConsentVersion = req.KVKKConsentVersion

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.invalidate(ctx, institutionID)
	return student, nil
}

// Delete removes a student and their dependent records. Enrollments and
// payments go first so a failure never leaves a studentless enrollment behind.
func (s *StudentService) Delete(ctx context.Context, institutionID, id string) error {
	if _, err := s.Get(ctx, institutionID, id); err != nil {
		return err
	}
	if err := s.payments.DeleteByStudent(ctx, institutionID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student payments")
	}
	if err := s.enrollments.DeleteByStudent(ctx, institutionID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student enrollments")
	}
	if err := s.repo.Delete(ctx, institutionID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.logger.Info("student deleted", zap.String("institution_id", institutionID), zap.String("student_id", id))
	s.invalidate(ctx, institutionID)
	return nil
}

func (s *StudentService) invalidate(ctx context.Context, institutionID string) {
	if s.stores == nil {
		return
	}
	reg, err := s.stores.For(ctx, institutionID)
	if err != nil {
		s.logger.Warn("store refresh failed", zap.String("institution_id", institutionID), zap.Error(err))
		return
	}
	if err := reg.Students.Invalidate(ctx); err != nil {
		s.logger.Warn("student store invalidate failed", zap.Error(err))
	}
	if err := reg.Enrollments.Invalidate(ctx); err != nil {
		s.logger.Warn("enrollment store invalidate failed", zap.Error(err))
	}
	if err := reg.Payments.Invalidate(ctx); err != nil {
		s.logger.Warn("payment store invalidate failed", zap.Error(err))
	}
}
