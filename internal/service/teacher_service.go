package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/linguahub/institute-api/internal/models"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, institutionID string, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, institutionID, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Deactivate(ctx context.Context, institutionID, id string) error
}

// TeacherRequest holds payload for creating and updating roster entries.
type TeacherRequest struct {
	FirstName  string   `json:"first_name" validate:"required,min=1,max=80"`
	LastName   string   `json:"last_name" validate:"required,min=1,max=80"`
	Email      string   `json:"email" validate:"omitempty,email"`
	Phone      string   `json:"phone" validate:"omitempty,min=10,max=20"`
	Specialty  *string  `json:"specialty"`
	HourlyRate *float64 `json:"hourly_rate" validate:"omitempty,min=0"`
	IsActive   *bool    `json:"is_active"`
}

// TeacherService handles roster use-cases.
type TeacherService struct {
	repo      teacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs the teacher service.
func NewTeacherService(repo teacherRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, validator: validate, logger: logger}
}

// List returns roster entries and pagination metadata.
func (s *TeacherService) List(ctx context.Context, institutionID string, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, institutionID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return teachers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one roster entry.
func (s *TeacherService) Get(ctx context.Context, institutionID, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, institutionID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create adds a roster entry.
func (s *TeacherService) Create(ctx context.Context, institutionID string, req TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher := &models.Teacher{
		InstitutionID: institutionID,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Phone:         req.Phone,
		Specialty:     req.Specialty,
		HourlyRate:    req.HourlyRate,
		IsActive:      true,
	}
	if req.IsActive != nil {
		teacher.IsActive = *req.IsActive
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// Update modifies a roster entry.
func (s *TeacherService) Update(ctx context.Context, institutionID, id string, req TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher, err := s.Get(ctx, institutionID, id)
	if err != nil {
		return nil, err
	}
	teacher.FirstName = req.FirstName
	teacher.LastName = req.LastName
	teacher.Email = req.Email
	teacher.Phone = req.Phone
	teacher.Specialty = req.Specialty
	teacher.HourlyRate = req.HourlyRate
	if req.IsActive != nil {
		teacher.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// Delete retires a roster entry by deactivating it. The row stays behind so
// historical records keep pointing at a real person.
func (s *TeacherService) Delete(ctx context.Context, institutionID, id string) error {
	if _, err := s.Get(ctx, institutionID, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, institutionID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate teacher")
	}
	return nil
}
