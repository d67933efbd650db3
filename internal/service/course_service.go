package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/linguahub/institute-api/internal/models"
	"github.com/linguahub/institute-api/internal/store"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, institutionID string, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, institutionID, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, institutionID, id string) error
}

// CourseRequest holds payload for creating and updating courses.
type CourseRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=120"`
	Description  string  `json:"description" validate:"max=2000"`
	Category     string  `json:"category" validate:"max=80"`
	DurationDays int     `json:"duration_days" validate:"required,min=1,max=3650"`
	Price        float64 `json:"price" validate:"min=0"`
}

// CourseService handles course catalog use-cases.
type CourseService struct {
	repo      courseRepository
	stores    *store.Set
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, stores *store.Set, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, stores: stores, validator: validate, logger: logger}
}

// List returns courses and pagination metadata.
func (s *CourseService) List(ctx context.Context, institutionID string, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, institutionID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one course.
func (s *CourseService) Get(ctx context.Context, institutionID, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, institutionID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create adds a course to the catalog.
func (s *CourseService) Create(ctx context.Context, institutionID string, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course := &models.Course{
		InstitutionID: institutionID,
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		DurationDays:  req.DurationDays,
		Price:         req.Price,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidate(ctx, institutionID)
	return course, nil
}

// Update modifies a course. Existing enrollment end dates are untouched; the
// new duration only affects future enrollments.
func (s *CourseService) Update(ctx context.Context, institutionID, id string, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.Get(ctx, institutionID, id)
	if err != nil {
		return nil, err
	}
	course.Name = req.Name
	course.Description = req.Description
	course.Category = req.Category
	course.DurationDays = req.DurationDays
	course.Price = req.Price

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidate(ctx, institutionID)
	return course, nil
}

// Delete removes a course from the catalog.
func (s *CourseService) Delete(ctx context.Context, institutionID, id string) error {
	if _, err := s.Get(ctx, institutionID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, institutionID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.invalidate(ctx, institutionID)
	return nil
}

func (s *CourseService) invalidate(ctx context.Context, institutionID string) {
	if s.stores == nil {
		return
	}
	reg, err := s.stores.For(ctx, institutionID)
	if err != nil {
		s.logger.Warn("store refresh failed", zap.String("institution_id", institutionID), zap.Error(err))
		return
	}
	if err := reg.Courses.Invalidate(ctx); err != nil {
		s.logger.Warn("course store invalidate failed", zap.Error(err))
	}
}
