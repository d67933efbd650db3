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

type institutionRepository interface {
	Create(ctx context.Context, inst *models.Institution) error
	FindByID(ctx context.Context, id string) (*models.Institution, error)
	FindByFounder(ctx context.Context, founderID string) (*models.Institution, error)
	UpdateName(ctx context.Context, id, name string) error
}

// CreateInstitutionRequest holds payload for founding an institution.
type CreateInstitutionRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

// RenameInstitutionRequest holds payload for renaming.
type RenameInstitutionRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

// InstitutionService handles tenant lifecycle.
type InstitutionService struct {
	institutions institutionRepository
	users        userRepository
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewInstitutionService constructs the institution service.
func NewInstitutionService(institutions institutionRepository, users userRepository, validate *validator.Validate, logger *zap.Logger) *InstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstitutionService{institutions: institutions, users: users, validator: validate, logger: logger}
}

// Create founds a new institution and binds the founding user to it as admin.
// A user founds at most one institution; switching requires offboarding.
func (s *InstitutionService) Create(ctx context.Context, userID string, req CreateInstitutionRequest) (*models.Institution, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid institution payload")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.InstitutionID != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "account already belongs to an institution")
	}
	if _, err := s.institutions.FindByFounder(ctx, userID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "account already founded an institution")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check founder")
	}

	inst := &models.Institution{Name: req.Name, FounderID: userID}
	if err := s.institutions.Create(ctx, inst); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create institution")
	}
	if err := s.users.BindInstitution(ctx, userID, inst.ID, models.RoleAdmin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bind founder")
	}

	s.logger.Info("institution founded", zap.String("institution_id", inst.ID), zap.String("founder_id", userID))
	return inst, nil
}

// Get returns the tenant's institution record.
func (s *InstitutionService) Get(ctx context.Context, institutionID string) (*models.Institution, error) {
	inst, err := s.institutions.FindByID(ctx, institutionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}
	return inst, nil
}

// Rename changes the institution name. Only the founder may rename; other
// admins are refused.
func (s *InstitutionService) Rename(ctx context.Context, institutionID, userID string, req RenameInstitutionRequest) (*models.Institution, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rename payload")
	}

	inst, err := s.Get(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	if inst.FounderID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the founder can rename the institution")
	}

	if err := s.institutions.UpdateName(ctx, institutionID, req.Name); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rename institution")
	}
	inst.Name = req.Name
	return inst, nil
}
