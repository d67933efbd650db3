package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linguahub/institute-api/internal/models"
	"github.com/linguahub/institute-api/pkg/config"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
)

type inviteRepository interface {
	Create(ctx context.Context, invite *models.Invite) error
	FindByID(ctx context.Context, id string) (*models.Invite, error)
	ListByInstitution(ctx context.Context, institutionID string) ([]models.Invite, error)
	MarkUsed(ctx context.Context, id, userID string, now time.Time) (bool, error)
	Delete(ctx context.Context, institutionID, id string) error
}

// CreateInviteRequest holds payload for issuing an invite.
type CreateInviteRequest struct {
	Role models.UserRole `json:"role" validate:"required,oneof=admin teacher"`
}

type redemptionNotifier interface {
	Notify(ctx context.Context, institutionID, userID string, typ models.NotificationType, title, message string, link *string) error
}

// InviteService handles invite issuance and redemption. Redemption failures
// are uniform: missing, expired and consumed invites all answer the same
// error so the token space cannot be probed.
type InviteService struct {
	invites   inviteRepository
	users     userRepository
	notifier  redemptionNotifier
	cfg       config.InviteConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewInviteService constructs the invite service.
func NewInviteService(invites inviteRepository, users userRepository, cfg config.InviteConfig, validate *validator.Validate, logger *zap.Logger) *InviteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	return &InviteService{invites: invites, users: users, cfg: cfg, validator: validate, logger: logger, now: time.Now}
}

// SetNotifier enables in-app notifications to tenant admins when an invite is
// redeemed. Without it, redemption works silently.
func (s *InviteService) SetNotifier(n redemptionNotifier) {
	s.notifier = n
}

// Create issues a single-use invite for the tenant.
func (s *InviteService) Create(ctx context.Context, institutionID, createdBy string, req CreateInviteRequest) (*models.Invite, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invite payload")
	}

	now := s.now().UTC()
	invite := &models.Invite{
		ID:            strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", ""),
		InstitutionID: institutionID,
		Role:          req.Role,
		ExpiresAt:     now.Add(s.cfg.TTL),
		CreatedBy:     createdBy,
		CreatedAt:     now,
	}
	if err := s.invites.Create(ctx, invite); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create invite")
	}
	return invite, nil
}

// List returns the tenant's invites, newest first.
func (s *InviteService) List(ctx context.Context, institutionID string) ([]models.Invite, error) {
	invites, err := s.invites.ListByInstitution(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invites")
	}
	return invites, nil
}

// Delete revokes an invite.
func (s *InviteService) Delete(ctx context.Context, institutionID, id string) error {
	if err := s.invites.Delete(ctx, institutionID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete invite")
	}
	return nil
}

// Redeem consumes an invite and binds the redeeming user to the invite's
// institution and role. Consumption is atomic; of two concurrent redemptions
// exactly one wins.
func (s *InviteService) Redeem(ctx context.Context, userID, token string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.InstitutionID != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "account already belongs to an institution")
	}

	invite, err := s.invites.FindByID(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidInvite
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invite")
	}

	ok, err := s.invites.MarkUsed(ctx, token, userID, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to consume invite")
	}
	if !ok {
		return nil, appErrors.ErrInvalidInvite
	}

	if err := s.users.BindInstitution(ctx, userID, invite.InstitutionID, invite.Role); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bind user")
	}

	user.InstitutionID = &invite.InstitutionID
	user.Role = invite.Role
	s.logger.Info("invite redeemed", zap.String("institution_id", invite.InstitutionID), zap.String("user_id", userID))
	s.notifyAdmins(ctx, invite.InstitutionID, user)
	return user, nil
}

// notifyAdmins is best effort; a failed notification never fails the
// redemption that triggered it.
func (s *InviteService) notifyAdmins(ctx context.Context, institutionID string, joined *models.User) {
	if s.notifier == nil {
		return
	}
	admins, err := s.users.ListByInstitution(ctx, institutionID)
	if err != nil {
		s.logger.Warn("failed to list admins for redemption notice", zap.Error(err))
		return
	}
	for _, admin := range admins {
		if admin.Role != models.RoleAdmin || admin.ID == joined.ID {
			continue
		}
		err := s.notifier.Notify(ctx, institutionID, admin.ID, models.NotificationSystem,
			"New staff member", joined.DisplayName+" joined via invite", nil)
		if err != nil {
			s.logger.Warn("failed to notify admin", zap.String("admin_id", admin.ID), zap.Error(err))
		}
	}
}
