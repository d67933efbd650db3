package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/linguahub/institute-api/internal/models"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, institutionID, userID string, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, institutionID, userID string) (int, error)
	MarkRead(ctx context.Context, institutionID, userID, id string) error
	MarkAllRead(ctx context.Context, institutionID, userID string) error
}

// NotificationService manages the in-app feed. The read flag only ever flips
// forward; there is no way to mark an entry unread again.
type NotificationService struct {
	repo      notificationRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs the notification service.
func NewNotificationService(repo notificationRepository, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, validator: validate, logger: logger}
}

// Notify pushes a feed entry to one user.
func (s *NotificationService) Notify(ctx context.Context, institutionID, userID string, typ models.NotificationType, title, message string, link *string) error {
	if !typ.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown notification type")
	}
	n := &models.Notification{
		InstitutionID: institutionID,
		UserID:        userID,
		Type:          typ,
		Title:         title,
		Message:       message,
		Link:          link,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}
	return nil
}

// Feed returns the user's notifications, newest first.
func (s *NotificationService) Feed(ctx context.Context, institutionID, userID string, limit int) ([]models.Notification, error) {
	feed, err := s.repo.ListByUser(ctx, institutionID, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return feed, nil
}

// UnreadCount returns the user's unread entry count.
func (s *NotificationService) UnreadCount(ctx context.Context, institutionID, userID string) (int, error) {
	count, err := s.repo.CountUnread(ctx, institutionID, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// MarkRead flips one entry to read.
func (s *NotificationService) MarkRead(ctx context.Context, institutionID, userID, id string) error {
	if err := s.repo.MarkRead(ctx, institutionID, userID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead flips every unread entry for the user.
func (s *NotificationService) MarkAllRead(ctx context.Context, institutionID, userID string) error {
	if err := s.repo.MarkAllRead(ctx, institutionID, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}
