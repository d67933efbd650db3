package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/linguahub/institute-api/internal/models"
)

// NotificationRepository manages persistence for the in-app feed. The read
// flag only flips forward; there is no unread transition.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a feed entry.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, institution_id, user_id, type, title, message, link, read, created_at)
        VALUES (:id, :institution_id, :user_id, :type, :title, :message, :link, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByUser returns a user's feed within the tenant scope, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, institutionID, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT id, institution_id, user_id, type, title, message, link, read, created_at
        FROM notifications WHERE institution_id = $1 AND user_id = $2 ORDER BY created_at DESC LIMIT %d`, limit)
	var feed []models.Notification
	if err := r.db.SelectContext(ctx, &feed, query, institutionID, userID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return feed, nil
}

// CountUnread returns the number of unread entries for a user.
func (r *NotificationRepository) CountUnread(ctx context.Context, institutionID, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE institution_id = $1 AND user_id = $2 AND read = false`
	var count int
	if err := r.db.GetContext(ctx, &count, query, institutionID, userID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flips one entry to read.
func (r *NotificationRepository) MarkRead(ctx context.Context, institutionID, userID, id string) error {
	const query = `UPDATE notifications SET read = true WHERE institution_id = $1 AND user_id = $2 AND id = $3`
	if _, err := r.db.ExecContext(ctx, query, institutionID, userID, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead flips every unread entry for a user.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, institutionID, userID string) error {
	const query = `UPDATE notifications SET read = true WHERE institution_id = $1 AND user_id = $2 AND read = false`
	if _, err := r.db.ExecContext(ctx, query, institutionID, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
