package models

import "time"

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationExpiry     NotificationType = "expiry"
	NotificationPayment    NotificationType = "payment"
	NotificationAttendance NotificationType = "attendance"
	NotificationSystem     NotificationType = "system"
)

// Valid reports whether the type is known.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationExpiry, NotificationPayment, NotificationAttendance, NotificationSystem:
		return true
	}
	return false
}

// Notification is a per-user, per-tenant feed entry. Read only ever flips
// forward to true.
type Notification struct {
	ID            string           `db:"id" json:"id"`
	InstitutionID string           `db:"institution_id" json:"institution_id"`
	UserID        string           `db:"user_id" json:"user_id"`
	Type          NotificationType `db:"type" json:"type"`
	Title         string           `db:"title" json:"title"`
	Message       string           `db:"message" json:"message"`
	Link          *string          `db:"link" json:"link,omitempty"`
	Read          bool             `db:"read" json:"read"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}
