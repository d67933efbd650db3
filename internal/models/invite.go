package models

import "time"

// Invite is a single-use, time-boxed capability token. Redeeming it binds the
// redeeming principal to the invite's institution and role.
type Invite struct {
	ID            string     `db:"id" json:"id"`
	InstitutionID string     `db:"institution_id" json:"institution_id"`
	Role          UserRole   `db:"role" json:"role"`
	Used          bool       `db:"used" json:"used"`
	UsedBy        *string    `db:"used_by" json:"used_by,omitempty"`
	UsedAt        *time.Time `db:"used_at" json:"used_at,omitempty"`
	ExpiresAt     time.Time  `db:"expires_at" json:"expires_at"`
	CreatedBy     string     `db:"created_by" json:"created_by"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
