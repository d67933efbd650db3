package models

import "time"

// Teacher is a roster entity; there is no scheduling engine in scope.
type Teacher struct {
	ID            string    `db:"id" json:"id"`
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	Email         string    `db:"email" json:"email"`
	Phone         string    `db:"phone" json:"phone"`
	Specialty     *string   `db:"specialty" json:"specialty,omitempty"`
	HourlyRate    *float64  `db:"hourly_rate" json:"hourly_rate,omitempty"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// TeacherFilter encapsulates search parameters for the roster.
type TeacherFilter struct {
	Search   string
	Active   *bool
	Page     int
	PageSize int
}
