package models

import "time"

// Student represents a learner registered with the institution.
type Student struct {
	ID                 string     `db:"id" json:"id"`
	InstitutionID      string     `db:"institution_id" json:"institution_id"`
	FirstName          string     `db:"first_name" json:"first_name"`
	LastName           string     `db:"last_name" json:"last_name"`
	Email              string     `db:"email" json:"email"`
	Phone              string     `db:"phone" json:"phone"`
	Notes              *string    `db:"notes" json:"notes,omitempty"`
	KVKKConsentDate    *time.Time `db:"kvkk_consent_date" json:"kvkk_consent_date,omitempty"`
	KVKKConsentVersion *string    `db:"kvkk_consent_version" json:"kvkk_consent_version,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name for display and exports.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
