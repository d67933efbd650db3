package models

import "time"

// EnrollmentStatus enumerates persisted and derived enrollment states.
// "expired" only ever appears as a derived, display-time status; the state
// machine never writes it.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusExpired   EnrollmentStatus = "expired"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// Terminal reports whether the status admits no further persisted transition.
func (s EnrollmentStatus) Terminal() bool {
	return s == EnrollmentStatusCompleted || s == EnrollmentStatusCancelled
}

// Valid reports whether s is a known enrollment status.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusActive, EnrollmentStatusCompleted, EnrollmentStatusExpired, EnrollmentStatusCancelled:
		return true
	}
	return false
}

// Enrollment is a student's time-boxed registration in one course run.
// EndDate = StartDate + course.DurationDays, fixed at creation.
type Enrollment struct {
	ID            string           `db:"id" json:"id"`
	InstitutionID string           `db:"institution_id" json:"institution_id"`
	StudentID     string           `db:"student_id" json:"student_id"`
	CourseID      string           `db:"course_id" json:"course_id"`
	StartDate     time.Time        `db:"start_date" json:"start_date"`
	EndDate       time.Time        `db:"end_date" json:"end_date"`
	Status        EnrollmentStatus `db:"status" json:"status"`
	Notes         *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// EnrollmentDetail is the derived, display-ready projection: resolved student
// and course, effective status, and the expiry facts.
type EnrollmentDetail struct {
	Enrollment
	Student         Student          `json:"student"`
	Course          Course           `json:"course"`
	EffectiveStatus EnrollmentStatus `json:"effective_status"`
	DaysRemaining   int              `json:"days_remaining"`
	IsExpiringSoon  bool             `json:"is_expiring_soon"`
}

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	StudentID string
	CourseID  string
	Status    *EnrollmentStatus
	Page      int
	PageSize  int
}
