package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AttendanceStatus is the per-student mark within one session.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// Valid reports whether the status is a known mark.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// AttendanceRecord is one student's mark within a session sheet.
type AttendanceRecord struct {
	StudentID string           `json:"student_id"`
	Status    AttendanceStatus `json:"status"`
}

// AttendanceRecords is stored as a JSONB column.
type AttendanceRecords []AttendanceRecord

// Value implements driver.Valuer for JSONB storage.
func (r AttendanceRecords) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB storage.
func (r *AttendanceRecords) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	}
	return fmt.Errorf("unsupported attendance records type %T", src)
}

// Attendance is one sheet per course per calendar day. Date is normalized to
// UTC start-of-day; (institution_id, course_id, date) is unique.
type Attendance struct {
	ID            string            `db:"id" json:"id"`
	InstitutionID string            `db:"institution_id" json:"institution_id"`
	CourseID      string            `db:"course_id" json:"course_id"`
	Date          time.Time         `db:"date" json:"date"`
	Records       AttendanceRecords `db:"records" json:"records"`
	Notes         *string           `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	CreatedBy     *string           `db:"created_by" json:"created_by,omitempty"`
}

// AttendanceStats tallies one student's marks across sessions. Sessions with
// no record for the student contribute nothing, not an absence.
type AttendanceStats struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Excused int `json:"excused"`
	Total   int `json:"total"`
}
