package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/linguahub/institute-api/internal/models"
)

// AttendanceRepository manages persistence for attendance sheets. One sheet
// exists per (institution, course, day); saving the same day again replaces
// the sheet rather than appending a duplicate.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert inserts the sheet or replaces the existing one for the same course
// and day. Date must already be normalized to start of day. On replacement the
// stored row keeps its original id and created_at; both are scanned back so
// the model always reflects the persisted row.
func (r *AttendanceRepository) Upsert(ctx context.Context, attendance *models.Attendance) error {
	if attendance.ID == "" {
		attendance.ID = uuid.NewString()
	}
	if attendance.CreatedAt.IsZero() {
		attendance.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance (id, institution_id, course_id, date, records, notes, created_at, created_by)
        VALUES (:id, :institution_id, :course_id, :date, :records, :notes, :created_at, :created_by)
        ON CONFLICT (institution_id, course_id, date)
        DO UPDATE SET records = EXCLUDED.records, notes = EXCLUDED.notes, created_by = EXCLUDED.created_by
        RETURNING id, created_at`
	rows, err := r.db.NamedQueryContext(ctx, query, attendance)
	if err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&attendance.ID, &attendance.CreatedAt); err != nil {
			return fmt.Errorf("upsert attendance: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// FindByCourseAndDate fetches the sheet for one course on one day.
func (r *AttendanceRepository) FindByCourseAndDate(ctx context.Context, institutionID, courseID string, date time.Time) (*models.Attendance, error) {
	const query = `SELECT id, institution_id, course_id, date, records, notes, created_at, created_by
        FROM attendance WHERE institution_id = $1 AND course_id = $2 AND date = $3`
	var attendance models.Attendance
	if err := r.db.GetContext(ctx, &attendance, query, institutionID, courseID, date); err != nil {
		return nil, err
	}
	return &attendance, nil
}

// ListByCourse returns a course's sheets, newest day first.
func (r *AttendanceRepository) ListByCourse(ctx context.Context, institutionID, courseID string) ([]models.Attendance, error) {
	const query = `SELECT id, institution_id, course_id, date, records, notes, created_at, created_by
        FROM attendance WHERE institution_id = $1 AND course_id = $2 ORDER BY date DESC`
	var sheets []models.Attendance
	if err := r.db.SelectContext(ctx, &sheets, query, institutionID, courseID); err != nil {
		return nil, fmt.Errorf("list attendance by course: %w", err)
	}
	return sheets, nil
}

// ListAll returns every sheet in the tenant, for snapshot loads and per
// student statistics.
func (r *AttendanceRepository) ListAll(ctx context.Context, institutionID string) ([]models.Attendance, error) {
	const query = `SELECT id, institution_id, course_id, date, records, notes, created_at, created_by
        FROM attendance WHERE institution_id = $1 ORDER BY date DESC`
	var sheets []models.Attendance
	if err := r.db.SelectContext(ctx, &sheets, query, institutionID); err != nil {
		return nil, fmt.Errorf("list all attendance: %w", err)
	}
	return sheets, nil
}

// Delete removes one sheet.
func (r *AttendanceRepository) Delete(ctx context.Context, institutionID, id string) error {
	const query = `DELETE FROM attendance WHERE institution_id = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, institutionID, id); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	return nil
}
