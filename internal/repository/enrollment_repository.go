package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/linguahub/institute-api/internal/models"
)

// EnrollmentRepository manages persistence for enrollments. Derived expiry is
// computed in the derive package; this layer only stores the persisted status.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments matching the provided filters.
func (r *EnrollmentRepository) List(ctx context.Context, institutionID string, filter models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	base := "FROM enrollments"
	args := []interface{}{institutionID}
	conditions := []string{"institution_id = $1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, institution_id, student_id, course_id, start_date, end_date, status, notes, created_at
        %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// ListAll returns every enrollment in the tenant, for snapshot loads and
// derived views.
func (r *EnrollmentRepository) ListAll(ctx context.Context, institutionID string) ([]models.Enrollment, error) {
	const query = `SELECT id, institution_id, student_id, course_id, start_date, end_date, status, notes, created_at
        FROM enrollments WHERE institution_id = $1 ORDER BY created_at DESC`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, institutionID); err != nil {
		return nil, fmt.Errorf("list all enrollments: %w", err)
	}
	return enrollments, nil
}

// FindByID fetches an enrollment within the tenant scope.
func (r *EnrollmentRepository) FindByID(ctx context.Context, institutionID, id string) (*models.Enrollment, error) {
	const query = `SELECT id, institution_id, student_id, course_id, start_date, end_date, status, notes, created_at
        FROM enrollments WHERE institution_id = $1 AND id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, institutionID, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Create inserts a new enrollment. The caller fixes EndDate before insert.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, institution_id, student_id, course_id, start_date, end_date, status, notes, created_at)
        VALUES (:id, :institution_id, :student_id, :course_id, :start_date, :end_date, :status, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateStatus transitions an enrollment out of the active state. The guard
// leaves completed and cancelled rows untouched; returns false when no
// transition happened.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, institutionID, id string, status models.EnrollmentStatus) (bool, error) {
	const query = `UPDATE enrollments SET status = $3
        WHERE institution_id = $1 AND id = $2 AND status NOT IN ($4, $5)`
	res, err := r.db.ExecContext(ctx, query, institutionID, id, status,
		models.EnrollmentStatusCompleted, models.EnrollmentStatusCancelled)
	if err != nil {
		return false, fmt.Errorf("update enrollment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update enrollment status: %w", err)
	}
	return affected == 1, nil
}

// DeleteByStudent removes all of a student's enrollments. Runs before the
// student row itself is deleted.
func (r *EnrollmentRepository) DeleteByStudent(ctx context.Context, institutionID, studentID string) error {
	const query = `DELETE FROM enrollments WHERE institution_id = $1 AND student_id = $2`
	if _, err := r.db.ExecContext(ctx, query, institutionID, studentID); err != nil {
		return fmt.Errorf("delete enrollments by student: %w", err)
	}
	return nil
}

// Delete removes a single enrollment.
func (r *EnrollmentRepository) Delete(ctx context.Context, institutionID, id string) error {
	const query = `DELETE FROM enrollments WHERE institution_id = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, institutionID, id); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}
