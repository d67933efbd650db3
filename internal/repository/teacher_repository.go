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

// TeacherRepository manages persistence for the teaching roster.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns roster entries matching the provided filters.
func (r *TeacherRepository) List(ctx context.Context, institutionID string, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	base := "FROM teachers"
	args := []interface{}{institutionID}
	conditions := []string{"institution_id = $1"}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(email) LIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
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

	query := fmt.Sprintf(`SELECT id, institution_id, first_name, last_name, email, phone, specialty, hourly_rate, is_active, created_at
        %s ORDER BY last_name ASC, first_name ASC LIMIT %d OFFSET %d`, base, size, offset)

	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID fetches a roster entry within the tenant scope.
func (r *TeacherRepository) FindByID(ctx context.Context, institutionID, id string) (*models.Teacher, error) {
	const query = `SELECT id, institution_id, first_name, last_name, email, phone, specialty, hourly_rate, is_active, created_at
        FROM teachers WHERE institution_id = $1 AND id = $2`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, institutionID, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Create inserts a new roster entry.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teachers (id, institution_id, first_name, last_name, email, phone, specialty, hourly_rate, is_active, created_at)
        VALUES (:id, :institution_id, :first_name, :last_name, :email, :phone, :specialty, :hourly_rate, :is_active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies an existing roster entry.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	const query = `UPDATE teachers SET first_name = :first_name, last_name = :last_name, email = :email, phone = :phone,
        specialty = :specialty, hourly_rate = :hourly_rate, is_active = :is_active
        WHERE institution_id = :institution_id AND id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// Deactivate marks a roster entry inactive. Rows are never removed so past
// attendance and course assignments keep a referent.
func (r *TeacherRepository) Deactivate(ctx context.Context, institutionID, id string) error {
	const query = `UPDATE teachers SET is_active = FALSE WHERE institution_id = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, institutionID, id); err != nil {
		return fmt.Errorf("deactivate teacher: %w", err)
	}
	return nil
}
