package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/linguahub/institute-api/internal/models"
)

// CourseRepository manages persistence for the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses matching the provided filters.
func (r *CourseRepository) List(ctx context.Context, institutionID string, filter models.CourseFilter) ([]models.Course, int, error) {
	base := "FROM courses"
	args := []interface{}{institutionID}
	conditions := []string{"institution_id = $1"}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
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

	query := fmt.Sprintf(`SELECT id, institution_id, name, description, category, duration_days, price
        %s ORDER BY name ASC LIMIT %d OFFSET %d`, base, size, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// ListAll returns every course in the tenant, for snapshot loads and exports.
func (r *CourseRepository) ListAll(ctx context.Context, institutionID string) ([]models.Course, error) {
	const query = `SELECT id, institution_id, name, description, category, duration_days, price
        FROM courses WHERE institution_id = $1 ORDER BY name ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, institutionID); err != nil {
		return nil, fmt.Errorf("list all courses: %w", err)
	}
	return courses, nil
}

// FindByID fetches a course within the tenant scope.
func (r *CourseRepository) FindByID(ctx context.Context, institutionID, id string) (*models.Course, error) {
	const query = `SELECT id, institution_id, name, description, category, duration_days, price
        FROM courses WHERE institution_id = $1 AND id = $2`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, institutionID, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	const query = `INSERT INTO courses (id, institution_id, name, description, category, duration_days, price)
        VALUES (:id, :institution_id, :name, :description, :category, :duration_days, :price)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies an existing course. Duration changes do not touch existing
// enrollment end dates.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	const query = `UPDATE courses SET name = :name, description = :description, category = :category,
        duration_days = :duration_days, price = :price
        WHERE institution_id = :institution_id AND id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course from the catalog.
func (r *CourseRepository) Delete(ctx context.Context, institutionID, id string) error {
	const query = `DELETE FROM courses WHERE institution_id = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, institutionID, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}
