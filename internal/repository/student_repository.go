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

// StudentRepository manages persistence for student records. Every query is
// scoped to an institution.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, institutionID string, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students"
	args := []interface{}{institutionID}
	conditions := []string{"institution_id = $1"}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(email) LIKE $%d OR phone LIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"first_name": "first_name",
		"last_name":  "last_name",
		"email":      "email",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, institution_id, first_name, last_name, email, phone, notes, kvkk_consent_date, kvkk_consent_version, created_at, updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListAll returns every student in the tenant, for snapshot loads and exports.
func (r *StudentRepository) ListAll(ctx context.Context, institutionID string) ([]models.Student, error) {
	const query = `SELECT id, institution_id, first_name, last_name, email, phone, notes, kvkk_consent_date, kvkk_consent_version, created_at, updated_at
        FROM students WHERE institution_id = $1 ORDER BY created_at DESC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, institutionID); err != nil {
		return nil, fmt.Errorf("list all students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student within the tenant scope.
func (r *StudentRepository) FindByID(ctx context.Context, institutionID, id string) (*models.Student, error) {
	const query = `SELECT id, institution_id, first_name, last_name, email, phone, notes, kvkk_consent_date, kvkk_consent_version, created_at, updated_at
        FROM students WHERE institution_id = $1 AND id = $2`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, institutionID, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, institution_id, first_name, last_name, email, phone, notes, kvkk_consent_date, kvkk_consent_version, created_at, updated_at)
        VALUES (:id, :institution_id, :first_name, :last_name, :email, :phone, :notes, :kvkk_consent_date, :kvkk_consent_version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student within the tenant scope.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, email = :email, phone = :phone,
        notes = :notes, kvkk_consent_date = :kvkk_consent_date, kvkk_consent_version = :kvkk_consent_version, updated_at = :updated_at
        WHERE institution_id = :institution_id AND id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student. The service deletes dependent enrollments first.
func (r *StudentRepository) Delete(ctx context.Context, institutionID, id string) error {
	const query = `DELETE FROM students WHERE institution_id = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, institutionID, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}
