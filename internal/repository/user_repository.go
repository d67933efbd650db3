package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/linguahub/institute-api/internal/models"
)

// UserRepository manages persistence for principals.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	const query = `INSERT INTO users (id, email, password_hash, display_name, role, institution_id, active, created_at, updated_at)
        VALUES (:id, :email, :password_hash, :display_name, :role, :institution_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByEmail fetches a user by their lowercase email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, display_name, role, institution_id, active, created_at, updated_at
        FROM users WHERE LOWER(email) = LOWER($1)`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID fetches a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, display_name, role, institution_id, active, created_at, updated_at
        FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// BindInstitution attaches the user to a tenant with the given role. Used when
// founding an institution and when redeeming an invite.
func (r *UserRepository) BindInstitution(ctx context.Context, userID, institutionID string, role models.UserRole) error {
	const query = `UPDATE users SET institution_id = $2, role = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID, institutionID, role, time.Now().UTC()); err != nil {
		return fmt.Errorf("bind institution: %w", err)
	}
	return nil
}

// ListByInstitution returns all principals bound to a tenant.
func (r *UserRepository) ListByInstitution(ctx context.Context, institutionID string) ([]models.User, error) {
	const query = `SELECT id, email, password_hash, display_name, role, institution_id, active, created_at, updated_at
        FROM users WHERE institution_id = $1 ORDER BY created_at ASC`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, institutionID); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
