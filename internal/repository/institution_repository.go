package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/linguahub/institute-api/internal/models"
)

// InstitutionRepository manages persistence for tenant organizations.
type InstitutionRepository struct {
	db *sqlx.DB
}

// NewInstitutionRepository constructs an InstitutionRepository.
func NewInstitutionRepository(db *sqlx.DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

// Create inserts a new institution record.
func (r *InstitutionRepository) Create(ctx context.Context, inst *models.Institution) error {
	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = now
	}
	inst.UpdatedAt = now
	const query = `INSERT INTO institutions (id, name, founder_id, created_at, updated_at)
        VALUES (:id, :name, :founder_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, inst); err != nil {
		return fmt.Errorf("create institution: %w", err)
	}
	return nil
}

// FindByID fetches an institution by ID.
func (r *InstitutionRepository) FindByID(ctx context.Context, id string) (*models.Institution, error) {
	const query = `SELECT id, name, founder_id, created_at, updated_at FROM institutions WHERE id = $1`
	var inst models.Institution
	if err := r.db.GetContext(ctx, &inst, query, id); err != nil {
		return nil, err
	}
	return &inst, nil
}

// FindByFounder fetches the institution founded by the given user, if any.
func (r *InstitutionRepository) FindByFounder(ctx context.Context, founderID string) (*models.Institution, error) {
	const query = `SELECT id, name, founder_id, created_at, updated_at FROM institutions WHERE founder_id = $1`
	var inst models.Institution
	if err := r.db.GetContext(ctx, &inst, query, founderID); err != nil {
		return nil, err
	}
	return &inst, nil
}

// UpdateName renames the institution. Authorization is enforced upstream.
func (r *InstitutionRepository) UpdateName(ctx context.Context, id, name string) error {
	const query = `UPDATE institutions SET name = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, name, time.Now().UTC()); err != nil {
		return fmt.Errorf("rename institution: %w", err)
	}
	return nil
}
