package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/linguahub/institute-api/internal/models"
)

// InviteRepository manages persistence for invite tokens. The invite ID is the
// opaque token itself; the service layer generates it.
type InviteRepository struct {
	db *sqlx.DB
}

// NewInviteRepository constructs an InviteRepository.
func NewInviteRepository(db *sqlx.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

// Create inserts a new invite.
func (r *InviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	if invite.CreatedAt.IsZero() {
		invite.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO invites (id, institution_id, role, used, used_by, used_at, expires_at, created_by, created_at)
        VALUES (:id, :institution_id, :role, :used, :used_by, :used_at, :expires_at, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, invite); err != nil {
		return fmt.Errorf("create invite: %w", err)
	}
	return nil
}

// FindByID fetches an invite by its token.
func (r *InviteRepository) FindByID(ctx context.Context, id string) (*models.Invite, error) {
	const query = `SELECT id, institution_id, role, used, used_by, used_at, expires_at, created_by, created_at
        FROM invites WHERE id = $1`
	var invite models.Invite
	if err := r.db.GetContext(ctx, &invite, query, id); err != nil {
		return nil, err
	}
	return &invite, nil
}

// ListByInstitution returns all invites issued by a tenant, newest first.
func (r *InviteRepository) ListByInstitution(ctx context.Context, institutionID string) ([]models.Invite, error) {
	const query = `SELECT id, institution_id, role, used, used_by, used_at, expires_at, created_by, created_at
        FROM invites WHERE institution_id = $1 ORDER BY created_at DESC`
	var invites []models.Invite
	if err := r.db.SelectContext(ctx, &invites, query, institutionID); err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	return invites, nil
}

// MarkUsed consumes an invite atomically. Returns false when the invite was
// already used or past its expiry, so concurrent redemptions cannot both win.
func (r *InviteRepository) MarkUsed(ctx context.Context, id, userID string, now time.Time) (bool, error) {
	const query = `UPDATE invites SET used = true, used_by = $2, used_at = $3
        WHERE id = $1 AND used = false AND expires_at > $3`
	res, err := r.db.ExecContext(ctx, query, id, userID, now.UTC())
	if err != nil {
		return false, fmt.Errorf("mark invite used: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark invite used: %w", err)
	}
	return affected == 1, nil
}

// Delete revokes an invite within the tenant scope.
func (r *InviteRepository) Delete(ctx context.Context, institutionID, id string) error {
	const query = `DELETE FROM invites WHERE institution_id = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, institutionID, id); err != nil {
		return fmt.Errorf("delete invite: %w", err)
	}
	return nil
}
