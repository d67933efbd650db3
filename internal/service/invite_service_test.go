package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguahub/institute-api/internal/models"
	"github.com/linguahub/institute-api/pkg/config"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
)

type mockInviteRepo struct {
	invites map[string]models.Invite
}

func (m *mockInviteRepo) Create(_ context.Context, invite *models.Invite) error {
	if m.invites == nil {
		m.invites = make(map[string]models.Invite)
	}
	m.invites[invite.ID] = *invite
	return nil
}

func (m *mockInviteRepo) FindByID(_ context.Context, id string) (*models.Invite, error) {
	if inv, ok := m.invites[id]; ok {
		return &inv, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockInviteRepo) ListByInstitution(_ context.Context, institutionID string) ([]models.Invite, error) {
	var out []models.Invite
	for _, inv := range m.invites {
		if inv.InstitutionID == institutionID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockInviteRepo) MarkUsed(_ context.Context, id, userID string, now time.Time) (bool, error) {
	inv, ok := m.invites[id]
	if !ok || inv.Used || !inv.ExpiresAt.After(now) {
		return false, nil
	}
	inv.Used = true
	inv.UsedBy = &userID
	usedAt := now
	inv.UsedAt = &usedAt
	m.invites[id] = inv
	return true, nil
}

func (m *mockInviteRepo) Delete(_ context.Context, institutionID, id string) error {
	if inv, ok := m.invites[id]; ok && inv.InstitutionID == institutionID {
		delete(m.invites, id)
	}
	return nil
}

type mockUserRepo struct {
	users map[string]models.User
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "generated"
	}
	if m.users == nil {
		m.users = make(map[string]models.User)
	}
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) BindInstitution(_ context.Context, userID, institutionID string, role models.UserRole) error {
	u := m.users[userID]
	u.InstitutionID = &institutionID
	u.Role = role
	m.users[userID] = u
	return nil
}

func (m *mockUserRepo) ListByInstitution(_ context.Context, institutionID string) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.InstitutionID != nil && *u.InstitutionID == institutionID {
			out = append(out, u)
		}
	}
	return out, nil
}

func newInviteFixture() (*InviteService, *mockInviteRepo, *mockUserRepo) {
	invites := &mockInviteRepo{invites: make(map[string]models.Invite)}
	users := &mockUserRepo{users: map[string]models.User{
		"user-1": {ID: "user-1", Email: "new@example.com", Role: models.RoleTeacher, Active: true},
	}}
	svc := NewInviteService(invites, users, config.InviteConfig{TTL: 7 * 24 * time.Hour}, nil, nil)
	return svc, invites, users
}

func TestCreateInviteExpiresAfterTTL(t *testing.T) {
	svc, _, _ := newInviteFixture()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	invite, err := svc.Create(context.Background(), "inst-1", "admin-1", CreateInviteRequest{Role: models.RoleTeacher})
	require.NoError(t, err)
	assert.NotEmpty(t, invite.ID)
	assert.NotContains(t, invite.ID, "-")
	assert.Equal(t, base.Add(7*24*time.Hour), invite.ExpiresAt)
	assert.False(t, invite.Used)
}

func TestRedeemBindsUserToInviteRole(t *testing.T) {
	svc, invites, users := newInviteFixture()
	invites.invites["tok-1"] = models.Invite{
		ID:            "tok-1",
		InstitutionID: "inst-1",
		Role:          models.RoleAdmin,
		ExpiresAt:     time.Now().Add(time.Hour),
	}

	user, err := svc.Redeem(context.Background(), "user-1", "tok-1")
	require.NoError(t, err)
	require.NotNil(t, user.InstitutionID)
	assert.Equal(t, "inst-1", *user.InstitutionID)
	assert.Equal(t, models.RoleAdmin, user.Role)

	bound := users.users["user-1"]
	require.NotNil(t, bound.InstitutionID)
	assert.Equal(t, "inst-1", *bound.InstitutionID)
}

func TestRedeemFailuresAreUniform(t *testing.T) {
	svc, invites, users := newInviteFixture()
	invites.invites["expired"] = models.Invite{
		ID:            "expired",
		InstitutionID: "inst-1",
		Role:          models.RoleTeacher,
		ExpiresAt:     time.Now().Add(-time.Hour),
	}
	usedBy := "someone"
	invites.invites["used"] = models.Invite{
		ID:            "used",
		InstitutionID: "inst-1",
		Role:          models.RoleTeacher,
		Used:          true,
		UsedBy:        &usedBy,
		ExpiresAt:     time.Now().Add(time.Hour),
	}

	for _, token := range []string{"missing", "expired", "used"} {
		_, err := svc.Redeem(context.Background(), "user-1", token)
		require.Error(t, err, token)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrInvalidInvite.Code, appErr.Code, token)
		assert.Equal(t, appErrors.ErrInvalidInvite.Message, appErr.Message, token)
	}

	// The failed redemptions must not have bound the user.
	assert.Nil(t, users.users["user-1"].InstitutionID)
}

func TestRedeemIsSingleUse(t *testing.T) {
	svc, invites, users := newInviteFixture()
	users.users["user-2"] = models.User{ID: "user-2", Email: "second@example.com", Role: models.RoleTeacher, Active: true}
	invites.invites["tok-1"] = models.Invite{
		ID:            "tok-1",
		InstitutionID: "inst-1",
		Role:          models.RoleTeacher,
		ExpiresAt:     time.Now().Add(time.Hour),
	}

	_, err := svc.Redeem(context.Background(), "user-1", "tok-1")
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), "user-2", "tok-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidInvite.Code, appErrors.FromError(err).Code)
}

func TestRedeemRefusesBoundUser(t *testing.T) {
	svc, invites, users := newInviteFixture()
	inst := "inst-9"
	users.users["user-1"] = models.User{ID: "user-1", InstitutionID: &inst, Role: models.RoleAdmin, Active: true}
	invites.invites["tok-1"] = models.Invite{
		ID:            "tok-1",
		InstitutionID: "inst-1",
		Role:          models.RoleTeacher,
		ExpiresAt:     time.Now().Add(time.Hour),
	}

	_, err := svc.Redeem(context.Background(), "user-1", "tok-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	// The invite stays unconsumed for someone else.
	assert.False(t, invites.invites["tok-1"].Used)
}
