package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguahub/institute-api/internal/models"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
)

type mockInstitutionRepo struct {
	institutions map[string]models.Institution
}

func (m *mockInstitutionRepo) Create(_ context.Context, inst *models.Institution) error {
	if inst.ID == "" {
		inst.ID = "generated"
	}
	if m.institutions == nil {
		m.institutions = make(map[string]models.Institution)
	}
	m.institutions[inst.ID] = *inst
	return nil
}

func (m *mockInstitutionRepo) FindByID(_ context.Context, id string) (*models.Institution, error) {
	if inst, ok := m.institutions[id]; ok {
		return &inst, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockInstitutionRepo) FindByFounder(_ context.Context, founderID string) (*models.Institution, error) {
	for _, inst := range m.institutions {
		if inst.FounderID == founderID {
			return &inst, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockInstitutionRepo) UpdateName(_ context.Context, id, name string) error {
	inst := m.institutions[id]
	inst.Name = name
	m.institutions[id] = inst
	return nil
}

func newInstitutionFixture() (*InstitutionService, *mockInstitutionRepo, *mockUserRepo) {
	institutions := &mockInstitutionRepo{institutions: make(map[string]models.Institution)}
	users := &mockUserRepo{users: map[string]models.User{
		"founder": {ID: "founder", Email: "founder@example.com", Role: models.RoleAdmin, Active: true},
	}}
	return NewInstitutionService(institutions, users, nil, nil), institutions, users
}

func TestCreateInstitutionBindsFounderAsAdmin(t *testing.T) {
	svc, _, users := newInstitutionFixture()

	inst, err := svc.Create(context.Background(), "founder", CreateInstitutionRequest{Name: "LinguaHub Kadıköy"})
	require.NoError(t, err)
	assert.Equal(t, "founder", inst.FounderID)

	founder := users.users["founder"]
	require.NotNil(t, founder.InstitutionID)
	assert.Equal(t, inst.ID, *founder.InstitutionID)
	assert.Equal(t, models.RoleAdmin, founder.Role)
}

func TestCreateInstitutionRefusesSecondFounding(t *testing.T) {
	svc, _, _ := newInstitutionFixture()

	_, err := svc.Create(context.Background(), "founder", CreateInstitutionRequest{Name: "First"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "founder", CreateInstitutionRequest{Name: "Second"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestFoundingThenReissueCarriesTenantBinding(t *testing.T) {
	svc, _, users := newInstitutionFixture()
	auth := newAuthFixture(users)

	inst, err := svc.Create(context.Background(), "founder", CreateInstitutionRequest{Name: "LinguaHub Kadıköy"})
	require.NoError(t, err)

	// A token signed before founding has no tenant; the reissued one must
	// carry the new binding so tenant routes accept the founder immediately.
	resp, err := auth.Reissue(context.Background(), "founder")
	require.NoError(t, err)
	claims, err := auth.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, inst.ID, claims.InstitutionID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestRenameIsFounderOnly(t *testing.T) {
	svc, institutions, users := newInstitutionFixture()
	institutions.institutions["inst-1"] = models.Institution{ID: "inst-1", Name: "Old Name", FounderID: "founder"}
	inst := "inst-1"
	users.users["admin-2"] = models.User{ID: "admin-2", Role: models.RoleAdmin, InstitutionID: &inst, Active: true}

	_, err := svc.Rename(context.Background(), "inst-1", "admin-2", RenameInstitutionRequest{Name: "New Name"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "Old Name", institutions.institutions["inst-1"].Name)

	renamed, err := svc.Rename(context.Background(), "inst-1", "founder", RenameInstitutionRequest{Name: "New Name"})
	require.NoError(t, err)
	assert.Equal(t, "New Name", renamed.Name)
	assert.Equal(t, "New Name", institutions.institutions["inst-1"].Name)
}
