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

type mockTeacherRepo struct {
	teachers map[string]models.Teacher
}

func (m *mockTeacherRepo) List(_ context.Context, _ string, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	var out []models.Teacher
	for _, t := range m.teachers {
		if filter.Active != nil && t.IsActive != *filter.Active {
			continue
		}
		out = append(out, t)
	}
	return out, len(out), nil
}

func (m *mockTeacherRepo) FindByID(_ context.Context, _ string, id string) (*models.Teacher, error) {
	if t, ok := m.teachers[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) Create(_ context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = "generated"
	}
	if m.teachers == nil {
		m.teachers = make(map[string]models.Teacher)
	}
	m.teachers[teacher.ID] = *teacher
	return nil
}

func (m *mockTeacherRepo) Update(_ context.Context, teacher *models.Teacher) error {
	m.teachers[teacher.ID] = *teacher
	return nil
}

func (m *mockTeacherRepo) Deactivate(_ context.Context, _ string, id string) error {
	t := m.teachers[id]
	t.IsActive = false
	m.teachers[id] = t
	return nil
}

func TestCreateTeacherDefaultsActive(t *testing.T) {
	repo := &mockTeacherRepo{teachers: make(map[string]models.Teacher)}
	svc := NewTeacherService(repo, nil, nil)

	teacher, err := svc.Create(context.Background(), "inst-1", TeacherRequest{
		FirstName: "Elif",
		LastName:  "Kaya",
	})
	require.NoError(t, err)
	assert.True(t, teacher.IsActive)
	assert.Equal(t, "inst-1", teacher.InstitutionID)
}

func TestDeleteTeacherDeactivatesInsteadOfRemoving(t *testing.T) {
	repo := &mockTeacherRepo{teachers: map[string]models.Teacher{
		"tch-1": {ID: "tch-1", InstitutionID: "inst-1", FirstName: "Elif", LastName: "Kaya", IsActive: true},
	}}
	svc := NewTeacherService(repo, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "inst-1", "tch-1"))

	stored, ok := repo.teachers["tch-1"]
	require.True(t, ok)
	assert.False(t, stored.IsActive)
}

func TestDeleteTeacherUnknownID(t *testing.T) {
	svc := NewTeacherService(&mockTeacherRepo{}, nil, nil)

	err := svc.Delete(context.Background(), "inst-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
