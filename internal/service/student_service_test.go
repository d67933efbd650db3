package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguahub/institute-api/internal/models"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
)

type mockStudentRepo struct {
	students map[string]models.Student
	deleted  []string
}

func (m *mockStudentRepo) List(_ context.Context, _ string, _ models.StudentFilter) ([]models.Student, int, error) {
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(_ context.Context, _ string, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(_ context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = "generated"
	}
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(_ context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, _ string, id string) error {
	delete(m.students, id)
	m.deleted = append(m.deleted, "student:"+id)
	return nil
}

type mockCascadeRemover struct {
	label string
	log   *[]string
	fail  bool
}

func (m *mockCascadeRemover) DeleteByStudent(_ context.Context, _ string, studentID string) error {
	if m.fail {
		return errors.New("boom")
	}
	*m.log = append(*m.log, m.label+":"+studentID)
	return nil
}

func TestDeleteStudentCascadesDependentsFirst(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", InstitutionID: "inst-1", FirstName: "Ayşe", LastName: "Yılmaz"},
	}}
	repo.deleted = nil
	payments := &mockCascadeRemover{label: "payments", log: &repo.deleted}
	enrollments := &mockCascadeRemover{label: "enrollments", log: &repo.deleted}
	svc := NewStudentService(repo, enrollments, payments, testStores(nil, nil, nil, nil, nil), nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "inst-1", "stu-1"))

	assert.Equal(t, []string{"payments:stu-1", "enrollments:stu-1", "student:stu-1"}, repo.deleted)
	assert.Empty(t, repo.students)
}

func TestDeleteStudentStopsWhenCascadeFails(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", InstitutionID: "inst-1"},
	}}
	repo.deleted = nil
	payments := &mockCascadeRemover{label: "payments", log: &repo.deleted, fail: true}
	enrollments := &mockCascadeRemover{label: "enrollments", log: &repo.deleted}
	svc := NewStudentService(repo, enrollments, payments, testStores(nil, nil, nil, nil, nil), nil, nil)

	err := svc.Delete(context.Background(), "inst-1", "stu-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	// The student row survives when a dependent delete fails.
	_, ok := repo.students["stu-1"]
	assert.True(t, ok)
	assert.Empty(t, repo.deleted)
}

func TestDeleteStudentUnknownID(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, nil, nil, testStores(nil, nil, nil, nil, nil), nil, nil)

	err := svc.Delete(context.Background(), "inst-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
