package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguahub/institute-api/internal/models"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
)

type mockAttendanceRepo struct {
	sheets map[string]models.Attendance // keyed course|date
}

func attendanceKey(courseID string, date time.Time) string {
	return courseID + "|" + date.Format("2006-01-02")
}

func (m *mockAttendanceRepo) Upsert(_ context.Context, attendance *models.Attendance) error {
	if attendance.ID == "" {
		attendance.ID = "generated"
	}
	if m.sheets == nil {
		m.sheets = make(map[string]models.Attendance)
	}
	// Mirrors the RETURNING clause of the real upsert: a replaced row keeps
	// its original id and created_at.
	key := attendanceKey(attendance.CourseID, attendance.Date)
	if existing, ok := m.sheets[key]; ok {
		attendance.ID = existing.ID
		attendance.CreatedAt = existing.CreatedAt
	}
	m.sheets[key] = *attendance
	return nil
}

func (m *mockAttendanceRepo) FindByCourseAndDate(_ context.Context, _ string, courseID string, date time.Time) (*models.Attendance, error) {
	if sheet, ok := m.sheets[attendanceKey(courseID, date)]; ok {
		return &sheet, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) ListByCourse(_ context.Context, _ string, courseID string) ([]models.Attendance, error) {
	var out []models.Attendance
	for _, sheet := range m.sheets {
		if sheet.CourseID == courseID {
			out = append(out, sheet)
		}
	}
	return out, nil
}

func (m *mockAttendanceRepo) ListAll(_ context.Context, _ string) ([]models.Attendance, error) {
	out := make([]models.Attendance, 0, len(m.sheets))
	for _, sheet := range m.sheets {
		out = append(out, sheet)
	}
	return out, nil
}

func newAttendanceFixture() (*AttendanceService, *mockAttendanceRepo) {
	repo := &mockAttendanceRepo{sheets: make(map[string]models.Attendance)}
	courses := &mockCourseFinder{courses: map[string]models.Course{
		"crs-1": {ID: "crs-1", InstitutionID: "inst-1", Name: "English B1", DurationDays: 30},
	}}
	return NewAttendanceService(repo, courses, testStores(nil, nil, nil, nil, nil), nil, nil), repo
}

func TestSaveAttendanceNormalizesDate(t *testing.T) {
	svc, repo := newAttendanceFixture()

	sheet, err := svc.Save(context.Background(), "inst-1", "user-1", SaveAttendanceRequest{
		CourseID: "crs-1",
		Date:     time.Date(2026, 3, 2, 18, 30, 0, 0, time.UTC),
		Records:  []models.AttendanceRecord{{StudentID: "stu-1", Status: models.AttendancePresent}},
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), sheet.Date)
	require.NotNil(t, sheet.CreatedBy)
	assert.Equal(t, "user-1", *sheet.CreatedBy)
	require.Len(t, repo.sheets, 1)
}

func TestSaveAttendanceReplacesSameDaySheet(t *testing.T) {
	svc, repo := newAttendanceFixture()
	morning := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)

	first, err := svc.Save(context.Background(), "inst-1", "user-1", SaveAttendanceRequest{
		CourseID: "crs-1",
		Date:     morning,
		Records:  []models.AttendanceRecord{{StudentID: "stu-1", Status: models.AttendancePresent}},
	})
	require.NoError(t, err)

	second, err := svc.Save(context.Background(), "inst-1", "user-1", SaveAttendanceRequest{
		CourseID: "crs-1",
		Date:     evening,
		Records:  []models.AttendanceRecord{{StudentID: "stu-1", Status: models.AttendanceAbsent}},
	})
	require.NoError(t, err)

	// Same course and calendar day: one sheet, latest records win, and the
	// response carries the id of the stored row rather than a fresh one.
	require.Len(t, repo.sheets, 1)
	assert.Equal(t, first.ID, second.ID)
	saved, err := svc.GetByDate(context.Background(), "inst-1", "crs-1", morning)
	require.NoError(t, err)
	assert.Equal(t, first.ID, saved.ID)
	require.Len(t, saved.Records, 1)
	assert.Equal(t, models.AttendanceAbsent, saved.Records[0].Status)
}

func TestSaveAttendanceRejectsUnknownStatus(t *testing.T) {
	svc, _ := newAttendanceFixture()

	_, err := svc.Save(context.Background(), "inst-1", "user-1", SaveAttendanceRequest{
		CourseID: "crs-1",
		Date:     time.Now(),
		Records:  []models.AttendanceRecord{{StudentID: "stu-1", Status: "vanished"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSaveAttendanceRejectsUnknownCourse(t *testing.T) {
	svc, _ := newAttendanceFixture()

	_, err := svc.Save(context.Background(), "inst-1", "user-1", SaveAttendanceRequest{
		CourseID: "missing",
		Date:     time.Now(),
		Records:  []models.AttendanceRecord{{StudentID: "stu-1", Status: models.AttendancePresent}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
