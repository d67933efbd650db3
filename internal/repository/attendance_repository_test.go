package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/linguahub/institute-api/internal/models"
)

func TestAttendanceRepositoryUpsertConflictsOnCourseAndDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (institution_id, course_id, date)")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("att-original", created))

	sheet := &models.Attendance{
		InstitutionID: "inst-1",
		CourseID:      "crs-1",
		Date:          time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Records: models.AttendanceRecords{
			{StudentID: "stu-1", Status: models.AttendancePresent},
			{StudentID: "stu-2", Status: models.AttendanceLate},
		},
	}
	require.NoError(t, repo.Upsert(context.Background(), sheet))

	// The replaced row keeps its id; the freshly generated uuid is discarded
	// in favor of what the database returned.
	require.Equal(t, "att-original", sheet.ID)
	require.Equal(t, created, sheet.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryFindByCourseAndDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "institution_id", "course_id", "date", "records", "notes", "created_at", "created_by"}).
		AddRow("att-1", "inst-1", "crs-1", day, []byte(`[{"student_id":"stu-1","status":"present"}]`), nil, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE institution_id = $1 AND course_id = $2 AND date = $3")).
		WithArgs("inst-1", "crs-1", day).
		WillReturnRows(rows)

	sheet, err := repo.FindByCourseAndDate(context.Background(), "inst-1", "crs-1", day)
	require.NoError(t, err)
	require.Len(t, sheet.Records, 1)
	require.Equal(t, models.AttendancePresent, sheet.Records[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
