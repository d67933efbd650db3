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

func TestEnrollmentRepositoryUpdateStatusSkipsTerminal(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $3")).
		WithArgs("inst-1", "enr-1", models.EnrollmentStatusCompleted,
			models.EnrollmentStatusCompleted, models.EnrollmentStatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateStatus(context.Background(), "inst-1", "enr-1", models.EnrollmentStatusCompleted)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateStatusTransitionsActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $3")).
		WithArgs("inst-1", "enr-1", models.EnrollmentStatusCancelled,
			models.EnrollmentStatusCompleted, models.EnrollmentStatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdateStatus(context.Background(), "inst-1", "enr-1", models.EnrollmentStatusCancelled)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "institution_id", "student_id", "course_id", "start_date", "end_date", "status", "notes", "created_at"}).
		AddRow("enr-1", "inst-1", "stu-1", "crs-1", now, now.AddDate(0, 0, 30), models.EnrollmentStatusActive, nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE institution_id = $1")).
		WithArgs("inst-1").
		WillReturnRows(rows)

	enrollments, err := repo.ListAll(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.Equal(t, models.EnrollmentStatusActive, enrollments[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDeleteByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE institution_id = $1 AND student_id = $2")).
		WithArgs("inst-1", "stu-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteByStudent(context.Background(), "inst-1", "stu-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
