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

func TestPaymentRepositoryMarkPaidSkipsTerminal(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	paidAt := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments SET status = $3, paid_date = $4, method = $5")).
		WithArgs("inst-1", "pay-1", models.PaymentPaid, paidAt, models.PaymentMethodCash,
			models.PaymentPending, models.PaymentOverdue).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkPaid(context.Background(), "inst-1", "pay-1", paidAt, models.PaymentMethodCash)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryReconcileOverdue(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments SET status = $2")).
		WithArgs("inst-1", models.PaymentOverdue, models.PaymentPending, now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.ReconcileOverdue(context.Background(), "inst-1", now)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryCancelLeavesPaidAlone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments SET status = $3")).
		WithArgs("inst-1", "pay-1", models.PaymentCancelled,
			models.PaymentPending, models.PaymentOverdue).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Cancel(context.Background(), "inst-1", "pay-1")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
