package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguahub/institute-api/internal/models"
	"github.com/linguahub/institute-api/pkg/config"
)

func TestDashboardSummaryAggregates(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	students := []models.Student{
		{ID: "stu-1", InstitutionID: "inst-1", FirstName: "Ayşe", LastName: "Yılmaz"},
		{ID: "stu-2", InstitutionID: "inst-1", FirstName: "Mehmet", LastName: "Demir"},
	}
	courses := []models.Course{
		{ID: "crs-1", InstitutionID: "inst-1", Name: "English B1", DurationDays: 60},
	}
	enrollments := []models.Enrollment{
		{ID: "e-1", InstitutionID: "inst-1", StudentID: "stu-1", CourseID: "crs-1",
			StartDate: now.AddDate(0, 0, -10), EndDate: now.AddDate(0, 0, 50),
			Status: models.EnrollmentStatusActive},
		{ID: "e-2", InstitutionID: "inst-1", StudentID: "stu-2", CourseID: "crs-1",
			StartDate: now.AddDate(0, 0, -57), EndDate: now.AddDate(0, 0, 3),
			Status: models.EnrollmentStatusActive},
		{ID: "e-3", InstitutionID: "inst-1", StudentID: "stu-1", CourseID: "crs-1",
			StartDate: now.AddDate(0, 0, -90), EndDate: now.AddDate(0, 0, -30),
			Status: models.EnrollmentStatusCompleted},
	}
	payments := []models.Payment{
		{ID: "p-1", InstitutionID: "inst-1", Amount: 100, DueDate: now.AddDate(0, 0, -5), Status: models.PaymentPaid},
		{ID: "p-2", InstitutionID: "inst-1", Amount: 50, DueDate: now.AddDate(0, 0, 5), Status: models.PaymentPending},
		{ID: "p-3", InstitutionID: "inst-1", Amount: 75, DueDate: now.AddDate(0, 0, -2), Status: models.PaymentPending},
	}

	svc := NewDashboardService(testStores(students, courses, enrollments, payments, nil), nil, config.DashboardConfig{}, nil)
	svc.now = func() time.Time { return now }

	summary, err := svc.Summary(context.Background(), "inst-1")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.StudentCount)
	assert.Equal(t, 1, summary.CourseCount)
	assert.Equal(t, 2, summary.ActiveEnrollments)
	require.Len(t, summary.ExpiringSoon, 1)
	assert.Equal(t, "e-2", summary.ExpiringSoon[0].ID)
	require.NotNil(t, summary.Payments)
	assert.Equal(t, 100.0, summary.Payments.PaidSum)
	assert.Equal(t, 50.0, summary.Payments.PendingSum)
	assert.Equal(t, 75.0, summary.Payments.OverdueSum)
	assert.Equal(t, 1, summary.Payments.OverdueCount)
}

func TestDashboardWatcherObservesStoreRefresh(t *testing.T) {
	stores := testStores(nil, nil, nil, nil, nil)
	svc := NewDashboardService(stores, nil, config.DashboardConfig{}, nil)

	refreshed := make(chan string, 8)
	svc.SetRefreshObserver(func(collection string) { refreshed <- collection })

	_, err := svc.Summary(context.Background(), "inst-1")
	require.NoError(t, err)

	reg, err := stores.For(context.Background(), "inst-1")
	require.NoError(t, err)

	// The watcher subscribes asynchronously, so keep invalidating until the
	// notification arrives.
	var got string
	require.Eventually(t, func() bool {
		_ = reg.Enrollments.Invalidate(context.Background())
		select {
		case got = <-refreshed:
			return true
		default:
			return false
		}
	}, 2*time.Second, 50*time.Millisecond)
	assert.Equal(t, "enrollments", got)
}

func TestDashboardCloseStopsWatchers(t *testing.T) {
	svc := NewDashboardService(testStores(nil, nil, nil, nil, nil), nil, config.DashboardConfig{}, nil)

	// Start the per-tenant watcher, then close; Close blocks until the
	// watcher goroutine has exited.
	_, err := svc.Summary(context.Background(), "inst-1")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		svc.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watchers did not stop on close")
	}
}
