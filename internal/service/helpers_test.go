package service

import (
	"context"

	"github.com/linguahub/institute-api/internal/models"
	"github.com/linguahub/institute-api/internal/store"
)

// testStores builds a tenant store set over fixed snapshots.
func testStores(students []models.Student, courses []models.Course, enrollments []models.Enrollment, payments []models.Payment, sheets []models.Attendance) *store.Set {
	return store.NewSet(func() *store.Registry {
		return &store.Registry{
			Students: store.New(func(_ context.Context, _ string) ([]models.Student, error) {
				return students, nil
			}),
			Courses: store.New(func(_ context.Context, _ string) ([]models.Course, error) {
				return courses, nil
			}),
			Enrollments: store.New(func(_ context.Context, _ string) ([]models.Enrollment, error) {
				return enrollments, nil
			}),
			Payments: store.New(func(_ context.Context, _ string) ([]models.Payment, error) {
				return payments, nil
			}),
			Attendance: store.New(func(_ context.Context, _ string) ([]models.Attendance, error) {
				return sheets, nil
			}),
		}
	})
}
