package store

import (
	"context"

	"github.com/linguahub/institute-api/internal/models"
	"github.com/linguahub/institute-api/internal/repository"
)

// Registry bundles the per-collection stores for one deployment. Services hold
// the registry and invalidate the collections they write to.
type Registry struct {
	Students    *Store[models.Student]
	Courses     *Store[models.Course]
	Enrollments *Store[models.Enrollment]
	Payments    *Store[models.Payment]
	Attendance  *Store[models.Attendance]
}

// NewRegistry wires each store to its repository loader.
func NewRegistry(
	students *repository.StudentRepository,
	courses *repository.CourseRepository,
	enrollments *repository.EnrollmentRepository,
	payments *repository.PaymentRepository,
	attendance *repository.AttendanceRepository,
) *Registry {
	return &Registry{
		Students:    New(students.ListAll),
		Courses:     New(courses.ListAll),
		Enrollments: New(enrollments.ListAll),
		Payments:    New(payments.ListAll),
		Attendance:  New(attendance.ListAll),
	}
}

// Initialize loads every collection for the tenant. Already-initialized
// collections for the same tenant are left untouched.
func (r *Registry) Initialize(ctx context.Context, institutionID string) error {
	if err := r.Students.Initialize(ctx, institutionID); err != nil {
		return err
	}
	if err := r.Courses.Initialize(ctx, institutionID); err != nil {
		return err
	}
	if err := r.Enrollments.Initialize(ctx, institutionID); err != nil {
		return err
	}
	if err := r.Payments.Initialize(ctx, institutionID); err != nil {
		return err
	}
	return r.Attendance.Initialize(ctx, institutionID)
}

// Watch forwards every collection refresh to onRefresh with the collection
// name, until ctx is done. It blocks, so callers run it in its own goroutine.
func (r *Registry) Watch(ctx context.Context, onRefresh func(collection string)) {
	students, cancelStudents := r.Students.Subscribe()
	defer cancelStudents()
	courses, cancelCourses := r.Courses.Subscribe()
	defer cancelCourses()
	enrollments, cancelEnrollments := r.Enrollments.Subscribe()
	defer cancelEnrollments()
	payments, cancelPayments := r.Payments.Subscribe()
	defer cancelPayments()
	attendance, cancelAttendance := r.Attendance.Subscribe()
	defer cancelAttendance()

	for {
		select {
		case <-ctx.Done():
			return
		case <-students:
			onRefresh("students")
		case <-courses:
			onRefresh("courses")
		case <-enrollments:
			onRefresh("enrollments")
		case <-payments:
			onRefresh("payments")
		case <-attendance:
			onRefresh("attendance")
		}
	}
}

// Reset clears every collection, for logout and tenant teardown.
func (r *Registry) Reset() {
	r.Students.Reset()
	r.Courses.Reset()
	r.Enrollments.Reset()
	r.Payments.Reset()
	r.Attendance.Reset()
}
