// Package derive holds the pure derivation layer: view-ready facts computed
// from raw records, with no persistence side effects. Unresolvable references
// are excluded rather than raised, so derived views stay robust against
// transiently inconsistent snapshots.
package derive

import (
	"sort"
	"time"

	"github.com/linguahub/institute-api/internal/models"
)

// DefaultExpiringThresholdDays is the expiring-soon window.
const DefaultExpiringThresholdDays = 7

// StartOfDay normalizes a timestamp to UTC midnight. All day-granularity
// comparisons in the domain go through this.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar-day difference end-from, truncating
// partial days toward the earlier day boundary.
func DaysBetween(from, end time.Time) int {
	return int(StartOfDay(end).Sub(StartOfDay(from)).Hours() / 24)
}

// EffectiveStatus layers date-based expiry on top of the persisted status.
// A persisted active enrollment whose end date has passed reads as expired;
// terminal statuses dominate the date rule. Nothing is written.
func EffectiveStatus(e models.Enrollment, today time.Time) models.EnrollmentStatus {
	if e.Status == models.EnrollmentStatusActive && StartOfDay(today).After(StartOfDay(e.EndDate)) {
		return models.EnrollmentStatusExpired
	}
	return e.Status
}

// EnrollmentDetail resolves one enrollment against student and course indexes.
// Returns false when either reference is unresolvable.
func EnrollmentDetail(e models.Enrollment, students map[string]models.Student, courses map[string]models.Course, today time.Time) (models.EnrollmentDetail, bool) {
	student, ok := students[e.StudentID]
	if !ok {
		return models.EnrollmentDetail{}, false
	}
	course, ok := courses[e.CourseID]
	if !ok {
		return models.EnrollmentDetail{}, false
	}

	daysRemaining := DaysBetween(today, e.EndDate)
	effective := EffectiveStatus(e, today)

	return models.EnrollmentDetail{
		Enrollment:      e,
		Student:         student,
		Course:          course,
		EffectiveStatus: effective,
		DaysRemaining:   daysRemaining,
		// Due today (zero days) is not flagged; the window is (0, 7].
		IsExpiringSoon: effective == models.EnrollmentStatusActive && daysRemaining > 0 && daysRemaining <= DefaultExpiringThresholdDays,
	}, true
}

// EnrollmentsWithDetails maps raw enrollments to display-ready rows, silently
// dropping rows whose student or course cannot be resolved.
func EnrollmentsWithDetails(enrollments []models.Enrollment, students []models.Student, courses []models.Course, today time.Time) []models.EnrollmentDetail {
	studentIdx := make(map[string]models.Student, len(students))
	for _, s := range students {
		studentIdx[s.ID] = s
	}
	courseIdx := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		courseIdx[c.ID] = c
	}

	details := make([]models.EnrollmentDetail, 0, len(enrollments))
	for _, e := range enrollments {
		if detail, ok := EnrollmentDetail(e, studentIdx, courseIdx, today); ok {
			details = append(details, detail)
		}
	}
	return details
}

// ExpiringEnrollments filters effective-active enrollments inside the
// (0, threshold] window, soonest-expiring first.
func ExpiringEnrollments(enrollments []models.Enrollment, students []models.Student, courses []models.Course, today time.Time, thresholdDays int) []models.EnrollmentDetail {
	if thresholdDays <= 0 {
		thresholdDays = DefaultExpiringThresholdDays
	}

	var expiring []models.EnrollmentDetail
	for _, detail := range EnrollmentsWithDetails(enrollments, students, courses, today) {
		if detail.EffectiveStatus != models.EnrollmentStatusActive {
			continue
		}
		if detail.DaysRemaining > 0 && detail.DaysRemaining <= thresholdDays {
			expiring = append(expiring, detail)
		}
	}

	sort.SliceStable(expiring, func(i, j int) bool {
		return expiring[i].DaysRemaining < expiring[j].DaysRemaining
	})
	return expiring
}

// StudentEnrollments narrows the detailed view to one student.
func StudentEnrollments(enrollments []models.Enrollment, students []models.Student, courses []models.Course, today time.Time, studentID string) []models.EnrollmentDetail {
	var out []models.EnrollmentDetail
	for _, detail := range EnrollmentsWithDetails(enrollments, students, courses, today) {
		if detail.StudentID == studentID {
			out = append(out, detail)
		}
	}
	return out
}
