package derive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/linguahub/institute-api/internal/models"
)

func TestStudentAttendanceStatsIgnoresMissingRecords(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC) }
	sheets := []models.Attendance{
		{ID: "att-1", CourseID: "crs-1", Date: day(2), Records: models.AttendanceRecords{
			{StudentID: "stu-1", Status: models.AttendancePresent},
			{StudentID: "stu-2", Status: models.AttendanceAbsent},
		}},
		{ID: "att-2", CourseID: "crs-1", Date: day(3), Records: models.AttendanceRecords{
			{StudentID: "stu-1", Status: models.AttendanceLate},
		}},
		// stu-1 has no record here: the session must not count for them.
		{ID: "att-3", CourseID: "crs-1", Date: day(4), Records: models.AttendanceRecords{
			{StudentID: "stu-2", Status: models.AttendancePresent},
		}},
	}

	stats := StudentAttendanceStats(sheets, "stu-1")
	assert.Equal(t, 1, stats.Present)
	assert.Equal(t, 1, stats.Late)
	assert.Equal(t, 0, stats.Absent)
	assert.Equal(t, 2, stats.Total)

	assert.Equal(t, models.AttendanceStats{}, StudentAttendanceStats(sheets, "stu-9"))
}
