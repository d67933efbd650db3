package derive

import "github.com/linguahub/institute-api/internal/models"

// StudentAttendanceStats tallies one student's marks across all sessions.
// A session with no record for the student contributes nothing; absence of a
// record is not an absent mark.
func StudentAttendanceStats(sheets []models.Attendance, studentID string) models.AttendanceStats {
	var stats models.AttendanceStats
	for _, sheet := range sheets {
		for _, record := range sheet.Records {
			if record.StudentID != studentID {
				continue
			}
			switch record.Status {
			case models.AttendancePresent:
				stats.Present++
			case models.AttendanceAbsent:
				stats.Absent++
			case models.AttendanceLate:
				stats.Late++
			case models.AttendanceExcused:
				stats.Excused++
			}
			stats.Total++
			break
		}
	}
	return stats
}
