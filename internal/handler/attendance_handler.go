package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linguahub/institute-api/internal/service"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
	"github.com/linguahub/institute-api/pkg/response"
)

// AttendanceHandler exposes attendance sheet endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Save godoc
// @Summary Save the attendance sheet for a course day
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SaveAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Save(c *gin.Context) {
	claims := claimsFromContext(c)

	var req service.SaveAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	sheet, err := h.attendance.Save(c.Request.Context(), claims.InstitutionID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// GetByDate godoc
// @Summary Attendance sheet of a course on a given day
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param course_id path string true "Course ID"
// @Param date query string true "Day in YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /attendance/{course_id} [get]
func (h *AttendanceHandler) GetByDate(c *gin.Context) {
	claims := claimsFromContext(c)

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	sheet, err := h.attendance.GetByDate(c.Request.Context(), claims.InstitutionID, c.Param("course_id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// CourseHistory godoc
// @Summary All attendance sheets of a course
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param course_id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/{course_id}/history [get]
func (h *AttendanceHandler) CourseHistory(c *gin.Context) {
	claims := claimsFromContext(c)
	sheets, err := h.attendance.CourseHistory(c.Request.Context(), claims.InstitutionID, c.Param("course_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheets, nil)
}
