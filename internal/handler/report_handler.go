package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linguahub/institute-api/internal/service"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
	"github.com/linguahub/institute-api/pkg/response"
)

// ReportHandler streams CSV and PDF exports.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Students godoc
// @Summary Export the student roster
// @Tags Reports
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /reports/students [get]
func (h *ReportHandler) Students(c *gin.Context) {
	format, err := reportFormat(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	file, err := h.reports.Students(c.Request.Context(), claims.InstitutionID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveReport(c, file)
}

// Payments godoc
// @Summary Export the payment ledger
// @Tags Reports
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /reports/payments [get]
func (h *ReportHandler) Payments(c *gin.Context) {
	format, err := reportFormat(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	file, err := h.reports.Payments(c.Request.Context(), claims.InstitutionID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveReport(c, file)
}

// Enrollments godoc
// @Summary Export enrollments with derived status
// @Tags Reports
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /reports/enrollments [get]
func (h *ReportHandler) Enrollments(c *gin.Context) {
	format, err := reportFormat(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	file, err := h.reports.Enrollments(c.Request.Context(), claims.InstitutionID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveReport(c, file)
}

func reportFormat(c *gin.Context) (service.ReportFormat, error) {
	switch raw := c.DefaultQuery("format", "csv"); raw {
	case "csv":
		return service.FormatCSV, nil
	case "pdf":
		return service.FormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func serveReport(c *gin.Context, file *service.ReportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
