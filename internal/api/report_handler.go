package api

import (
	"errors"
	"fmt"
	"net/http"

	"mtr/training-app/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler holds the report service dependency.
type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// DownloadWeeklyReport streams the current week's spreadsheet as a download.
func (h *ReportHandler) DownloadWeeklyReport(c *gin.Context) {
	report, err := h.reportService.BuildWeeklyReport(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoAssignmentsInWindow) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to build weekly report")
		}
		return
	}
	defer report.File.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)

	if err := report.File.Write(c.Writer); err != nil {
		// Headers are already out; nothing useful left to send.
		_ = c.Error(err)
	}
}
