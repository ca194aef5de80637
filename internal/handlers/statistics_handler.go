package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduPulse-2025/assessment-platform/internal/services"
	"github.com/EduPulse-2025/assessment-platform/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type StatisticsHandler struct {
	BaseHandler
	service services.StatisticsService
}

func NewStatisticsHandler(service services.StatisticsService, logger utils.Logger) *StatisticsHandler {
	return &StatisticsHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetStatistics returns the class statistics of one assessment. The
// statistics field is null until at least one student completes it.
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	stats, err := h.service.Get(c.Request.Context(), assessmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportStatistics streams the class statistics as an xlsx workbook.
func (h *StatisticsHandler) ExportStatistics(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	h.LogRequest(c, "Exporting class statistics", "assessment_id", assessmentID)

	workbook, err := h.service.Export(c.Request.Context(), assessmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("assessment_%d_statistics.xlsx", assessmentID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, workbook)
}

// GetOverview aggregates the statistics of all assessments.
func (h *StatisticsHandler) GetOverview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
