package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduPulse-2025/assessment-platform/internal/services"
	"github.com/EduPulse-2025/assessment-platform/internal/utils"
)

type StudentHandler struct {
	BaseHandler
	service services.StudentService
}

func NewStudentHandler(service services.StudentService, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== STUDENT ENDPOINTS =====

// GetStatistics returns a student's summary across all assessments.
func (h *StudentHandler) GetStatistics(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid student id"})
		return
	}

	stats, err := h.service.GetStatistics(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetPerformanceReport returns the detailed cross-assessment report with
// the recent improvement trend.
func (h *StudentHandler) GetPerformanceReport(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid student id"})
		return
	}

	h.LogRequest(c, "Building performance report", "student_id", studentID)

	report, err := h.service.GetPerformanceReport(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetAssessmentPerformance returns one student's history on one assessment.
func (h *StudentHandler) GetAssessmentPerformance(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid student id"})
		return
	}
	assessmentID := h.parseIDParam(c, "assessment_id")
	if assessmentID == 0 {
		return
	}

	performance, err := h.service.GetAssessmentPerformance(c.Request.Context(), studentID, assessmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, performance)
}

// ListAttempts returns the student's attempts on an assessment, oldest
// first.
func (h *StudentHandler) ListAttempts(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid student id"})
		return
	}
	assessmentID := h.parseIDParam(c, "assessment_id")
	if assessmentID == 0 {
		return
	}

	attempts, err := h.service.ListAttempts(c.Request.Context(), studentID, assessmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"student_id":    studentID,
		"assessment_id": assessmentID,
		"attempts":      attempts,
	})
}
