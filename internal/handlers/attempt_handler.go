package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/EduPulse-2025/assessment-platform/internal/services"
	"github.com/EduPulse-2025/assessment-platform/internal/utils"
	"github.com/EduPulse-2025/assessment-platform/internal/validator"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	validator      *validator.Validator
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	validator *validator.Validator,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		validator:      validator,
	}
}

// StartAttempt opens a new attempt for the assessment, or returns the
// caller's open attempt when one exists.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	studentID, ok := h.requireStudentID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting attempt", "assessment_id", assessmentID)

	result, err := h.attemptService.Start(c.Request.Context(), assessmentID, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// SubmitResponse grades and records one answer on an open attempt.
func (h *AttemptHandler) SubmitResponse(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	studentID, ok := h.requireStudentID(c)
	if !ok {
		return
	}

	var req services.SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.attemptService.SubmitResponse(c.Request.Context(), attemptID, studentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CompleteAttempt finalizes an open attempt. Completing an already
// completed attempt returns the stored result.
func (h *AttemptHandler) CompleteAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	studentID, ok := h.requireStudentID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Completing attempt", "attempt_id", attemptID)

	result, err := h.attemptService.Complete(c.Request.Context(), attemptID, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CompleteFreeForm builds a performance profile from the student's loose
// response history for the assessment. An attempt_id query parameter
// narrows the history to a single attempt.
func (h *AttemptHandler) CompleteFreeForm(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	studentID, ok := h.requireStudentID(c)
	if !ok {
		return
	}

	var attemptID *uint
	if raw := c.Query("attempt_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || parsed == 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid attempt_id parameter",
			})
			return
		}
		id := uint(parsed)
		attemptID = &id
	}

	h.LogRequest(c, "Completing free-form assessment", "assessment_id", assessmentID)

	summary, err := h.attemptService.CompleteFreeForm(c.Request.Context(), assessmentID, studentID, attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// RemainingAttempts reports the caller's attempt policy state for the
// assessment.
func (h *AttemptHandler) RemainingAttempts(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	studentID, ok := h.requireStudentID(c)
	if !ok {
		return
	}

	control, err := h.attemptService.RemainingAttempts(c.Request.Context(), assessmentID, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, control)
}
