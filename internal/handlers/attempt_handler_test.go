package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EduPulse-2025/assessment-platform/internal/models"
	"github.com/EduPulse-2025/assessment-platform/internal/services"
	"github.com/EduPulse-2025/assessment-platform/internal/utils"
	"github.com/EduPulse-2025/assessment-platform/internal/validator"
)

// stubAttemptService returns canned results so the tests can focus on the
// HTTP layer: identity, parameter parsing and error mapping.
type stubAttemptService struct {
	startResult *services.StartAttemptResult
	startErr    error
	submitErr   error
	completeErr error
}

func (s *stubAttemptService) Start(ctx context.Context, assessmentID uint, studentID string) (*services.StartAttemptResult, error) {
	return s.startResult, s.startErr
}

func (s *stubAttemptService) SubmitResponse(ctx context.Context, attemptID uint, studentID string, req *services.SubmitResponseRequest) (*services.SubmitResponseResult, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return &services.SubmitResponseResult{ResponseID: 1, Correct: true}, nil
}

func (s *stubAttemptService) Complete(ctx context.Context, attemptID uint, studentID string) (*services.CompleteAttemptResult, error) {
	if s.completeErr != nil {
		return nil, s.completeErr
	}
	return &services.CompleteAttemptResult{TotalScore: 1, MaxPossibleScore: 2, Percentage: 50}, nil
}

func (s *stubAttemptService) CompleteFreeForm(ctx context.Context, assessmentID uint, studentID string, attemptID *uint) (*services.PerformanceSummary, error) {
	return &services.PerformanceSummary{}, nil
}

func (s *stubAttemptService) RemainingAttempts(ctx context.Context, assessmentID uint, studentID string) (*services.AttemptControl, error) {
	return &services.AttemptControl{CanStart: true}, nil
}

func newAttemptTestRouter(service services.AttemptService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	handler := NewAttemptHandler(service, validator.New(), logger)

	router := gin.New()
	router.Use(IdentityMiddleware())
	router.POST("/api/v1/assessments/:id/start-attempt", handler.StartAttempt)
	router.POST("/api/v1/attempts/:id/submit-response", handler.SubmitResponse)
	router.POST("/api/v1/attempts/:id/complete", handler.CompleteAttempt)
	return router
}

func TestStartAttemptRequiresIdentity(t *testing.T) {
	router := newAttemptTestRouter(&stubAttemptService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments/1/start-attempt", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Missing user identity", body.Message)
}

func TestStartAttemptRejectsBadID(t *testing.T) {
	router := newAttemptTestRouter(&stubAttemptService{})

	for _, raw := range []string{"abc", "0", "-3"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments/"+raw+"/start-attempt", nil)
		req.Header.Set("X-User-ID", "alice")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "id %q", raw)
	}
}

func TestStartAttemptStatusCodes(t *testing.T) {
	attempt := &models.TestAttempt{ID: 5, AttemptNumber: 1}

	tests := []struct {
		name       string
		service    *stubAttemptService
		wantStatus int
	}{
		{
			name:       "fresh attempt",
			service:    &stubAttemptService{startResult: &services.StartAttemptResult{Attempt: attempt}},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "resumed attempt",
			service:    &stubAttemptService{startResult: &services.StartAttemptResult{Attempt: attempt, Resumed: true}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown assessment",
			service:    &stubAttemptService{startErr: services.ErrAssessmentNotFound},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "attempt limit reached",
			service:    &stubAttemptService{startErr: services.ErrAttemptLimitExceeded},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "past due date",
			service:    &stubAttemptService{startErr: services.ErrDueDatePassed},
			wantStatus: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAttemptTestRouter(tt.service)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments/1/start-attempt", nil)
			req.Header.Set("X-User-ID", "alice")
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestSubmitResponseErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "attempt not found", err: services.ErrAttemptNotFound, wantStatus: http.StatusNotFound},
		{name: "foreign attempt", err: services.ErrAttemptOwnership, wantStatus: http.StatusForbidden},
		{name: "attempt already closed", err: services.ErrInvalidAttemptState, wantStatus: http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAttemptTestRouter(&stubAttemptService{submitErr: tt.err})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/attempts/5/submit-response",
				strings.NewReader(`{"question_id": 1, "response": "A"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-User-ID", "alice")
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestSubmitResponseRejectsMalformedBody(t *testing.T) {
	router := newAttemptTestRouter(&stubAttemptService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attempts/5/submit-response",
		strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "alice")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompleteAttemptValidationMapping(t *testing.T) {
	router := newAttemptTestRouter(&stubAttemptService{completeErr: services.ErrNoResponses})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attempts/5/complete", nil)
	req.Header.Set("X-User-ID", "alice")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
