package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EduPulse-2025/assessment-platform/internal/events"
	"github.com/EduPulse-2025/assessment-platform/internal/generation"
	"github.com/EduPulse-2025/assessment-platform/internal/models"
	"github.com/EduPulse-2025/assessment-platform/internal/repositories"
	"github.com/EduPulse-2025/assessment-platform/internal/validator"
)

func newAssessmentTestEnv() (*fakeRepository, AssessmentService, *events.MockEventPublisher) {
	repo := newFakeRepository()
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)
	service := NewAssessmentService(
		repo,
		generation.NewFallbackGenerator(),
		publisher,
		logger,
		validator.New(),
	)
	return repo, service, publisher
}

func TestCreateAssessment(t *testing.T) {
	repo, svc, publisher := newAssessmentTestEnv()
	ctx := context.Background()

	teacherID := "teacher-7"
	response, err := svc.Create(ctx, &CreateAssessmentRequest{
		Topic:        "Cell Biology",
		Description:  "Membranes and organelles",
		BloomLevel:   "understand",
		NumQuestions: 6,
		TeacherID:    &teacherID,
	})
	require.NoError(t, err)

	assert.Equal(t, "Cell Biology", response.Topic)
	assert.Equal(t, models.BloomUnderstand, response.BloomLevel)
	assert.Equal(t, 6, response.QuestionCount)
	require.Len(t, response.Questions, 6)

	// Question types cycle through the generator's rotation
	assert.Equal(t, models.QuestionMCQSingle, response.Questions[0].Type)
	assert.Equal(t, models.QuestionMCQMultiple, response.Questions[1].Type)
	assert.Equal(t, models.QuestionNumeric, response.Questions[2].Type)

	// The default attempt policy is stored alongside
	settings, err := repo.Settings().GetByAssessment(ctx, response.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, settings.MaxAttempts)
	assert.False(t, settings.RetakeAllowed)
	assert.True(t, settings.ShowResultsImmediately)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAssessmentCreated, published[0].Type)
}

func TestCreateAssessmentValidation(t *testing.T) {
	_, svc, _ := newAssessmentTestEnv()
	ctx := context.Background()

	tests := []struct {
		name string
		req  *CreateAssessmentRequest
	}{
		{
			name: "missing topic",
			req:  &CreateAssessmentRequest{BloomLevel: "understand", NumQuestions: 5},
		},
		{
			name: "unknown bloom level",
			req:  &CreateAssessmentRequest{Topic: "Topic", BloomLevel: "memorize", NumQuestions: 5},
		},
		{
			name: "zero questions",
			req:  &CreateAssessmentRequest{Topic: "Topic", BloomLevel: "understand"},
		},
		{
			name: "too many questions",
			req:  &CreateAssessmentRequest{Topic: "Topic", BloomLevel: "understand", NumQuestions: 51},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestStudentViewHidesAnswerKeys(t *testing.T) {
	_, svc, _ := newAssessmentTestEnv()
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateAssessmentRequest{
		Topic:        "Optics",
		BloomLevel:   "apply",
		NumQuestions: 3,
	})
	require.NoError(t, err)

	studentView, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, studentView.Questions, 3)
	for _, q := range studentView.Questions {
		assert.NotEmpty(t, q.Text)
		if q.Type != models.QuestionNumeric {
			assert.NotEmpty(t, q.Options)
		}
	}

	teacherView, err := svc.GetTeacherView(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, teacherView.Questions, 3)
	for _, q := range teacherView.Questions {
		assert.NotNil(t, q.AnswerKey)
	}
	require.NotNil(t, teacherView.Settings)
	assert.Equal(t, 1, teacherView.Settings.MaxAttempts)

	_, err = svc.GetByID(ctx, 404)
	assert.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestListAssessments(t *testing.T) {
	_, svc, _ := newAssessmentTestEnv()
	ctx := context.Background()

	for _, topic := range []string{"First", "Second"} {
		_, err := svc.Create(ctx, &CreateAssessmentRequest{
			Topic:        topic,
			BloomLevel:   "remember",
			NumQuestions: 2,
		})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, repositories.AssessmentFilters{Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	require.Len(t, list.Assessments, 2)
	assert.Equal(t, "First", list.Assessments[0].Topic)
	assert.Equal(t, 2, list.Assessments[0].QuestionCount)
	// List responses omit the question bodies
	assert.Empty(t, list.Assessments[0].Questions)
}

func TestDeleteAssessment(t *testing.T) {
	_, svc, _ := newAssessmentTestEnv()
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateAssessmentRequest{
		Topic:        "Doomed",
		BloomLevel:   "remember",
		NumQuestions: 1,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), ErrAssessmentNotFound)
}

func TestUpsertSettingsMergesPartialUpdates(t *testing.T) {
	_, svc, _ := newAssessmentTestEnv()
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateAssessmentRequest{
		Topic:        "Genetics",
		BloomLevel:   "analyze",
		NumQuestions: 2,
	})
	require.NoError(t, err)

	maxAttempts := 3
	settings, err := svc.UpsertSettings(ctx, created.ID, &AssessmentSettingsRequest{
		MaxAttempts: &maxAttempts,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, settings.MaxAttempts)
	// Untouched fields keep their defaults
	assert.True(t, settings.ShowResultsImmediately)
	assert.False(t, settings.RetakeAllowed)

	due := time.Now().Add(24 * time.Hour)
	retake := true
	settings, err = svc.UpsertSettings(ctx, created.ID, &AssessmentSettingsRequest{
		DueDate:       &due,
		RetakeAllowed: &retake,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, settings.MaxAttempts)
	assert.True(t, settings.RetakeAllowed)
	require.NotNil(t, settings.DueDate)

	_, err = svc.UpsertSettings(ctx, 404, &AssessmentSettingsRequest{})
	assert.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestGetSettingsFallsBackToDefaults(t *testing.T) {
	repo, svc, _ := newAssessmentTestEnv()
	ctx := context.Background()

	// Seeded directly, so no settings row exists yet
	assessmentID, _, _ := seedAssessment(t, repo)

	settings, err := svc.GetSettings(ctx, assessmentID)
	require.NoError(t, err)
	assert.Equal(t, 1, settings.MaxAttempts)
	assert.True(t, settings.ShowResultsImmediately)
}

func TestRegenerateQuestion(t *testing.T) {
	_, svc, _ := newAssessmentTestEnv()
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateAssessmentRequest{
		Topic:        "Thermodynamics",
		BloomLevel:   "evaluate",
		NumQuestions: 1,
	})
	require.NoError(t, err)
	questionID := created.Questions[0].ID

	view, err := svc.RegenerateQuestion(ctx, questionID)
	require.NoError(t, err)
	assert.Equal(t, questionID, view.ID)
	assert.Equal(t, models.BloomEvaluate, view.BloomLevel)
	assert.NotNil(t, view.AnswerKey)

	_, err = svc.RegenerateQuestion(ctx, 404)
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}
