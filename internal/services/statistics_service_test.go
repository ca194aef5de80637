package services

import (
	"bytes"
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/EduPulse-2025/assessment-platform/internal/events"
	"github.com/EduPulse-2025/assessment-platform/internal/models"
)

func newStatisticsTestEnv() (*fakeRepository, StatisticsService, *events.MockEventPublisher) {
	repo := newFakeRepository()
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)
	return repo, NewStatisticsService(repo, publisher, logger), publisher
}

func seedProfile(t *testing.T, repo *fakeRepository, studentID string, assessmentID uint, correct, incorrect int, duration float64) {
	t.Helper()
	require.NoError(t, repo.Performance().Create(context.Background(), &models.PerformanceProfile{
		StudentID:       studentID,
		AssessmentID:    assessmentID,
		TotalCorrect:    correct,
		TotalIncorrect:  incorrect,
		DurationSeconds: duration,
	}))
}

func TestRecomputeClassStatistics(t *testing.T) {
	repo, svc, publisher := newStatisticsTestEnv()
	ctx := context.Background()
	assessmentID, _, _ := seedAssessment(t, repo)

	seedProfile(t, repo, "alice", assessmentID, 4, 1, 120)
	seedProfile(t, repo, "bob", assessmentID, 2, 3, 80)

	require.NoError(t, svc.Recompute(ctx, assessmentID))

	stats, err := repo.Statistics().GetByAssessment(ctx, assessmentID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalStudents)
	assert.Equal(t, 2, stats.CompletedStudents)
	// Pooled over answers: (4 + 2) / (5 + 5)
	assert.InDelta(t, 60, stats.AverageScore, 0.001)
	// alice passes at 80%, bob fails at 40%
	assert.InDelta(t, 50, stats.PassRate, 0.001)
	assert.InDelta(t, 100, stats.AverageTimeSeconds, 0.001)

	var refreshed int
	for _, ev := range publisher.GetPublishedEvents() {
		if ev.Type == events.EventStatisticsRefreshed {
			refreshed++
		}
	}
	assert.Equal(t, 1, refreshed)
}

func TestRecomputePoolsAnswersNotStudentAverages(t *testing.T) {
	repo, svc, _ := newStatisticsTestEnv()
	ctx := context.Background()
	assessmentID, _, _ := seedAssessment(t, repo)

	// Uneven answer counts: the pooled score weights alice's 5 answers
	// over bob's 2, unlike a mean of per-student accuracies (65).
	seedProfile(t, repo, "alice", assessmentID, 4, 1, 120)
	seedProfile(t, repo, "bob", assessmentID, 1, 1, 80)

	require.NoError(t, svc.Recompute(ctx, assessmentID))

	stats, err := repo.Statistics().GetByAssessment(ctx, assessmentID)
	require.NoError(t, err)
	// 5 correct of 7 answered
	assert.InDelta(t, 71.43, stats.AverageScore, 0.01)
	assert.InDelta(t, 50, stats.PassRate, 0.001)
}

func TestRecomputeCountsEveryProfile(t *testing.T) {
	repo, svc, _ := newStatisticsTestEnv()
	ctx := context.Background()
	assessmentID, _, _ := seedAssessment(t, repo)

	// alice completed twice; both runs enter the pool and the counts
	seedProfile(t, repo, "alice", assessmentID, 0, 5, 100)
	seedProfile(t, repo, "alice", assessmentID, 4, 1, 120)
	seedProfile(t, repo, "bob", assessmentID, 2, 3, 80)

	require.NoError(t, svc.Recompute(ctx, assessmentID))

	stats, err := repo.Statistics().GetByAssessment(ctx, assessmentID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalStudents)
	// 6 correct of 15 answered
	assert.InDelta(t, 40, stats.AverageScore, 0.001)
	// Only alice's second run reaches the pass threshold
	assert.InDelta(t, 33.33, stats.PassRate, 0.01)
	assert.InDelta(t, 100, stats.AverageTimeSeconds, 0.001)
}

func TestRecomputePassBoundary(t *testing.T) {
	repo, svc, _ := newStatisticsTestEnv()
	ctx := context.Background()
	assessmentID, _, _ := seedAssessment(t, repo)

	// Exactly 60% passes
	seedProfile(t, repo, "alice", assessmentID, 3, 2, 60)

	require.NoError(t, svc.Recompute(ctx, assessmentID))

	stats, err := repo.Statistics().GetByAssessment(ctx, assessmentID)
	require.NoError(t, err)
	assert.InDelta(t, 100, stats.PassRate, 0.001)
}

func TestRecomputeWithoutProfilesWritesNothing(t *testing.T) {
	repo, svc, _ := newStatisticsTestEnv()
	ctx := context.Background()
	assessmentID, _, _ := seedAssessment(t, repo)

	require.NoError(t, svc.Recompute(ctx, assessmentID))

	response, err := svc.Get(ctx, assessmentID)
	require.NoError(t, err)
	assert.Equal(t, assessmentID, response.AssessmentID)
	assert.Equal(t, "Photosynthesis", response.AssessmentTitle)
	assert.Nil(t, response.Statistics)
}

func TestGetRecomputesWhenRowAbsent(t *testing.T) {
	repo, svc, _ := newStatisticsTestEnv()
	ctx := context.Background()
	assessmentID, _, _ := seedAssessment(t, repo)

	// Profiles exist but no statistics row was ever written, as after a
	// failed refresh. Reading must rebuild it.
	seedProfile(t, repo, "alice", assessmentID, 4, 1, 120)

	response, err := svc.Get(ctx, assessmentID)
	require.NoError(t, err)
	require.NotNil(t, response.Statistics)
	assert.Equal(t, 1, response.Statistics.TotalStudents)
	assert.InDelta(t, 80, response.Statistics.AverageScore, 0.001)

	_, err = repo.Statistics().GetByAssessment(ctx, assessmentID)
	assert.NoError(t, err)
}

func TestGetUnknownAssessment(t *testing.T) {
	_, svc, _ := newStatisticsTestEnv()

	_, err := svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestStatisticsBreakdowns(t *testing.T) {
	repo, svc, _ := newStatisticsTestEnv()
	ctx := context.Background()
	assessmentID, numericID, choiceID := seedAssessment(t, repo)

	seedProfile(t, repo, "alice", assessmentID, 1, 1, 30)

	now := time.Now()
	for _, r := range []*models.StudentResponse{
		{StudentID: "alice", QuestionID: numericID, Correct: true, ShownAt: now, AnsweredAt: now, TimeTakenSec: 12},
		{StudentID: "alice", QuestionID: choiceID, Correct: false, ShownAt: now, AnsweredAt: now, TimeTakenSec: 8},
		{StudentID: "bob", QuestionID: numericID, Correct: true, ShownAt: now, AnsweredAt: now, TimeTakenSec: 4},
	} {
		require.NoError(t, repo.Response().Create(ctx, r))
	}

	require.NoError(t, svc.Recompute(ctx, assessmentID))

	response, err := svc.Get(ctx, assessmentID)
	require.NoError(t, err)
	require.NotNil(t, response.Statistics)
	detail := response.Statistics

	// The numeric question is easy, the choice question medium
	assert.Equal(t, models.BreakdownEntry{Total: 2, Correct: 2, Accuracy: 100}, detail.DifficultyBreakdown["easy"])
	assert.Equal(t, models.BreakdownEntry{Total: 1, Correct: 0, Accuracy: 0}, detail.DifficultyBreakdown["medium"])

	assert.Equal(t, models.BreakdownEntry{Total: 2, Correct: 2, Accuracy: 100}, detail.BloomLevelBreakdown["understand"])
	assert.Equal(t, models.BreakdownEntry{Total: 1, Correct: 0, Accuracy: 0}, detail.BloomLevelBreakdown["apply"])

	numericStat, ok := detail.QuestionPerformance[strconv.FormatUint(uint64(numericID), 10)]
	require.True(t, ok)
	assert.Equal(t, numericID, numericStat.QuestionID)
	assert.Equal(t, 2, numericStat.Total)
	assert.Equal(t, 2, numericStat.Correct)
	assert.InDelta(t, 100, numericStat.Accuracy, 0.001)
	assert.InDelta(t, 8, numericStat.AvgTimeSec, 0.001)
}

func TestStatisticsOverview(t *testing.T) {
	repo, svc, _ := newStatisticsTestEnv()
	ctx := context.Background()

	firstID, _, _ := seedAssessment(t, repo)
	second := &models.Assessment{Topic: "Algebra", BloomLevel: models.BloomApply}
	require.NoError(t, repo.Assessment().Create(ctx, second))

	seedProfile(t, repo, "alice", firstID, 4, 1, 120)
	seedProfile(t, repo, "bob", firstID, 2, 3, 80)
	require.NoError(t, svc.Recompute(ctx, firstID))

	overview, err := svc.Overview(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, overview.TotalAssessments)
	assert.Equal(t, 1, overview.TotalAssessmentsCompleted)
	assert.Equal(t, 2, overview.TotalStudentsEnrolled)
	require.Len(t, overview.Assessments, 1)
	assert.Equal(t, firstID, overview.Assessments[0].AssessmentID)
	assert.InDelta(t, 60, overview.OverallAverageScore, 0.001)
	assert.InDelta(t, 50, overview.OverallPassRate, 0.001)
}

func TestExportStatistics(t *testing.T) {
	repo, svc, _ := newStatisticsTestEnv()
	ctx := context.Background()
	assessmentID, numericID, _ := seedAssessment(t, repo)

	_, err := svc.Export(ctx, assessmentID)
	assert.ErrorIs(t, err, ErrStatisticsNotFound)

	seedProfile(t, repo, "alice", assessmentID, 4, 1, 120)
	now := time.Now()
	require.NoError(t, repo.Response().Create(ctx, &models.StudentResponse{
		StudentID: "alice", QuestionID: numericID, Correct: true,
		ShownAt: now, AnsweredAt: now, TimeTakenSec: 12,
	}))
	require.NoError(t, svc.Recompute(ctx, assessmentID))

	workbook, err := svc.Export(ctx, assessmentID)
	require.NoError(t, err)
	require.NotEmpty(t, workbook)

	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "Summary")
	assert.Contains(t, sheets, "Breakdowns")
	assert.Contains(t, sheets, "Questions")
}
