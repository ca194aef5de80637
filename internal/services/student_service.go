package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/EduPulse-2025/assessment-platform/internal/models"
	"github.com/EduPulse-2025/assessment-platform/internal/repositories"
)

// trendWindow is how many recent completions feed the improvement trend.
const trendWindow = 5

type studentService struct {
	repo        repositories.Repository
	performance PerformanceService
	logger      *slog.Logger
}

func NewStudentService(repo repositories.Repository, performance PerformanceService, logger *slog.Logger) StudentService {
	return &studentService{
		repo:        repo,
		performance: performance,
		logger:      logger,
	}
}

// GetStatistics summarizes a student's completions across all assessments.
func (s *studentService) GetStatistics(ctx context.Context, studentID string) (*StudentStatistics, error) {
	profiles, err := s.repo.Performance().GetByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load performance profiles: %w", err)
	}

	stats := &StudentStatistics{
		StudentID:        studentID,
		TotalAssessments: len(profiles),
		WeakAreasSummary: map[string]int{},
		Assessments:      []AssessmentResult{},
	}
	if len(profiles) == 0 {
		return stats, nil
	}

	results, weakSummary, avgAccuracy, _, err := s.buildResults(ctx, profiles)
	if err != nil {
		return nil, err
	}

	stats.AverageAccuracy = avgAccuracy
	stats.WeakAreasSummary = weakSummary
	stats.Assessments = results
	return stats, nil
}

// GetPerformanceReport builds the detailed cross-assessment report: overall
// accuracy, total time, the recent improvement trend and per-assessment
// results newest first.
func (s *studentService) GetPerformanceReport(ctx context.Context, studentID string) (*PerformanceReport, error) {
	profiles, err := s.repo.Performance().GetByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load performance profiles: %w", err)
	}

	report := &PerformanceReport{
		ImprovementTrend: []TrendPoint{},
		WeakAreasSummary: map[string]int{},
		Assessments:      []AssessmentResult{},
	}
	if len(profiles) == 0 {
		return report, nil
	}

	results, weakSummary, avgAccuracy, totalTime, err := s.buildResults(ctx, profiles)
	if err != nil {
		return nil, err
	}

	report.TotalAssessments = len(profiles)
	report.AverageAccuracy = avgAccuracy
	report.TotalTimeSpent = totalTime
	report.WeakAreasSummary = weakSummary

	// Trend covers the most recent completions in chronological order;
	// profiles arrive oldest first.
	start := len(results) - trendWindow
	if start < 0 {
		start = 0
	}
	for _, r := range results[start:] {
		report.ImprovementTrend = append(report.ImprovementTrend, TrendPoint{
			AssessmentID: r.AssessmentID,
			Topic:        r.Topic,
			Accuracy:     r.Accuracy,
			CompletedAt:  r.CompletedAt,
		})
	}

	// Detailed results read newest first
	for i := len(results) - 1; i >= 0; i-- {
		report.Assessments = append(report.Assessments, results[i])
	}

	return report, nil
}

// GetAssessmentPerformance reports one student's history on one assessment,
// including the attempt policy state.
func (s *studentService) GetAssessmentPerformance(ctx context.Context, studentID string, assessmentID uint) (*StudentAssessmentPerformance, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	attempts, err := s.repo.Attempt().GetByStudentAndAssessment(ctx, studentID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}

	profiles, err := s.repo.Performance().GetByStudentAndAssessment(ctx, studentID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load performance profiles: %w", err)
	}

	settings, err := loadSettings(ctx, s.repo, assessmentID)
	if err != nil {
		return nil, err
	}

	var completed int
	for _, a := range attempts {
		if a.Status == models.AttemptCompleted {
			completed++
		}
	}

	result := &StudentAssessmentPerformance{
		StudentID:      studentID,
		AssessmentID:   assessmentID,
		Topic:          assessment.Topic,
		Attempts:       make([]AttemptInfo, 0, len(attempts)),
		Profiles:       make([]PerformanceSummary, 0, len(profiles)),
		AttemptControl: attemptControl(settings, completed),
	}

	for _, a := range attempts {
		result.Attempts = append(result.Attempts, AttemptInfo{
			AttemptNumber:    a.AttemptNumber,
			TotalScore:       a.TotalScore,
			MaxPossibleScore: a.MaxPossibleScore,
		})
	}

	for _, p := range profiles {
		summary, err := s.performance.Summarize(p)
		if err != nil {
			return nil, err
		}
		result.Profiles = append(result.Profiles, *summary)

		if summary.Accuracy > result.BestAccuracy {
			result.BestAccuracy = summary.Accuracy
		}
		result.LatestAccuracy = summary.Accuracy
	}

	return result, nil
}

func (s *studentService) ListAttempts(ctx context.Context, studentID string, assessmentID uint) ([]*models.TestAttempt, error) {
	exists, err := s.repo.Assessment().Exists(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check assessment: %w", err)
	}
	if !exists {
		return nil, ErrAssessmentNotFound
	}

	attempts, err := s.repo.Attempt().GetByStudentAndAssessment(ctx, studentID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}
	return attempts, nil
}

// buildResults turns the profile history into per-assessment results plus
// the aggregates shared by the statistics and report endpoints. Profiles
// must arrive oldest first.
func (s *studentService) buildResults(ctx context.Context, profiles []*models.PerformanceProfile) ([]AssessmentResult, map[string]int, float64, float64, error) {
	topics := make(map[uint]*models.Assessment)
	weakSummary := make(map[string]int)
	results := make([]AssessmentResult, 0, len(profiles))

	var (
		totalCorrect   int
		totalQuestions int
		totalTime      float64
	)

	for _, p := range profiles {
		assessment, ok := topics[p.AssessmentID]
		if !ok {
			var err error
			assessment, err = s.repo.Assessment().GetByID(ctx, p.AssessmentID)
			if err != nil && !repositories.IsNotFoundError(err) {
				return nil, nil, 0, 0, fmt.Errorf("failed to get assessment %d: %w", p.AssessmentID, err)
			}
			topics[p.AssessmentID] = assessment
		}

		weakAreas, err := p.DecodeWeakAreas()
		if err != nil {
			return nil, nil, 0, 0, err
		}
		for area, count := range weakAreas {
			weakSummary[area] += count
		}

		result := AssessmentResult{
			AssessmentID:     p.AssessmentID,
			Topic:            "Unknown",
			CompletedAt:      p.CompletedAt,
			Accuracy:         round2(p.Accuracy() * 100),
			TimeTakenSeconds: p.DurationSeconds,
			WeakAreas:        weakAreas,
		}
		if assessment != nil {
			result.Topic = assessment.Topic
			result.BloomLevel = assessment.BloomLevel
		}

		if p.AttemptID != nil {
			attempt, err := s.repo.Attempt().GetByID(ctx, *p.AttemptID)
			if err != nil && !repositories.IsNotFoundError(err) {
				return nil, nil, 0, 0, fmt.Errorf("failed to get attempt %d: %w", *p.AttemptID, err)
			}
			if attempt != nil {
				result.AttemptInfo = &AttemptInfo{
					AttemptNumber:    attempt.AttemptNumber,
					TotalScore:       attempt.TotalScore,
					MaxPossibleScore: attempt.MaxPossibleScore,
				}
			}
		}

		results = append(results, result)

		totalCorrect += p.TotalCorrect
		totalQuestions += p.TotalCorrect + p.TotalIncorrect
		totalTime += p.DurationSeconds
	}

	var avgAccuracy float64
	if totalQuestions > 0 {
		avgAccuracy = round2(float64(totalCorrect) / float64(totalQuestions) * 100)
	}

	return results, weakSummary, avgAccuracy, totalTime, nil
}
