package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"gorm.io/datatypes"

	"github.com/EduPulse-2025/assessment-platform/internal/events"
	"github.com/EduPulse-2025/assessment-platform/internal/models"
	"github.com/EduPulse-2025/assessment-platform/internal/repositories"
)

// passThreshold is the accuracy at or above which a student passes.
const passThreshold = 0.6

type statisticsService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewStatisticsService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger) StatisticsService {
	return &statisticsService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Recompute rebuilds the class statistics row from scratch. The headline
// metrics pool every performance profile: average_score is total correct
// over total answered across all profiles, pass_rate the share of profiles
// at or above the pass threshold. The question and category breakdowns
// aggregate over the full response history.
func (s *statisticsService) Recompute(ctx context.Context, assessmentID uint) error {
	profiles, err := s.repo.Performance().GetByAssessment(ctx, assessmentID)
	if err != nil {
		return fmt.Errorf("failed to load performance profiles: %w", err)
	}
	if len(profiles) == 0 {
		// No completions yet, nothing to write
		return nil
	}

	var (
		sumCorrect  int
		sumAnswered int
		sumTime     float64
		passed      int
	)
	for _, p := range profiles {
		sumCorrect += p.TotalCorrect
		sumAnswered += p.TotalCorrect + p.TotalIncorrect
		sumTime += p.DurationSeconds
		if p.Accuracy() >= passThreshold {
			passed++
		}
	}
	completed := len(profiles)

	var averageScore float64
	if sumAnswered > 0 {
		averageScore = float64(sumCorrect) / float64(sumAnswered) * 100
	}

	responses, err := s.repo.Response().GetByAssessment(ctx, assessmentID)
	if err != nil {
		return fmt.Errorf("failed to load responses: %w", err)
	}

	difficultyJSON, bloomJSON, questionJSON, err := buildBreakdowns(responses)
	if err != nil {
		return err
	}

	now := time.Now()
	stats := &models.ClassStatistics{
		AssessmentID:       assessmentID,
		TotalStudents:      completed,
		CompletedStudents:  completed,
		AverageScore:       round2(averageScore),
		PassRate:           round2(float64(passed) / float64(completed) * 100),
		AverageTimeSeconds: round2(sumTime / float64(completed)),
		DifficultyStats:    difficultyJSON,
		BloomLevelStats:    bloomJSON,
		QuestionStats:      questionJSON,
		GeneratedAt:        now,
	}

	if err := s.repo.Statistics().Upsert(ctx, stats); err != nil {
		return fmt.Errorf("failed to upsert class statistics: %w", err)
	}

	s.logger.Info("Class statistics recomputed",
		"assessment_id", assessmentID,
		"completed_students", completed,
		"average_score", stats.AverageScore,
		"pass_rate", stats.PassRate)

	if s.publisher != nil {
		event := events.NewStatisticsRefreshedEvent(
			assessmentID, completed, stats.PassRate, stats.AverageScore, now)
		if err := s.publisher.PublishEvent(ctx, event); err != nil {
			s.logger.Error("Failed to publish statistics event",
				"assessment_id", assessmentID,
				"error", err)
		}
	}

	return nil
}

func (s *statisticsService) Get(ctx context.Context, assessmentID uint) (*ClassStatisticsResponse, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	response := &ClassStatisticsResponse{
		AssessmentID:    assessmentID,
		AssessmentTitle: assessment.Topic,
	}

	stats, err := s.repo.Statistics().GetByAssessment(ctx, assessmentID)
	if repositories.IsNotFoundError(err) {
		// A missing row is rebuilt on read, so a previously failed refresh
		// never leaves the endpoint permanently empty.
		if err := s.Recompute(ctx, assessmentID); err != nil {
			return nil, err
		}
		stats, err = s.repo.Statistics().GetByAssessment(ctx, assessmentID)
		if repositories.IsNotFoundError(err) {
			// Still no profiles; statistics stays nil until a completion
			return response, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get class statistics: %w", err)
	}

	detail, err := toStatisticsDetail(stats)
	if err != nil {
		return nil, err
	}
	response.Statistics = detail

	return response, nil
}

// Overview aggregates the statistics rows of every assessment into a single
// cross-class summary.
func (s *statisticsService) Overview(ctx context.Context) (*StatisticsOverview, error) {
	assessments, _, err := s.repo.Assessment().List(ctx, repositories.AssessmentFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	overview := &StatisticsOverview{
		TotalAssessments: len(assessments),
		Assessments:      make([]AssessmentOverviewEntry, 0, len(assessments)),
	}

	var (
		sumScores     float64
		scoredCount   int
		passWeighted  float64
		totalStudents int
	)

	for _, assessment := range assessments {
		stats, err := s.repo.Statistics().GetByAssessment(ctx, assessment.ID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				continue
			}
			return nil, fmt.Errorf("failed to get statistics for assessment %d: %w", assessment.ID, err)
		}

		overview.Assessments = append(overview.Assessments, AssessmentOverviewEntry{
			AssessmentID:      assessment.ID,
			Topic:             assessment.Topic,
			StudentsCompleted: stats.CompletedStudents,
			AverageScore:      round2(stats.AverageScore),
			PassRate:          round2(stats.PassRate),
			CreatedAt:         assessment.CreatedAt,
		})

		if stats.CompletedStudents > 0 {
			sumScores += stats.AverageScore
			scoredCount++
			passWeighted += stats.PassRate / 100 * float64(stats.CompletedStudents)
			totalStudents += stats.CompletedStudents
			overview.TotalAssessmentsCompleted++
		}
	}

	if scoredCount > 0 {
		overview.OverallAverageScore = round2(sumScores / float64(scoredCount))
	}
	if totalStudents > 0 {
		overview.OverallPassRate = round2(passWeighted / float64(totalStudents) * 100)
		overview.TotalStudentsEnrolled = totalStudents
	}

	return overview, nil
}

// ===== BREAKDOWN HELPERS =====

type tally struct {
	total   int
	correct int
	time    float64
}

func buildBreakdowns(responses []*models.StudentResponse) (difficulty, bloom, question datatypes.JSON, err error) {
	difficultyTallies := make(map[string]*tally)
	bloomTallies := make(map[string]*tally)
	questionTallies := make(map[uint]*tally)
	questionsByID := make(map[uint]*models.Question)

	for _, r := range responses {
		if r.Question == nil {
			continue
		}
		q := r.Question
		questionsByID[q.ID] = q

		for _, t := range []*tally{
			bump(difficultyTallies, string(q.Difficulty)),
			bump(bloomTallies, string(q.BloomLevel)),
			bumpID(questionTallies, q.ID),
		} {
			t.total++
			if r.Correct {
				t.correct++
			}
			t.time += r.TimeTakenSec
		}
	}

	difficultyStats := make(map[string]models.BreakdownEntry, len(difficultyTallies))
	for k, t := range difficultyTallies {
		difficultyStats[k] = t.entry()
	}
	bloomStats := make(map[string]models.BreakdownEntry, len(bloomTallies))
	for k, t := range bloomTallies {
		bloomStats[k] = t.entry()
	}

	questionStats := make(map[string]models.QuestionStat, len(questionTallies))
	for id, t := range questionTallies {
		q := questionsByID[id]
		stat := models.QuestionStat{
			QuestionID: id,
			Text:       q.Text,
			Total:      t.total,
			Correct:    t.correct,
			Difficulty: string(q.Difficulty),
			BloomLevel: string(q.BloomLevel),
		}
		if t.total > 0 {
			stat.Accuracy = round2(float64(t.correct) / float64(t.total) * 100)
			stat.AvgTimeSec = round2(t.time / float64(t.total))
		}
		questionStats[strconv.FormatUint(uint64(id), 10)] = stat
	}

	if difficulty, err = marshalStats(difficultyStats); err != nil {
		return nil, nil, nil, err
	}
	if bloom, err = marshalStats(bloomStats); err != nil {
		return nil, nil, nil, err
	}
	if question, err = marshalStats(questionStats); err != nil {
		return nil, nil, nil, err
	}
	return difficulty, bloom, question, nil
}

func bump(m map[string]*tally, key string) *tally {
	t, ok := m[key]
	if !ok {
		t = &tally{}
		m[key] = t
	}
	return t
}

func bumpID(m map[uint]*tally, key uint) *tally {
	t, ok := m[key]
	if !ok {
		t = &tally{}
		m[key] = t
	}
	return t
}

func (t *tally) entry() models.BreakdownEntry {
	entry := models.BreakdownEntry{Total: t.total, Correct: t.correct}
	if t.total > 0 {
		entry.Accuracy = round2(float64(t.correct) / float64(t.total) * 100)
	}
	return entry
}

func marshalStats(v interface{}) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode statistics: %w", err)
	}
	return datatypes.JSON(data), nil
}

func toStatisticsDetail(stats *models.ClassStatistics) (*StatisticsDetail, error) {
	detail := &StatisticsDetail{
		TotalStudents:      stats.TotalStudents,
		CompletedStudents:  stats.CompletedStudents,
		AverageScore:       round2(stats.AverageScore),
		PassRate:           round2(stats.PassRate),
		AverageTimeSeconds: round2(stats.AverageTimeSeconds),
		GeneratedAt:        stats.GeneratedAt,
	}

	if len(stats.DifficultyStats) > 0 {
		if err := json.Unmarshal(stats.DifficultyStats, &detail.DifficultyBreakdown); err != nil {
			return nil, fmt.Errorf("failed to decode difficulty stats: %w", err)
		}
	}
	if len(stats.BloomLevelStats) > 0 {
		if err := json.Unmarshal(stats.BloomLevelStats, &detail.BloomLevelBreakdown); err != nil {
			return nil, fmt.Errorf("failed to decode bloom level stats: %w", err)
		}
	}
	if len(stats.QuestionStats) > 0 {
		if err := json.Unmarshal(stats.QuestionStats, &detail.QuestionPerformance); err != nil {
			return nil, fmt.Errorf("failed to decode question stats: %w", err)
		}
	}

	return detail, nil
}
