package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gorm.io/datatypes"

	"github.com/EduPulse-2025/assessment-platform/internal/models"
)

// weakAreaThreshold is the accuracy below which a Bloom level counts as a
// weak area. Exactly at the threshold is not weak.
const weakAreaThreshold = 0.6

type performanceService struct {
	logger *slog.Logger
}

func NewPerformanceService(logger *slog.Logger) PerformanceService {
	return &performanceService{logger: logger}
}

// BuildProfile aggregates graded responses into a performance profile.
// Responses must carry their Question preloaded and arrive oldest first;
// when a question was answered more than once only the latest row counts.
func (s *performanceService) BuildProfile(studentID string, assessmentID uint, attemptID *uint, responses []*models.StudentResponse) (*models.PerformanceProfile, error) {
	if len(responses) == 0 {
		return nil, ErrNoResponses
	}

	latest := latestPerQuestion(responses)

	var (
		totalCorrect int
		totalTime    float64
		startedAt    time.Time
		completedAt  time.Time
	)

	// Bloom level tallies across the deduplicated set
	levelTotals := make(map[string]int)
	levelIncorrect := make(map[string]int)

	for _, r := range latest {
		if r.Correct {
			totalCorrect++
		}
		totalTime += r.TimeTakenSec

		if r.Question != nil {
			level := string(r.Question.BloomLevel)
			levelTotals[level]++
			if !r.Correct {
				levelIncorrect[level]++
			}
		}

		if startedAt.IsZero() || r.ShownAt.Before(startedAt) {
			startedAt = r.ShownAt
		}
		if r.AnsweredAt.After(completedAt) {
			completedAt = r.AnsweredAt
		}
	}

	weakAreas := make(map[string]int)
	for level, total := range levelTotals {
		if total == 0 {
			continue
		}
		accuracy := float64(total-levelIncorrect[level]) / float64(total)
		if accuracy < weakAreaThreshold {
			weakAreas[level] = levelIncorrect[level]
		}
	}

	weakAreasJSON, err := json.Marshal(weakAreas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode weak areas: %w", err)
	}

	// Client clocks can make the window negative; clamp rather than reject
	duration := completedAt.Sub(startedAt).Seconds()
	if duration < 0 {
		duration = 0
	}

	profile := &models.PerformanceProfile{
		StudentID:          studentID,
		AssessmentID:       assessmentID,
		AttemptID:          attemptID,
		TotalCorrect:       totalCorrect,
		TotalIncorrect:     len(latest) - totalCorrect,
		AvgTimePerQuestion: totalTime / float64(len(latest)),
		WeakAreas:          datatypes.JSON(weakAreasJSON),
		StartedAt:          startedAt,
		CompletedAt:        completedAt,
		DurationSeconds:    duration,
	}

	s.logger.Debug("Built performance profile",
		"student_id", studentID,
		"assessment_id", assessmentID,
		"questions", len(latest),
		"correct", totalCorrect,
		"weak_areas", len(weakAreas))

	return profile, nil
}

func (s *performanceService) Summarize(profile *models.PerformanceProfile) (*PerformanceSummary, error) {
	weakAreas, err := profile.DecodeWeakAreas()
	if err != nil {
		return nil, err
	}

	return &PerformanceSummary{
		ProfileID:          profile.ID,
		TotalCorrect:       profile.TotalCorrect,
		TotalIncorrect:     profile.TotalIncorrect,
		Accuracy:           round2(profile.Accuracy() * 100),
		AvgTimePerQuestion: round2(profile.AvgTimePerQuestion),
		WeakAreas:          weakAreas,
		StartedAt:          profile.StartedAt,
		CompletedAt:        profile.CompletedAt,
		DurationSeconds:    profile.DurationSeconds,
	}, nil
}

// latestPerQuestion reduces the append-only history to the most recent
// response per question, preserving first-seen question order.
func latestPerQuestion(responses []*models.StudentResponse) []*models.StudentResponse {
	index := make(map[uint]int, len(responses))
	latest := make([]*models.StudentResponse, 0, len(responses))

	for _, r := range responses {
		if i, seen := index[r.QuestionID]; seen {
			latest[i] = r
			continue
		}
		index[r.QuestionID] = len(latest)
		latest = append(latest, r)
	}
	return latest
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
