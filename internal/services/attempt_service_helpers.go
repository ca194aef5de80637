package services

import (
	"context"
	"fmt"

	"github.com/EduPulse-2025/assessment-platform/internal/events"
	"github.com/EduPulse-2025/assessment-platform/internal/models"
	"github.com/EduPulse-2025/assessment-platform/internal/repositories"
)

// loadSettings returns the assessment's attempt policy, falling back to the
// defaults when no row has been configured.
func loadSettings(ctx context.Context, repo repositories.Repository, assessmentID uint) (*models.AssignmentSetting, error) {
	settings, err := repo.Settings().GetByAssessment(ctx, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return models.DefaultAssignmentSetting(assessmentID), nil
		}
		return nil, fmt.Errorf("failed to load assignment settings: %w", err)
	}
	return settings, nil
}

// remainingAttempts returns how many starts are left after used completed
// attempts, nil when the policy imposes no effective cap. Open and abandoned
// attempts do not count against the cap.
func remainingAttempts(settings *models.AssignmentSetting, used int) *int {
	if settings.Unlimited() || settings.RetakeAllowed {
		return nil
	}
	remaining := settings.MaxAttempts - used
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

func attemptControl(settings *models.AssignmentSetting, used int) AttemptControl {
	remaining := remainingAttempts(settings, used)
	canStart := remaining == nil || *remaining > 0

	return AttemptControl{
		MaxAttempts:       settings.MaxAttempts,
		AttemptsUsed:      used,
		RemainingAttempts: remaining,
		RetakeAllowed:     settings.RetakeAllowed,
		CanStart:          canStart,
	}
}

// getOwnedAttempt loads an attempt and verifies it belongs to the student.
func (s *attemptService) getOwnedAttempt(ctx context.Context, repo repositories.Repository, attemptID uint, studentID string) (*models.TestAttempt, error) {
	attempt, err := repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.StudentID != studentID {
		return nil, ErrAttemptOwnership
	}
	return attempt, nil
}

// completedResult reconstructs the completion result of an attempt that was
// already finalized, including its stored performance snapshot.
func (s *attemptService) completedResult(ctx context.Context, repo repositories.Repository, attempt *models.TestAttempt) (*CompleteAttemptResult, error) {
	result := &CompleteAttemptResult{
		Attempt:          attempt,
		AlreadyCompleted: true,
	}
	if attempt.TotalScore != nil {
		result.TotalScore = *attempt.TotalScore
	}
	if attempt.MaxPossibleScore != nil {
		result.MaxPossibleScore = *attempt.MaxPossibleScore
	}
	if pct := attempt.Percentage(); pct != nil {
		result.Percentage = round2(*pct)
	}

	profiles, err := repo.Performance().GetByStudentAndAssessment(ctx, attempt.StudentID, attempt.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load performance profiles: %w", err)
	}
	for _, p := range profiles {
		if p.AttemptID != nil && *p.AttemptID == attempt.ID {
			summary, err := s.performance.Summarize(p)
			if err != nil {
				return nil, err
			}
			result.Performance = summary
			break
		}
	}

	return result, nil
}

// refreshStatistics recomputes class statistics after a completion. The
// completion itself already succeeded, so a statistics failure is logged
// rather than surfaced.
func (s *attemptService) refreshStatistics(ctx context.Context, assessmentID uint) {
	if err := s.statistics.Recompute(ctx, assessmentID); err != nil {
		s.logger.Error("Failed to refresh class statistics",
			"assessment_id", assessmentID,
			"error", err)
	}
}

// publish sends a domain event, logging instead of failing the operation
// when the broker is unavailable.
func (s *attemptService) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish event",
			"event_type", event.Type,
			"error", err)
	}
}
