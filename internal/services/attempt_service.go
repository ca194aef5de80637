package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/EduPulse-2025/assessment-platform/internal/events"
	"github.com/EduPulse-2025/assessment-platform/internal/models"
	"github.com/EduPulse-2025/assessment-platform/internal/repositories"
	"github.com/EduPulse-2025/assessment-platform/internal/validator"
)

type attemptService struct {
	repo        repositories.Repository
	grading     GradingService
	performance PerformanceService
	statistics  StatisticsService
	publisher   events.EventPublisher
	logger      *slog.Logger
	validator   *validator.Validator
}

func NewAttemptService(
	repo repositories.Repository,
	grading GradingService,
	performance PerformanceService,
	statistics StatisticsService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) AttemptService {
	return &attemptService{
		repo:        repo,
		grading:     grading,
		performance: performance,
		statistics:  statistics,
		publisher:   publisher,
		logger:      logger,
		validator:   validator,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

// Start opens a new attempt or resumes the student's open one. Counting,
// numbering and the policy check all happen under a row lock so concurrent
// starts cannot exceed the attempt cap or produce duplicate numbers.
func (s *attemptService) Start(ctx context.Context, assessmentID uint, studentID string) (*StartAttemptResult, error) {
	s.logger.Info("Starting assessment attempt",
		"assessment_id", assessmentID,
		"student_id", studentID)

	var (
		attempt   *models.TestAttempt
		resumed   bool
		settings  *models.AssignmentSetting
		completed int
	)

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		exists, err := txRepo.Assessment().Exists(ctx, assessmentID)
		if err != nil {
			return fmt.Errorf("failed to check assessment: %w", err)
		}
		if !exists {
			return ErrAssessmentNotFound
		}

		settings, err = loadSettings(ctx, txRepo, assessmentID)
		if err != nil {
			return err
		}

		if settings.DuePassed(time.Now()) {
			return ErrDueDatePassed
		}

		attempts, err := txRepo.Attempt().ListForUpdate(ctx, studentID, assessmentID)
		if err != nil {
			return fmt.Errorf("failed to list attempts: %w", err)
		}

		for _, a := range attempts {
			if a.InProgress() {
				attempt = a
				resumed = true
				return nil
			}
			if a.Status == models.AttemptCompleted {
				completed++
			}
		}

		// Only completed attempts consume the cap; abandoned ones keep
		// their number but leave the student free to try again.
		if !settings.Unlimited() && !settings.RetakeAllowed && completed >= settings.MaxAttempts {
			return ErrAttemptLimitExceeded
		}

		attempt = &models.TestAttempt{
			StudentID:     studentID,
			AssessmentID:  assessmentID,
			AttemptNumber: len(attempts) + 1,
			Status:        models.AttemptInProgress,
			StartedAt:     time.Now(),
		}
		if err := txRepo.Attempt().Create(ctx, attempt); err != nil {
			return fmt.Errorf("failed to create attempt: %w", err)
		}

		return nil
	})
	if err != nil {
		if !repositories.IsDuplicateError(err) {
			return nil, err
		}
		// Lost a concurrent start: the insert hit the open-attempt unique
		// index after the row lock found nothing to lock. Resume the
		// attempt the winning transaction committed.
		open, openErr := s.repo.Attempt().GetInProgress(ctx, studentID, assessmentID)
		if openErr != nil {
			return nil, fmt.Errorf("failed to load open attempt: %w", openErr)
		}
		attempt = open
		resumed = true
	}

	if resumed {
		s.logger.Info("Resuming existing attempt",
			"attempt_id", attempt.ID,
			"attempt_number", attempt.AttemptNumber)
	} else {
		s.logger.Info("Assessment attempt started",
			"attempt_id", attempt.ID,
			"attempt_number", attempt.AttemptNumber)
		s.publish(ctx, events.NewAttemptStartedEvent(
			attempt.ID, assessmentID, studentID, attempt.AttemptNumber, attempt.StartedAt))
	}

	return &StartAttemptResult{
		Attempt:           attempt,
		Resumed:           resumed,
		RemainingAttempts: remainingAttempts(settings, completed),
	}, nil
}

// SubmitResponse grades one answer and appends it to the attempt's response
// history. Correctness is fixed at submission time; re-answering the same
// question adds a new row and the latest one wins at completion.
func (s *attemptService) SubmitResponse(ctx context.Context, attemptID uint, studentID string, req *SubmitResponseRequest) (*SubmitResponseResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	attempt, err := s.getOwnedAttempt(ctx, s.repo, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if !attempt.InProgress() {
		return nil, ErrInvalidAttemptState
	}

	question, err := s.repo.Question().GetByID(ctx, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question.AssessmentID != attempt.AssessmentID {
		return nil, ErrQuestionNotFound
	}

	correct, err := s.grading.Grade(question, req.Response)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	shownAt := now
	if req.ShownAt != nil {
		shownAt = *req.ShownAt
	}
	answeredAt := now
	if req.AnsweredAt != nil {
		answeredAt = *req.AnsweredAt
	}
	timeTaken := answeredAt.Sub(shownAt).Seconds()
	if timeTaken < 0 {
		timeTaken = 0
	}

	response := &models.StudentResponse{
		StudentID:    studentID,
		QuestionID:   question.ID,
		AttemptID:    &attempt.ID,
		Response:     req.Response,
		Correct:      correct,
		Confused:     req.Confused,
		ShownAt:      shownAt,
		AnsweredAt:   answeredAt,
		TimeTakenSec: timeTaken,
	}
	if err := s.repo.Response().Create(ctx, response); err != nil {
		return nil, fmt.Errorf("failed to record response: %w", err)
	}

	s.logger.Debug("Response recorded",
		"attempt_id", attemptID,
		"question_id", question.ID,
		"correct", correct)

	result := &SubmitResponseResult{
		ResponseID: response.ID,
		Correct:    correct,
	}

	if !correct {
		settings, err := loadSettings(ctx, s.repo, attempt.AssessmentID)
		if err != nil {
			return nil, err
		}
		if settings.ShowResultsImmediately {
			key, err := models.DecodeAnswerKey(question.Type, question.AnswerKey)
			if err != nil {
				return nil, fmt.Errorf("failed to decode answer key: %w", err)
			}
			result.CorrectAnswer = key
		}
	}

	return result, nil
}

// Complete finalizes the attempt: it scores the deduplicated responses
// against the full question set, snapshots a performance profile and marks
// the attempt completed, all in one transaction. Completing an already
// completed attempt returns the stored result unchanged.
func (s *attemptService) Complete(ctx context.Context, attemptID uint, studentID string) (*CompleteAttemptResult, error) {
	s.logger.Info("Completing assessment attempt",
		"attempt_id", attemptID,
		"student_id", studentID)

	var (
		result  *CompleteAttemptResult
		profile *models.PerformanceProfile
	)

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		attempt, err := s.getOwnedAttempt(ctx, txRepo, attemptID, studentID)
		if err != nil {
			return err
		}

		if attempt.Status == models.AttemptCompleted {
			result, err = s.completedResult(ctx, txRepo, attempt)
			return err
		}
		if !attempt.InProgress() {
			return ErrInvalidAttemptState
		}

		responses, err := txRepo.Response().GetByAttempt(ctx, attemptID)
		if err != nil {
			return fmt.Errorf("failed to load responses: %w", err)
		}

		questionCount, err := txRepo.Question().CountByAssessment(ctx, attempt.AssessmentID)
		if err != nil {
			return fmt.Errorf("failed to count questions: %w", err)
		}

		var totalScore float64
		for _, r := range latestPerQuestion(responses) {
			if r.Correct {
				totalScore++
			}
		}
		maxScore := float64(questionCount)

		now := time.Now()
		timeSpent := int(now.Sub(attempt.StartedAt).Seconds())
		if timeSpent < 0 {
			timeSpent = 0
		}

		attempt.Status = models.AttemptCompleted
		attempt.CompletedAt = &now
		attempt.TimeSpentSeconds = &timeSpent
		attempt.TotalScore = &totalScore
		attempt.MaxPossibleScore = &maxScore
		if err := txRepo.Attempt().Update(ctx, attempt); err != nil {
			return fmt.Errorf("failed to update attempt: %w", err)
		}

		result = &CompleteAttemptResult{
			Attempt:          attempt,
			TotalScore:       totalScore,
			MaxPossibleScore: maxScore,
		}
		if maxScore > 0 {
			result.Percentage = round2(totalScore / maxScore * 100)
		}

		// An attempt closed without a single response completes with a
		// zero score but leaves no performance profile behind.
		if len(responses) == 0 {
			return nil
		}

		profile, err = s.performance.BuildProfile(studentID, attempt.AssessmentID, &attempt.ID, responses)
		if err != nil {
			return err
		}
		if err := txRepo.Performance().Create(ctx, profile); err != nil {
			return fmt.Errorf("failed to create performance profile: %w", err)
		}

		summary, err := s.performance.Summarize(profile)
		if err != nil {
			return err
		}
		result.Performance = summary

		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.AlreadyCompleted {
		return result, nil
	}

	s.logger.Info("Assessment attempt completed",
		"attempt_id", attemptID,
		"total_score", result.TotalScore,
		"max_possible_score", result.MaxPossibleScore)

	s.refreshStatistics(ctx, result.Attempt.AssessmentID)
	s.publish(ctx, events.NewAttemptCompletedEvent(
		attemptID, result.Attempt.AssessmentID, studentID,
		*result.Attempt.CompletedAt, result.TotalScore, result.MaxPossibleScore))

	return result, nil
}

// CompleteFreeForm builds a performance profile from the student's response
// history for the assessment, independent of any formal attempt lifecycle.
// A non-nil attemptID narrows the history to that attempt's responses.
func (s *attemptService) CompleteFreeForm(ctx context.Context, assessmentID uint, studentID string, attemptID *uint) (*PerformanceSummary, error) {
	s.logger.Info("Completing free-form assessment",
		"assessment_id", assessmentID,
		"student_id", studentID)

	exists, err := s.repo.Assessment().Exists(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check assessment: %w", err)
	}
	if !exists {
		return nil, ErrAssessmentNotFound
	}

	var responses []*models.StudentResponse
	if attemptID != nil {
		attempt, err := s.getOwnedAttempt(ctx, s.repo, *attemptID, studentID)
		if err != nil {
			return nil, err
		}
		if attempt.AssessmentID != assessmentID {
			return nil, ErrAttemptNotFound
		}
		responses, err = s.repo.Response().GetByAttempt(ctx, *attemptID)
		if err != nil {
			return nil, fmt.Errorf("failed to load responses: %w", err)
		}
	} else {
		responses, err = s.repo.Response().GetByStudentAndAssessment(ctx, studentID, assessmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load responses: %w", err)
		}
	}
	if len(responses) == 0 {
		return nil, ErrNoResponses
	}

	profile, err := s.performance.BuildProfile(studentID, assessmentID, attemptID, responses)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Performance().Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create performance profile: %w", err)
	}

	s.refreshStatistics(ctx, assessmentID)

	return s.performance.Summarize(profile)
}

// RemainingAttempts reports the attempt policy state without mutating it.
func (s *attemptService) RemainingAttempts(ctx context.Context, assessmentID uint, studentID string) (*AttemptControl, error) {
	exists, err := s.repo.Assessment().Exists(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check assessment: %w", err)
	}
	if !exists {
		return nil, ErrAssessmentNotFound
	}

	settings, err := loadSettings(ctx, s.repo, assessmentID)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.Attempt().CountCompleted(ctx, studentID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	used := int(count)

	control := attemptControl(settings, used)

	// An open attempt can always be resumed
	if !control.CanStart {
		if _, err := s.repo.Attempt().GetInProgress(ctx, studentID, assessmentID); err == nil {
			control.CanStart = true
		} else if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to check open attempt: %w", err)
		}
	}

	return &control, nil
}
