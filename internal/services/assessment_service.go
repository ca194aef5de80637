package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/EduPulse-2025/assessment-platform/internal/events"
	"github.com/EduPulse-2025/assessment-platform/internal/generation"
	"github.com/EduPulse-2025/assessment-platform/internal/models"
	"github.com/EduPulse-2025/assessment-platform/internal/repositories"
	"github.com/EduPulse-2025/assessment-platform/internal/validator"
)

type assessmentService struct {
	repo      repositories.Repository
	generator generation.Generator
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAssessmentService(
	repo repositories.Repository,
	generator generation.Generator,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) AssessmentService {
	return &assessmentService{
		repo:      repo,
		generator: generator,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

// Create generates the question set for the topic and persists the
// assessment, its questions and its default attempt policy together.
func (s *assessmentService) Create(ctx context.Context, req *CreateAssessmentRequest) (*AssessmentResponse, error) {
	s.logger.Info("Creating assessment",
		"topic", req.Topic,
		"bloom_level", req.BloomLevel,
		"num_questions", req.NumQuestions)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	drafts, err := s.generator.Generate(ctx, req.Topic, req.Description, models.BloomLevel(req.BloomLevel), req.NumQuestions)
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	var assessment *models.Assessment
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		assessment = &models.Assessment{
			Topic:       req.Topic,
			Description: req.Description,
			BloomLevel:  models.BloomLevel(req.BloomLevel),
			PDFContent:  req.PDFContent,
			TeacherID:   req.TeacherID,
		}
		if err := txRepo.Assessment().Create(ctx, assessment); err != nil {
			return fmt.Errorf("failed to create assessment: %w", err)
		}

		questions, err := draftsToQuestions(assessment.ID, drafts)
		if err != nil {
			return err
		}
		if err := txRepo.Question().CreateBatch(ctx, questions); err != nil {
			return fmt.Errorf("failed to create questions: %w", err)
		}
		assessment.Questions = dereferenceQuestions(questions)

		if err := txRepo.Settings().Upsert(ctx, models.DefaultAssignmentSetting(assessment.ID)); err != nil {
			return fmt.Errorf("failed to create assignment settings: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Assessment created",
		"assessment_id", assessment.ID,
		"question_count", len(assessment.Questions))

	if s.publisher != nil {
		event := events.NewAssessmentCreatedEvent(
			assessment.ID, assessment.Topic, assessment.TeacherID,
			len(assessment.Questions), s.generator.Name())
		if err := s.publisher.PublishEvent(ctx, event); err != nil {
			s.logger.Error("Failed to publish assessment created event",
				"assessment_id", assessment.ID,
				"error", err)
		}
	}

	return toAssessmentResponse(assessment, true)
}

// GetByID returns the student-facing view of an assessment: questions
// without their answer keys.
func (s *assessmentService) GetByID(ctx context.Context, id uint) (*AssessmentResponse, error) {
	assessment, err := s.repo.Assessment().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return toAssessmentResponse(assessment, true)
}

// GetTeacherView returns the assessment including every question's answer
// key and the configured attempt policy.
func (s *assessmentService) GetTeacherView(ctx context.Context, id uint) (*TeacherAssessmentResponse, error) {
	assessment, err := s.repo.Assessment().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	settings, err := loadSettings(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	questions := make([]TeacherQuestionView, 0, len(assessment.Questions))
	for i := range assessment.Questions {
		view, err := toTeacherQuestionView(&assessment.Questions[i])
		if err != nil {
			return nil, err
		}
		questions = append(questions, *view)
	}

	return &TeacherAssessmentResponse{
		ID:          assessment.ID,
		Topic:       assessment.Topic,
		Description: assessment.Description,
		BloomLevel:  assessment.BloomLevel,
		TeacherID:   assessment.TeacherID,
		CreatedAt:   assessment.CreatedAt,
		Questions:   questions,
		Settings:    settings,
	}, nil
}

func (s *assessmentService) List(ctx context.Context, filters repositories.AssessmentFilters) (*AssessmentListResponse, error) {
	assessments, total, err := s.repo.Assessment().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	responses := make([]*AssessmentResponse, 0, len(assessments))
	for _, assessment := range assessments {
		count, err := s.repo.Question().CountByAssessment(ctx, assessment.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count questions: %w", err)
		}
		assessment.QuestionCount = int(count)

		response, err := toAssessmentResponse(assessment, false)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}

	return &AssessmentListResponse{
		Assessments: responses,
		Total:       total,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	}, nil
}

// Delete removes the assessment and everything hanging off it: questions,
// settings, attempts, responses, profiles and statistics.
func (s *assessmentService) Delete(ctx context.Context, id uint) error {
	s.logger.Info("Deleting assessment", "assessment_id", id)

	exists, err := s.repo.Assessment().Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check assessment: %w", err)
	}
	if !exists {
		return ErrAssessmentNotFound
	}

	if err := s.repo.Assessment().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}

	s.logger.Info("Assessment deleted", "assessment_id", id)
	return nil
}

// ===== SETTINGS =====

// UpsertSettings merges the request into the current policy. Omitted fields
// keep their existing values.
func (s *assessmentService) UpsertSettings(ctx context.Context, assessmentID uint, req *AssessmentSettingsRequest) (*models.AssignmentSetting, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

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

	if req.DueDate != nil {
		settings.DueDate = req.DueDate
	}
	if req.TimeLimitMinutes != nil {
		settings.TimeLimitMinutes = req.TimeLimitMinutes
	}
	if req.MaxAttempts != nil {
		settings.MaxAttempts = *req.MaxAttempts
	}
	if req.RetakeAllowed != nil {
		settings.RetakeAllowed = *req.RetakeAllowed
	}
	if req.ShowResultsImmediately != nil {
		settings.ShowResultsImmediately = *req.ShowResultsImmediately
	}
	if req.ShuffleQuestions != nil {
		settings.ShuffleQuestions = *req.ShuffleQuestions
	}

	if err := s.repo.Settings().Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to upsert assignment settings: %w", err)
	}

	s.logger.Info("Assignment settings updated",
		"assessment_id", assessmentID,
		"max_attempts", settings.MaxAttempts,
		"retake_allowed", settings.RetakeAllowed)

	return settings, nil
}

func (s *assessmentService) GetSettings(ctx context.Context, assessmentID uint) (*models.AssignmentSetting, error) {
	exists, err := s.repo.Assessment().Exists(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check assessment: %w", err)
	}
	if !exists {
		return nil, ErrAssessmentNotFound
	}
	return loadSettings(ctx, s.repo, assessmentID)
}

// ===== QUESTION REGENERATION =====

// RegenerateQuestion replaces a question with a freshly generated one for
// the same assessment topic. The question keeps its identity; text, type,
// difficulty, key and options are all replaced.
func (s *assessmentService) RegenerateQuestion(ctx context.Context, questionID uint) (*TeacherQuestionView, error) {
	question, err := s.repo.Question().GetByID(ctx, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, question.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	drafts, err := s.generator.Generate(ctx, assessment.Topic, assessment.Description, question.BloomLevel, 1)
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	if err := applyDraft(question, drafts[0]); err != nil {
		return nil, err
	}
	if err := s.repo.Question().Update(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	s.logger.Info("Question regenerated",
		"question_id", questionID,
		"assessment_id", question.AssessmentID,
		"type", question.Type)

	return toTeacherQuestionView(question)
}
