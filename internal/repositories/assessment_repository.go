package repositories

import (
	"context"

	"github.com/EduPulse-2025/assessment-platform/internal/models"
)

// AssessmentRepository manages assessment rows and their question sets.
type AssessmentRepository interface {
	// Create persists the assessment together with any attached questions.
	Create(ctx context.Context, assessment *models.Assessment) error

	GetByID(ctx context.Context, id uint) (*models.Assessment, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Assessment, error)

	List(ctx context.Context, filters AssessmentFilters) ([]*models.Assessment, int64, error)

	// Delete removes the assessment and cascades to questions, settings,
	// attempts, responses, profiles and statistics.
	Delete(ctx context.Context, id uint) error

	Exists(ctx context.Context, id uint) (bool, error)
}

// QuestionRepository manages individual questions of an assessment.
type QuestionRepository interface {
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetByAssessment(ctx context.Context, assessmentID uint) ([]*models.Question, error)

	// Update replaces all mutable fields of the question in one write.
	Update(ctx context.Context, question *models.Question) error

	CountByAssessment(ctx context.Context, assessmentID uint) (int64, error)
}

// SettingsRepository manages the one-per-assessment attempt policy row.
type SettingsRepository interface {
	// GetByAssessment returns gorm.ErrRecordNotFound when the assessment
	// has no configured policy; callers fall back to the defaults.
	GetByAssessment(ctx context.Context, assessmentID uint) (*models.AssignmentSetting, error)

	Upsert(ctx context.Context, setting *models.AssignmentSetting) error
}
