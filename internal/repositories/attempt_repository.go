package repositories

import (
	"context"

	"github.com/EduPulse-2025/assessment-platform/internal/models"
)

// AttemptRepository manages test attempt rows.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.TestAttempt) error
	GetByID(ctx context.Context, id uint) (*models.TestAttempt, error)
	Update(ctx context.Context, attempt *models.TestAttempt) error

	GetByStudentAndAssessment(ctx context.Context, studentID string, assessmentID uint) ([]*models.TestAttempt, error)

	// GetInProgress returns the single open attempt of a student for an
	// assessment, or gorm.ErrRecordNotFound when none is open.
	GetInProgress(ctx context.Context, studentID string, assessmentID uint) (*models.TestAttempt, error)

	// ListForUpdate reads the student's attempt rows under a row-level
	// write lock. Only meaningful inside WithTransaction; used to make
	// attempt counting and numbering race-free.
	ListForUpdate(ctx context.Context, studentID string, assessmentID uint) ([]*models.TestAttempt, error)

	CountByStudentAndAssessment(ctx context.Context, studentID string, assessmentID uint) (int64, error)
	CountCompleted(ctx context.Context, studentID string, assessmentID uint) (int64, error)
}

// ResponseRepository manages the append-only response history.
type ResponseRepository interface {
	Create(ctx context.Context, response *models.StudentResponse) error

	GetByAttempt(ctx context.Context, attemptID uint) ([]*models.StudentResponse, error)

	// GetByStudentAndAssessment returns all of the student's responses to
	// questions of the assessment, question preloaded, oldest first.
	GetByStudentAndAssessment(ctx context.Context, studentID string, assessmentID uint) ([]*models.StudentResponse, error)

	// GetByAssessment returns every response to the assessment's questions
	// across all students, question preloaded.
	GetByAssessment(ctx context.Context, assessmentID uint) ([]*models.StudentResponse, error)
}
