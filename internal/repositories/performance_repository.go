package repositories

import (
	"context"

	"github.com/EduPulse-2025/assessment-platform/internal/models"
)

// PerformanceRepository manages the append-only performance profile history.
type PerformanceRepository interface {
	Create(ctx context.Context, profile *models.PerformanceProfile) error

	GetByAssessment(ctx context.Context, assessmentID uint) ([]*models.PerformanceProfile, error)
	GetByStudent(ctx context.Context, studentID string) ([]*models.PerformanceProfile, error)
	GetByStudentAndAssessment(ctx context.Context, studentID string, assessmentID uint) ([]*models.PerformanceProfile, error)
}

// StatisticsRepository manages the single class statistics row per assessment.
type StatisticsRepository interface {
	// GetByAssessment returns gorm.ErrRecordNotFound when no statistics
	// row has been generated yet.
	GetByAssessment(ctx context.Context, assessmentID uint) (*models.ClassStatistics, error)

	// Upsert replaces the assessment's statistics row wholesale, creating
	// it when absent.
	Upsert(ctx context.Context, stats *models.ClassStatistics) error

	ListAll(ctx context.Context) ([]*models.ClassStatistics, error)
}
