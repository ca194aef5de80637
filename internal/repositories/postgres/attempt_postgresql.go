package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/EduPulse-2025/assessment-platform/internal/models"
	"github.com/EduPulse-2025/assessment-platform/internal/repositories"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (r *AttemptPostgreSQL) Create(ctx context.Context, attempt *models.TestAttempt) error {
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

func (r *AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.TestAttempt, error) {
	var attempt models.TestAttempt
	if err := r.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptPostgreSQL) Update(ctx context.Context, attempt *models.TestAttempt) error {
	if err := r.db.WithContext(ctx).Save(attempt).Error; err != nil {
		return fmt.Errorf("failed to update attempt: %w", err)
	}
	return nil
}

func (r *AttemptPostgreSQL) GetByStudentAndAssessment(ctx context.Context, studentID string, assessmentID uint) ([]*models.TestAttempt, error) {
	var attempts []*models.TestAttempt
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND assessment_id = ?", studentID, assessmentID).
		Order("attempt_number ASC").
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempts: %w", err)
	}
	return attempts, nil
}

func (r *AttemptPostgreSQL) GetInProgress(ctx context.Context, studentID string, assessmentID uint) (*models.TestAttempt, error) {
	var attempt models.TestAttempt
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND assessment_id = ? AND status = ?",
			studentID, assessmentID, models.AttemptInProgress).
		Order("attempt_number DESC").
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// ListForUpdate locks the student's attempt rows for the rest of the
// surrounding transaction so concurrent starts serialize on the same set.
func (r *AttemptPostgreSQL) ListForUpdate(ctx context.Context, studentID string, assessmentID uint) ([]*models.TestAttempt, error) {
	var attempts []*models.TestAttempt
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ? AND assessment_id = ?", studentID, assessmentID).
		Order("attempt_number ASC").
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to lock attempts: %w", err)
	}
	return attempts, nil
}

func (r *AttemptPostgreSQL) CountByStudentAndAssessment(ctx context.Context, studentID string, assessmentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TestAttempt{}).
		Where("student_id = ? AND assessment_id = ?", studentID, assessmentID).
		Count(&count).Error
	return count, err
}

func (r *AttemptPostgreSQL) CountCompleted(ctx context.Context, studentID string, assessmentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TestAttempt{}).
		Where("student_id = ? AND assessment_id = ? AND status = ?",
			studentID, assessmentID, models.AttemptCompleted).
		Count(&count).Error
	return count, err
}
