package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/EduPulse-2025/assessment-platform/internal/models"
	"github.com/EduPulse-2025/assessment-platform/internal/repositories"
)

type ResponsePostgreSQL struct {
	db *gorm.DB
}

func NewResponsePostgreSQL(db *gorm.DB) repositories.ResponseRepository {
	return &ResponsePostgreSQL{db: db}
}

func (r *ResponsePostgreSQL) Create(ctx context.Context, response *models.StudentResponse) error {
	if err := r.db.WithContext(ctx).Create(response).Error; err != nil {
		return fmt.Errorf("failed to create response: %w", err)
	}
	return nil
}

func (r *ResponsePostgreSQL) GetByAttempt(ctx context.Context, attemptID uint) ([]*models.StudentResponse, error) {
	var responses []*models.StudentResponse
	if err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Preload("Question").
		Order("id ASC").
		Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempt responses: %w", err)
	}
	return responses, nil
}

func (r *ResponsePostgreSQL) GetByStudentAndAssessment(ctx context.Context, studentID string, assessmentID uint) ([]*models.StudentResponse, error) {
	var responses []*models.StudentResponse
	if err := r.db.WithContext(ctx).
		Joins("JOIN questions ON questions.id = student_responses.question_id").
		Where("student_responses.student_id = ? AND questions.assessment_id = ?", studentID, assessmentID).
		Preload("Question").
		Order("student_responses.id ASC").
		Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("failed to get student responses: %w", err)
	}
	return responses, nil
}

func (r *ResponsePostgreSQL) GetByAssessment(ctx context.Context, assessmentID uint) ([]*models.StudentResponse, error) {
	var responses []*models.StudentResponse
	if err := r.db.WithContext(ctx).
		Joins("JOIN questions ON questions.id = student_responses.question_id").
		Where("questions.assessment_id = ?", assessmentID).
		Preload("Question").
		Order("student_responses.id ASC").
		Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("failed to get assessment responses: %w", err)
	}
	return responses, nil
}
