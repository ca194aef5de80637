package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/EduPulse-2025/assessment-platform/internal/cache"
	"github.com/EduPulse-2025/assessment-platform/internal/models"
	"github.com/EduPulse-2025/assessment-platform/internal/repositories"
)

type AssessmentPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAssessmentPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (r *AssessmentPostgreSQL) Create(ctx context.Context, assessment *models.Assessment) error {
	if err := r.db.WithContext(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	r.cacheManager.InvalidateAssessment(ctx, assessment.ID)
	return nil
}

func (r *AssessmentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Assessment, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var assessment models.Assessment

	err := r.cacheManager.Assessment.CacheOrExecute(ctx, cacheKey, &assessment, cache.AssessmentCacheConfig.TTL, func() (interface{}, error) {
		var dbAssessment models.Assessment
		if err := r.db.WithContext(ctx).First(&dbAssessment, id).Error; err != nil {
			return nil, err
		}
		return &dbAssessment, nil
	})
	if err != nil {
		return nil, err
	}

	return &assessment, nil
}

func (r *AssessmentPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := r.db.WithContext(ctx).
		Preload("Questions").
		Preload("Settings").
		First(&assessment, id).Error; err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (r *AssessmentPostgreSQL) List(ctx context.Context, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	var assessments []*models.Assessment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Assessment{})
	query = applyAssessmentFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder)

	if err := query.Preload("Settings").Find(&assessments).Error; err != nil {
		return nil, 0, err
	}

	return assessments, total, nil
}

func (r *AssessmentPostgreSQL) Delete(ctx context.Context, id uint) error {
	// Dependent rows carry OnDelete:CASCADE constraints
	if err := r.db.WithContext(ctx).Delete(&models.Assessment{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}
	r.cacheManager.InvalidateAssessment(ctx, id)
	return nil
}

func (r *AssessmentPostgreSQL) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Assessment{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// ===== ASSIGNMENT SETTINGS =====

type SettingsPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewSettingsPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.SettingsRepository {
	return &SettingsPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (r *SettingsPostgreSQL) GetByAssessment(ctx context.Context, assessmentID uint) (*models.AssignmentSetting, error) {
	cacheKey := fmt.Sprintf("assessment:%d", assessmentID)
	var setting models.AssignmentSetting

	err := r.cacheManager.Settings.CacheOrExecute(ctx, cacheKey, &setting, cache.SettingsCacheConfig.TTL, func() (interface{}, error) {
		var dbSetting models.AssignmentSetting
		if err := r.db.WithContext(ctx).
			Where("assessment_id = ?", assessmentID).
			First(&dbSetting).Error; err != nil {
			return nil, err
		}
		return &dbSetting, nil
	})
	if err != nil {
		return nil, err
	}

	return &setting, nil
}

func (r *SettingsPostgreSQL) Upsert(ctx context.Context, setting *models.AssignmentSetting) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "assessment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"due_date",
				"time_limit_minutes",
				"max_attempts",
				"retake_allowed",
				"show_results_immediately",
				"shuffle_questions",
				"updated_at",
			}),
		}).
		Create(setting).Error
	if err != nil {
		return fmt.Errorf("failed to upsert assignment settings: %w", err)
	}

	cache.SafeDelete(ctx, r.cacheManager.Settings, fmt.Sprintf("assessment:%d", setting.AssessmentID))
	return nil
}
