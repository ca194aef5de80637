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

type PerformancePostgreSQL struct {
	db *gorm.DB
}

func NewPerformancePostgreSQL(db *gorm.DB) repositories.PerformanceRepository {
	return &PerformancePostgreSQL{db: db}
}

func (r *PerformancePostgreSQL) Create(ctx context.Context, profile *models.PerformanceProfile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("failed to create performance profile: %w", err)
	}
	return nil
}

func (r *PerformancePostgreSQL) GetByAssessment(ctx context.Context, assessmentID uint) ([]*models.PerformanceProfile, error) {
	var profiles []*models.PerformanceProfile
	if err := r.db.WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("id ASC").
		Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to get assessment profiles: %w", err)
	}
	return profiles, nil
}

func (r *PerformancePostgreSQL) GetByStudent(ctx context.Context, studentID string) ([]*models.PerformanceProfile, error) {
	var profiles []*models.PerformanceProfile
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("completed_at ASC").
		Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to get student profiles: %w", err)
	}
	return profiles, nil
}

func (r *PerformancePostgreSQL) GetByStudentAndAssessment(ctx context.Context, studentID string, assessmentID uint) ([]*models.PerformanceProfile, error) {
	var profiles []*models.PerformanceProfile
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND assessment_id = ?", studentID, assessmentID).
		Order("completed_at ASC").
		Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to get student assessment profiles: %w", err)
	}
	return profiles, nil
}

// ===== CLASS STATISTICS =====

type StatisticsPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewStatisticsPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.StatisticsRepository {
	return &StatisticsPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (r *StatisticsPostgreSQL) GetByAssessment(ctx context.Context, assessmentID uint) (*models.ClassStatistics, error) {
	cacheKey := fmt.Sprintf("assessment:%d", assessmentID)
	var stats models.ClassStatistics

	err := r.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		var dbStats models.ClassStatistics
		if err := r.db.WithContext(ctx).
			Where("assessment_id = ?", assessmentID).
			First(&dbStats).Error; err != nil {
			return nil, err
		}
		return &dbStats, nil
	})
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (r *StatisticsPostgreSQL) Upsert(ctx context.Context, stats *models.ClassStatistics) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "assessment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_students",
				"completed_students",
				"average_score",
				"pass_rate",
				"average_time_seconds",
				"difficulty_stats",
				"bloom_level_stats",
				"question_stats",
				"generated_at",
				"updated_at",
			}),
		}).
		Create(stats).Error
	if err != nil {
		return fmt.Errorf("failed to upsert class statistics: %w", err)
	}

	r.cacheManager.InvalidateStatistics(ctx, stats.AssessmentID)
	return nil
}

func (r *StatisticsPostgreSQL) ListAll(ctx context.Context) ([]*models.ClassStatistics, error) {
	var stats []*models.ClassStatistics
	if err := r.db.WithContext(ctx).
		Order("assessment_id ASC").
		Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to list class statistics: %w", err)
	}
	return stats, nil
}
