package pkg

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/EduPulse-2025/assessment-platform/internal/config"
	"github.com/EduPulse-2025/assessment-platform/internal/models"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Migrate applies the schema for all domain models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Assessment{},
		&models.Question{},
		&models.AssignmentSetting{},
		&models.TestAttempt{},
		&models.StudentResponse{},
		&models.PerformanceProfile{},
		&models.ClassStatistics{},
	); err != nil {
		return err
	}

	// At most one open attempt per (student, assessment). Concurrent starts
	// that slip past the row lock on an empty attempt set hit this index and
	// are resumed instead.
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_test_attempts_one_in_progress
		ON test_attempts (student_id, assessment_id)
		WHERE status = 'in_progress'`).Error
}
