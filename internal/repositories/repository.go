package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates all repository interfaces
type Repository interface {
	// Assessment domain
	Assessment() AssessmentRepository
	Question() QuestionRepository
	Settings() SettingsRepository

	// Attempt domain
	Attempt() AttemptRepository
	Response() ResponseRepository

	// Analytics domain
	Performance() PerformanceRepository
	Statistics() StatisticsRepository

	// Transaction support. The callback receives a Repository bound to the
	// transaction; an error return rolls everything back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// IsNotFoundError reports whether err is the database's missing-row error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is a unique-constraint violation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
