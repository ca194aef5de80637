package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/EduPulse-2025/assessment-platform/internal/events"
	"github.com/EduPulse-2025/assessment-platform/internal/generation"
	"github.com/EduPulse-2025/assessment-platform/internal/repositories"
	"github.com/EduPulse-2025/assessment-platform/internal/validator"
)

// serviceManager wires all services to their shared dependencies and owns
// their lifecycle.
type serviceManager struct {
	repo      repositories.Repository
	generator generation.Generator
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator

	assessmentService  AssessmentService
	attemptService     AttemptService
	gradingService     GradingService
	performanceService PerformanceService
	statisticsService  StatisticsService
	studentService     StudentService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(
	repo repositories.Repository,
	generator generation.Generator,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) ServiceManager {
	return &serviceManager{
		repo:      repo,
		generator: generator,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// Initialize constructs all services. Construction order matters: grading
// and performance are pure, statistics needs the publisher, and the attempt
// service composes all three.
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.gradingService = NewGradingService(sm.logger)
	sm.performanceService = NewPerformanceService(sm.logger)
	sm.statisticsService = NewStatisticsService(sm.repo, sm.publisher, sm.logger)
	sm.attemptService = NewAttemptService(
		sm.repo, sm.gradingService, sm.performanceService, sm.statisticsService,
		sm.publisher, sm.logger, sm.validator)
	sm.assessmentService = NewAssessmentService(
		sm.repo, sm.generator, sm.publisher, sm.logger, sm.validator)
	sm.studentService = NewStudentService(sm.repo, sm.performanceService, sm.logger)

	sm.initialized = true
	sm.logger.Info("Service manager initialized")

	return nil
}

// ===== SERVICE GETTERS =====

func (sm *serviceManager) Assessment() AssessmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.assessmentService
}

func (sm *serviceManager) Attempt() AttemptService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.attemptService
}

func (sm *serviceManager) Grading() GradingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.gradingService
}

func (sm *serviceManager) Performance() PerformanceService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.performanceService
}

func (sm *serviceManager) Statistics() StatisticsService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.statisticsService
}

func (sm *serviceManager) Student() StudentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.studentService
}

func (sm *serviceManager) mustBeInitialized() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// ===== HEALTH AND LIFECYCLE =====

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if err := sm.repo.Close(); err != nil {
		sm.logger.Error("Failed to close repository", "error", err)
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down")

	return nil
}
