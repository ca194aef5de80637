package services

import (
	"errors"

	apperrors "github.com/EduPulse-2025/assessment-platform/internal/errors"
)

// ===== SERVICE LAYER ERRORS =====

var (
	// Not found errors
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrSettingsNotFound   = errors.New("assignment settings not found")
	ErrStatisticsNotFound = errors.New("class statistics not generated yet")

	// Attempt policy errors
	ErrAttemptLimitExceeded = errors.New("maximum attempts exceeded")
	ErrDueDatePassed        = errors.New("assessment due date has passed")
	ErrInvalidAttemptState  = errors.New("attempt is not in progress")
	ErrAttemptOwnership     = errors.New("attempt belongs to a different student")

	// Completion errors
	ErrNoResponses = errors.New("no responses found for this assessment")

	// Generic
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError types are shared with the transport layer.
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// IsNotFound reports whether err maps to a 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAssessmentNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrSettingsNotFound) ||
		errors.Is(err, ErrStatisticsNotFound)
}

// IsForbidden reports whether err maps to a 403.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrAttemptLimitExceeded) ||
		errors.Is(err, ErrDueDatePassed) ||
		errors.Is(err, ErrAttemptOwnership)
}

// IsConflict reports whether err maps to a 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidAttemptState)
}

// IsValidation reports whether err maps to a 400.
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrNoResponses) {
		return true
	}
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return true
	}
	var verr *ValidationError
	return errors.As(err, &verr)
}
