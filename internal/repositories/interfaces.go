package repositories

import (
	"time"

	"github.com/EduPulse-2025/assessment-platform/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type AssessmentFilters struct {
	TeacherID  *string            `json:"teacher_id"`
	BloomLevel *models.BloomLevel `json:"bloom_level"`
	DateFrom   *time.Time         `json:"date_from"`
	DateTo     *time.Time         `json:"date_to"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
	SortBy     string             `json:"sort_by"`    // "created_at", "topic"
	SortOrder  string             `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	Status    *models.AttemptStatus `json:"status"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

// ===== SHARED STATISTICS STRUCTS =====

// ResponseTally is a correct/total pair aggregated by the database.
type ResponseTally struct {
	Total   int64 `json:"total"`
	Correct int64 `json:"correct"`
}
