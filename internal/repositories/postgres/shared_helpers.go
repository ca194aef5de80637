package postgres

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/EduPulse-2025/assessment-platform/internal/repositories"
)

func applyAssessmentFilters(query *gorm.DB, filters repositories.AssessmentFilters) *gorm.DB {
	if filters.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filters.TeacherID)
	}
	if filters.BloomLevel != nil {
		query = query.Where("bloom_level = ?", *filters.BloomLevel)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

// applyPaginationAndSort restricts sorting to known columns so filter input
// never reaches the ORDER BY clause verbatim.
func applyPaginationAndSort(query *gorm.DB, limit, offset int, sortBy, sortOrder string) *gorm.DB {
	switch sortBy {
	case "topic", "created_at":
	default:
		sortBy = "created_at"
	}
	if !strings.EqualFold(sortOrder, "asc") {
		sortOrder = "desc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, strings.ToLower(sortOrder)))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
