package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// PerformanceProfile is an append-only snapshot of one completed attempt (or
// free-form completion). Completing an attempt creates a new row; rows are
// never updated afterwards.
type PerformanceProfile struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	StudentID    string `json:"student_id" gorm:"not null;index;size:255"`
	AssessmentID uint   `json:"assessment_id" gorm:"not null;index"`
	AttemptID    *uint  `json:"attempt_id,omitempty" gorm:"index"`

	TotalCorrect       int     `json:"total_correct"`
	TotalIncorrect     int     `json:"total_incorrect"`
	AvgTimePerQuestion float64 `json:"avg_time_per_question"`

	// WeakAreas maps Bloom level to incorrect count, holding only levels
	// whose accuracy fell strictly below the weak-area threshold.
	WeakAreas datatypes.JSON `json:"weak_areas" gorm:"type:jsonb"`

	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
	DurationSeconds float64   `json:"duration_seconds"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Assessment *Assessment `json:"-" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
}

// Accuracy returns the fraction of graded responses that were correct,
// zero when the profile covers no responses.
func (p *PerformanceProfile) Accuracy() float64 {
	total := p.TotalCorrect + p.TotalIncorrect
	if total == 0 {
		return 0
	}
	return float64(p.TotalCorrect) / float64(total)
}

// DecodeWeakAreas unpacks the weak-area map from JSONB.
func (p *PerformanceProfile) DecodeWeakAreas() (map[string]int, error) {
	if len(p.WeakAreas) == 0 {
		return map[string]int{}, nil
	}
	var areas map[string]int
	if err := json.Unmarshal(p.WeakAreas, &areas); err != nil {
		return nil, fmt.Errorf("failed to decode weak areas: %w", err)
	}
	return areas, nil
}

// ClassStatistics is the single mutable analytics row per assessment. It is
// always recomputed from scratch and replaced wholesale; the row does not
// exist until at least one performance profile does.
type ClassStatistics struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	AssessmentID uint `json:"assessment_id" gorm:"not null;uniqueIndex"`

	TotalStudents     int `json:"total_students"`
	CompletedStudents int `json:"completed_students"`

	// AverageScore and PassRate are percentages on a 0-100 scale.
	AverageScore       float64 `json:"average_score"`
	PassRate           float64 `json:"pass_rate"`
	AverageTimeSeconds float64 `json:"average_time_seconds"`

	DifficultyStats datatypes.JSON `json:"difficulty_stats" gorm:"type:jsonb"`
	BloomLevelStats datatypes.JSON `json:"bloom_level_stats" gorm:"type:jsonb"`
	QuestionStats   datatypes.JSON `json:"question_stats" gorm:"type:jsonb"`

	GeneratedAt time.Time `json:"generated_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Assessment *Assessment `json:"-" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
}

// BreakdownEntry is one bucket of a difficulty or Bloom-level breakdown.
type BreakdownEntry struct {
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// QuestionStat is the per-question slice of the class statistics.
type QuestionStat struct {
	QuestionID  uint    `json:"question_id"`
	Text        string  `json:"text"`
	Total       int     `json:"total"`
	Correct     int     `json:"correct"`
	Accuracy    float64 `json:"accuracy"`
	AvgTimeSec  float64 `json:"avg_time_sec"`
	Difficulty  string  `json:"difficulty"`
	BloomLevel  string  `json:"bloom_level"`
}
