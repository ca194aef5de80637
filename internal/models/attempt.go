package models

import (
	"time"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

// TestAttempt is one run of a student through an assessment. Attempt numbers
// are 1-based and never reused; at most one in_progress attempt exists per
// (student, assessment) pair.
type TestAttempt struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	StudentID     string        `json:"student_id" gorm:"not null;index;size:255"`
	AssessmentID  uint          `json:"assessment_id" gorm:"not null;index"`
	AttemptNumber int           `json:"attempt_number" gorm:"not null"`
	Status        AttemptStatus `json:"status" gorm:"default:in_progress;index"`

	// Timing
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	TimeSpentSeconds *int       `json:"time_spent_seconds,omitempty"`

	// Scoring, recorded on completion. Never trusted from the client.
	TotalScore       *float64 `json:"total_score,omitempty"`
	MaxPossibleScore *float64 `json:"max_possible_score,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assessment *Assessment       `json:"-" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	Responses  []StudentResponse `json:"responses,omitempty" gorm:"foreignKey:AttemptID"`
}

// InProgress reports whether the attempt is still open for responses.
func (a *TestAttempt) InProgress() bool {
	return a.Status == AttemptInProgress
}

// Percentage returns the completed attempt's score as a 0-100 fraction,
// nil before completion or when the attempt had no questions.
func (a *TestAttempt) Percentage() *float64 {
	if a.TotalScore == nil || a.MaxPossibleScore == nil || *a.MaxPossibleScore == 0 {
		return nil
	}
	pct := *a.TotalScore / *a.MaxPossibleScore * 100
	return &pct
}

// StudentResponse records one graded answer. Rows are append-only: correctness
// is fixed at submission time and re-submissions add new rows rather than
// rewrite history.
type StudentResponse struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	StudentID  string `json:"student_id" gorm:"not null;index;size:255"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	AttemptID  *uint  `json:"attempt_id,omitempty" gorm:"index"`

	Response string `json:"response" gorm:"type:text"`
	Correct  bool   `json:"correct"`
	Confused bool   `json:"confused"`

	// Presentation timing as reported by the client. ShownAt may postdate
	// AnsweredAt under clock skew; aggregation tolerates that.
	ShownAt      time.Time `json:"shown_at"`
	AnsweredAt   time.Time `json:"answered_at"`
	TimeTakenSec float64   `json:"time_taken_sec"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Question *Question    `json:"-" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
	Attempt  *TestAttempt `json:"-" gorm:"foreignKey:AttemptID"`
}
