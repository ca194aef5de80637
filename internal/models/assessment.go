package models

import (
	"time"
)

type Assessment struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Topic       string     `json:"topic" gorm:"not null;size:255;index" validate:"required,max=255"`
	Description string     `json:"description" gorm:"type:text"`
	BloomLevel  BloomLevel `json:"bloom_level" gorm:"not null;index" validate:"required,bloom_level"`

	// PDFContent holds extracted source material the questions were
	// generated from, when the assessment was created from a document.
	PDFContent *string `json:"pdf_content,omitempty" gorm:"type:text"`

	TeacherID *string `json:"teacher_id,omitempty" gorm:"index;size:255"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []Question         `json:"questions,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	Settings  *AssignmentSetting `json:"settings,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`

	// Computed fields (not stored)
	QuestionCount int `json:"question_count,omitempty" gorm:"-"`
}

// AssignmentSetting carries the per-assessment attempt policy. At most one
// row exists per assessment; absence means the defaults apply.
type AssignmentSetting struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	AssessmentID uint `json:"assessment_id" gorm:"not null;uniqueIndex"`

	DueDate          *time.Time `json:"due_date,omitempty"`
	TimeLimitMinutes *int       `json:"time_limit_minutes,omitempty" validate:"omitempty,gt=0"`

	// MaxAttempts of zero means unlimited attempts.
	MaxAttempts   int  `json:"max_attempts" gorm:"default:1" validate:"gte=0"`
	RetakeAllowed bool `json:"retake_allowed" gorm:"default:false"`

	ShowResultsImmediately bool `json:"show_results_immediately" gorm:"default:true"`
	ShuffleQuestions       bool `json:"shuffle_questions" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultAssignmentSetting returns the policy applied when a teacher has not
// configured the assessment: a single attempt, no deadline, no retakes.
func DefaultAssignmentSetting(assessmentID uint) *AssignmentSetting {
	return &AssignmentSetting{
		AssessmentID:           assessmentID,
		MaxAttempts:            1,
		RetakeAllowed:          false,
		ShowResultsImmediately: true,
	}
}

// Unlimited reports whether the policy places no cap on attempt count.
func (s *AssignmentSetting) Unlimited() bool {
	return s.MaxAttempts == 0
}

// DuePassed reports whether the due date exists and lies strictly before now.
func (s *AssignmentSetting) DuePassed(now time.Time) bool {
	return s.DueDate != nil && now.After(*s.DueDate)
}
