package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of domain events this service publishes
type EventType string

const (
	EventAssessmentCreated EventType = "assessment.created"

	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptCompleted EventType = "attempt.completed"

	EventStatisticsRefreshed EventType = "statistics.refreshed"
)

const eventSource = "assessment-platform"

// Event is the envelope for all published domain events
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type AssessmentCreatedEvent struct {
	AssessmentID  uint    `json:"assessment_id"`
	Topic         string  `json:"topic"`
	TeacherID     *string `json:"teacher_id,omitempty"`
	QuestionCount int     `json:"question_count"`
	GeneratedBy   string  `json:"generated_by"` // "external" or "fallback"
}

type AttemptStartedEvent struct {
	AttemptID     uint      `json:"attempt_id"`
	AssessmentID  uint      `json:"assessment_id"`
	StudentID     string    `json:"student_id"`
	AttemptNumber int       `json:"attempt_number"`
	StartedAt     time.Time `json:"started_at"`
}

type AttemptCompletedEvent struct {
	AttemptID        uint      `json:"attempt_id"`
	AssessmentID     uint      `json:"assessment_id"`
	StudentID        string    `json:"student_id"`
	CompletedAt      time.Time `json:"completed_at"`
	TotalScore       float64   `json:"total_score"`
	MaxPossibleScore float64   `json:"max_possible_score"`
}

type StatisticsRefreshedEvent struct {
	AssessmentID      uint      `json:"assessment_id"`
	CompletedStudents int       `json:"completed_students"`
	PassRate          float64   `json:"pass_rate"`
	AverageScore      float64   `json:"average_score"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// Event factory functions

func NewAssessmentCreatedEvent(assessmentID uint, topic string, teacherID *string, questionCount int, generatedBy string) *Event {
	return newEvent(EventAssessmentCreated, AssessmentCreatedEvent{
		AssessmentID:  assessmentID,
		Topic:         topic,
		TeacherID:     teacherID,
		QuestionCount: questionCount,
		GeneratedBy:   generatedBy,
	})
}

func NewAttemptStartedEvent(attemptID, assessmentID uint, studentID string, attemptNumber int, startedAt time.Time) *Event {
	return newEvent(EventAttemptStarted, AttemptStartedEvent{
		AttemptID:     attemptID,
		AssessmentID:  assessmentID,
		StudentID:     studentID,
		AttemptNumber: attemptNumber,
		StartedAt:     startedAt,
	})
}

func NewAttemptCompletedEvent(attemptID, assessmentID uint, studentID string, completedAt time.Time, totalScore, maxScore float64) *Event {
	return newEvent(EventAttemptCompleted, AttemptCompletedEvent{
		AttemptID:        attemptID,
		AssessmentID:     assessmentID,
		StudentID:        studentID,
		CompletedAt:      completedAt,
		TotalScore:       totalScore,
		MaxPossibleScore: maxScore,
	})
}

func NewStatisticsRefreshedEvent(assessmentID uint, completedStudents int, passRate, averageScore float64, generatedAt time.Time) *Event {
	return newEvent(EventStatisticsRefreshed, StatisticsRefreshedEvent{
		AssessmentID:      assessmentID,
		CompletedStudents: completedStudents,
		PassRate:          passRate,
		AverageScore:      averageScore,
		GeneratedAt:       generatedAt,
	})
}

func newEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data:      data,
	}
}
