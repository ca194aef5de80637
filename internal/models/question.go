package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionNumeric     QuestionType = "numeric"
	QuestionMCQSingle   QuestionType = "mcq_single"
	QuestionMCQMultiple QuestionType = "mcq_multiple"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// BloomLevel is one of the six levels of Bloom's taxonomy. The order of
// BloomLevels is the canonical reporting order for breakdowns.
type BloomLevel string

const (
	BloomRemember   BloomLevel = "remember"
	BloomUnderstand BloomLevel = "understand"
	BloomApply      BloomLevel = "apply"
	BloomAnalyze    BloomLevel = "analyze"
	BloomEvaluate   BloomLevel = "evaluate"
	BloomCreate     BloomLevel = "create"
)

// BloomLevels lists all taxonomy levels in canonical order.
var BloomLevels = []BloomLevel{
	BloomRemember,
	BloomUnderstand,
	BloomApply,
	BloomAnalyze,
	BloomEvaluate,
	BloomCreate,
}

type Question struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	AssessmentID uint            `json:"assessment_id" gorm:"not null;index"`
	Text         string          `json:"text" gorm:"type:text;not null" validate:"required"`
	Type         QuestionType    `json:"type" gorm:"not null;index" validate:"required,question_type"`
	Difficulty   DifficultyLevel `json:"difficulty" gorm:"default:medium;index" validate:"required,difficulty_level"`
	BloomLevel   BloomLevel      `json:"bloom_level" gorm:"not null;index" validate:"required,bloom_level"`

	// AnswerKey holds the type-specific grading key as JSONB. Its shape is
	// determined by Type; use DecodeAnswerKey to interpret it.
	AnswerKey datatypes.JSON `json:"answer_key,omitempty" gorm:"type:jsonb;not null"`

	// Options maps choice labels to display text for mcq questions,
	// null for numeric questions.
	Options datatypes.JSON `json:"options,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Assessment *Assessment `json:"-" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
}

// ===== ANSWER KEY SCHEMAS =====

// AnswerKey is the decoded grading key of a question. Exactly one concrete
// type exists per QuestionType.
type AnswerKey interface {
	answerKey()
}

// SingleChoiceKey grades mcq_single questions by exact label match.
type SingleChoiceKey struct {
	Answer string `json:"answer"`
}

// MultiChoiceKey grades mcq_multiple questions by exact set equality,
// order-independent, no partial credit.
type MultiChoiceKey struct {
	Answers []string `json:"answers"`
}

// NumericKey grades numeric questions within an inclusive tolerance band
// around Value.
type NumericKey struct {
	Value     float64 `json:"value"`
	Tolerance float64 `json:"tolerance"`
}

func (SingleChoiceKey) answerKey() {}
func (MultiChoiceKey) answerKey()  {}
func (NumericKey) answerKey()      {}

// DecodeAnswerKey interprets the raw JSONB key according to the question type.
func DecodeAnswerKey(qType QuestionType, raw datatypes.JSON) (AnswerKey, error) {
	switch qType {
	case QuestionMCQSingle:
		var key SingleChoiceKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return nil, fmt.Errorf("failed to decode single choice key: %w", err)
		}
		return key, nil
	case QuestionMCQMultiple:
		var key MultiChoiceKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return nil, fmt.Errorf("failed to decode multi choice key: %w", err)
		}
		return key, nil
	case QuestionNumeric:
		var key NumericKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return nil, fmt.Errorf("failed to decode numeric key: %w", err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unknown question type: %s", qType)
	}
}

// EncodeAnswerKey marshals a decoded key back into its JSONB representation.
func EncodeAnswerKey(key AnswerKey) (datatypes.JSON, error) {
	data, err := json.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer key: %w", err)
	}
	return datatypes.JSON(data), nil
}

// DecodeOptions returns the label-to-text choice map of an mcq question.
func (q *Question) DecodeOptions() (map[string]string, error) {
	if len(q.Options) == 0 {
		return nil, nil
	}
	var options map[string]string
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil, fmt.Errorf("failed to decode question options: %w", err)
	}
	return options, nil
}

// ValidQuestionType reports whether t is a supported question type.
func ValidQuestionType(t QuestionType) bool {
	switch t {
	case QuestionNumeric, QuestionMCQSingle, QuestionMCQMultiple:
		return true
	}
	return false
}

// ValidDifficulty reports whether d is a supported difficulty level.
func ValidDifficulty(d DifficultyLevel) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ValidBloomLevel reports whether b is a Bloom's taxonomy level.
func ValidBloomLevel(b BloomLevel) bool {
	for _, level := range BloomLevels {
		if b == level {
			return true
		}
	}
	return false
}
