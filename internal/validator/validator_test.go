package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/EduPulse-2025/assessment-platform/internal/errors"
)

type creationPayload struct {
	Topic        string `json:"topic" validate:"required,max=255"`
	BloomLevel   string `json:"bloom_level" validate:"required,bloom_level"`
	QuestionType string `json:"question_type" validate:"omitempty,question_type"`
	Difficulty   string `json:"difficulty" validate:"omitempty,difficulty_level"`
	NumQuestions int    `json:"num_questions" validate:"required,min=1,max=50"`
}

func TestValidateAcceptsValidPayload(t *testing.T) {
	v := New()

	err := v.Validate(&creationPayload{
		Topic:        "Photosynthesis",
		BloomLevel:   "understand",
		QuestionType: "mcq_single",
		Difficulty:   "medium",
		NumQuestions: 10,
	})
	assert.NoError(t, err)
}

func TestValidateCustomRules(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		payload   creationPayload
		wantField string
	}{
		{
			name:      "missing topic",
			payload:   creationPayload{BloomLevel: "apply", NumQuestions: 5},
			wantField: "topic",
		},
		{
			name:      "unknown bloom level",
			payload:   creationPayload{Topic: "T", BloomLevel: "memorize", NumQuestions: 5},
			wantField: "bloom_level",
		},
		{
			name:      "unknown question type",
			payload:   creationPayload{Topic: "T", BloomLevel: "apply", QuestionType: "essay", NumQuestions: 5},
			wantField: "question_type",
		},
		{
			name:      "unknown difficulty",
			payload:   creationPayload{Topic: "T", BloomLevel: "apply", Difficulty: "brutal", NumQuestions: 5},
			wantField: "difficulty",
		},
		{
			name:      "question count out of range",
			payload:   creationPayload{Topic: "T", BloomLevel: "apply", NumQuestions: 51},
			wantField: "num_questions",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.payload)
			require.Error(t, err)

			var verrs apperrors.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			// Error fields carry the json names, not the Go names
			assert.Equal(t, tt.wantField, verrs[0].Field)
			assert.NotEmpty(t, verrs[0].Message)
		})
	}
}

func TestValidateCollectsAllFailures(t *testing.T) {
	v := New()

	err := v.Validate(&creationPayload{})
	require.Error(t, err)

	var verrs apperrors.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 3)
}
