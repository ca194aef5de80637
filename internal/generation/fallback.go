package generation

import (
	"context"
	"fmt"

	"github.com/EduPulse-2025/assessment-platform/internal/models"
)

// FallbackGenerator synthesizes deterministic placeholder questions locally.
// Question types and difficulties cycle by position so a batch always mixes
// all three of each.
type FallbackGenerator struct{}

func NewFallbackGenerator() *FallbackGenerator {
	return &FallbackGenerator{}
}

var (
	fallbackTypes = []models.QuestionType{
		models.QuestionMCQSingle,
		models.QuestionMCQMultiple,
		models.QuestionNumeric,
	}
	fallbackDifficulties = []models.DifficultyLevel{
		models.DifficultyEasy,
		models.DifficultyMedium,
		models.DifficultyHard,
	}
)

func (g *FallbackGenerator) Generate(ctx context.Context, topic, description string, bloomLevel models.BloomLevel, count int) ([]QuestionDraft, error) {
	drafts := make([]QuestionDraft, 0, count)

	for i := 0; i < count; i++ {
		qType := fallbackTypes[i%len(fallbackTypes)]
		difficulty := fallbackDifficulties[i%len(fallbackDifficulties)]

		var draft QuestionDraft
		switch qType {
		case models.QuestionMCQSingle:
			draft = QuestionDraft{
				Text:      fmt.Sprintf("Question %d: What is an important concept related to %s?", i+1, topic),
				AnswerKey: models.SingleChoiceKey{Answer: "A"},
				Options: map[string]string{
					"A": fmt.Sprintf("Key concept of %s", topic),
					"B": "Secondary aspect",
					"C": "Related but different topic",
					"D": "Unrelated concept",
				},
			}
		case models.QuestionMCQMultiple:
			draft = QuestionDraft{
				Text:      fmt.Sprintf("Question %d: Which aspects are important when studying %s? (Select all that apply)", i+1, topic),
				AnswerKey: models.MultiChoiceKey{Answers: []string{"A", "C"}},
				Options: map[string]string{
					"A": fmt.Sprintf("Primary principle of %s", topic),
					"B": "Unrelated concept",
					"C": fmt.Sprintf("Secondary principle of %s", topic),
					"D": "Incorrect assumption",
				},
			}
		default:
			draft = QuestionDraft{
				Text:      fmt.Sprintf("Question %d: Provide a numerical value related to %s (example answer based on context):", i+1, topic),
				AnswerKey: models.NumericKey{Value: 10, Tolerance: 2},
			}
		}

		draft.Type = qType
		draft.Difficulty = difficulty
		draft.BloomLevel = bloomLevel
		drafts = append(drafts, draft)
	}

	return drafts, nil
}

func (g *FallbackGenerator) Name() string {
	return "fallback"
}
