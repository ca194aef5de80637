package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EduPulse-2025/assessment-platform/internal/models"
)

func TestFallbackGeneratorCyclesTypes(t *testing.T) {
	g := NewFallbackGenerator()

	drafts, err := g.Generate(context.Background(), "Photosynthesis", "", models.BloomUnderstand, 7)
	require.NoError(t, err)
	require.Len(t, drafts, 7)

	wantTypes := []models.QuestionType{
		models.QuestionMCQSingle,
		models.QuestionMCQMultiple,
		models.QuestionNumeric,
		models.QuestionMCQSingle,
		models.QuestionMCQMultiple,
		models.QuestionNumeric,
		models.QuestionMCQSingle,
	}
	wantDifficulties := []models.DifficultyLevel{
		models.DifficultyEasy,
		models.DifficultyMedium,
		models.DifficultyHard,
		models.DifficultyEasy,
		models.DifficultyMedium,
		models.DifficultyHard,
		models.DifficultyEasy,
	}

	for i, draft := range drafts {
		assert.Equal(t, wantTypes[i], draft.Type)
		assert.Equal(t, wantDifficulties[i], draft.Difficulty)
		assert.Equal(t, models.BloomUnderstand, draft.BloomLevel)
		assert.NoError(t, validateDraft(&draft))
	}

	assert.Equal(t, "fallback", g.Name())
}

func TestFallbackGeneratorIsDeterministic(t *testing.T) {
	g := NewFallbackGenerator()
	ctx := context.Background()

	first, err := g.Generate(ctx, "Optics", "", models.BloomApply, 3)
	require.NoError(t, err)
	second, err := g.Generate(ctx, "Optics", "", models.BloomApply, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

type stubGenerator struct {
	drafts []QuestionDraft
	err    error
	calls  int
}

func (s *stubGenerator) Generate(ctx context.Context, topic, description string, bloomLevel models.BloomLevel, count int) ([]QuestionDraft, error) {
	s.calls++
	return s.drafts, s.err
}

func (s *stubGenerator) Name() string { return "stub" }

func TestRecoveringGeneratorFallsBack(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	primary := &stubGenerator{err: errors.New("upstream down")}
	secondary := &stubGenerator{drafts: []QuestionDraft{{
		Text:       "backup question",
		Type:       models.QuestionNumeric,
		Difficulty: models.DifficultyEasy,
		BloomLevel: models.BloomRemember,
		AnswerKey:  models.NumericKey{Value: 1},
	}}}

	g := NewRecoveringGenerator(primary, secondary, logger)
	drafts, err := g.Generate(ctx, "Topic", "", models.BloomRemember, 1)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "backup question", drafts[0].Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestRecoveringGeneratorPrefersPrimary(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	primary := &stubGenerator{drafts: []QuestionDraft{{
		Text:       "primary question",
		Type:       models.QuestionMCQSingle,
		Difficulty: models.DifficultyMedium,
		BloomLevel: models.BloomApply,
		AnswerKey:  models.SingleChoiceKey{Answer: "A"},
	}}}
	secondary := &stubGenerator{}

	g := NewRecoveringGenerator(primary, secondary, logger)
	drafts, err := g.Generate(context.Background(), "Topic", "", models.BloomApply, 1)
	require.NoError(t, err)
	assert.Equal(t, "primary question", drafts[0].Text)
	assert.Equal(t, 0, secondary.calls)
}

func TestValidateDraft(t *testing.T) {
	valid := QuestionDraft{
		Text:       "What?",
		Type:       models.QuestionMCQSingle,
		Difficulty: models.DifficultyEasy,
		BloomLevel: models.BloomRemember,
		AnswerKey:  models.SingleChoiceKey{Answer: "A"},
	}

	tests := []struct {
		name    string
		mutate  func(*QuestionDraft)
		wantErr bool
	}{
		{name: "valid", mutate: func(d *QuestionDraft) {}},
		{name: "empty text", mutate: func(d *QuestionDraft) { d.Text = "" }, wantErr: true},
		{name: "unknown type", mutate: func(d *QuestionDraft) { d.Type = "essay" }, wantErr: true},
		{name: "unknown difficulty", mutate: func(d *QuestionDraft) { d.Difficulty = "extreme" }, wantErr: true},
		{name: "unknown bloom level", mutate: func(d *QuestionDraft) { d.BloomLevel = "memorize" }, wantErr: true},
		{name: "missing key", mutate: func(d *QuestionDraft) { d.AnswerKey = nil }, wantErr: true},
		{
			name: "key type mismatch",
			mutate: func(d *QuestionDraft) {
				d.AnswerKey = models.NumericKey{Value: 1}
			},
			wantErr: true,
		},
		{
			name: "multi choice without answers",
			mutate: func(d *QuestionDraft) {
				d.Type = models.QuestionMCQMultiple
				d.AnswerKey = models.MultiChoiceKey{}
			},
			wantErr: true,
		},
		{
			name: "negative numeric tolerance",
			mutate: func(d *QuestionDraft) {
				d.Type = models.QuestionNumeric
				d.AnswerKey = models.NumericKey{Value: 1, Tolerance: -0.5}
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := valid
			tt.mutate(&draft)
			err := validateDraft(&draft)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
