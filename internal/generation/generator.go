package generation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/EduPulse-2025/assessment-platform/internal/config"
	"github.com/EduPulse-2025/assessment-platform/internal/models"
)

// QuestionDraft is one generated question before persistence. AnswerKey is
// already decoded into its typed form.
type QuestionDraft struct {
	Text       string
	Type       models.QuestionType
	Difficulty models.DifficultyLevel
	BloomLevel models.BloomLevel
	AnswerKey  models.AnswerKey
	Options    map[string]string
}

// Generator produces a batch of question drafts for a topic.
type Generator interface {
	// Generate returns exactly count drafts or an error; partial batches
	// are treated as failures by callers.
	Generate(ctx context.Context, topic, description string, bloomLevel models.BloomLevel, count int) ([]QuestionDraft, error)

	// Name identifies the strategy in logs and events.
	Name() string
}

// Resolve selects the generation strategy once at startup: the external API
// wrapped with local fallback when configured, the local fallback alone
// otherwise.
func Resolve(cfg *config.Config, logger *slog.Logger) Generator {
	fallback := NewFallbackGenerator()

	if cfg.GenerationAPIURL == "" {
		logger.Info("No generation API configured, using local question synthesis")
		return fallback
	}

	external := NewHTTPGenerator(cfg.GenerationAPIURL, cfg.GenerationAPIKey, cfg.GenerationTimeoutSec)
	logger.Info("Using external question generation with local fallback",
		"api_url", cfg.GenerationAPIURL,
		"timeout_sec", cfg.GenerationTimeoutSec)

	return NewRecoveringGenerator(external, fallback, logger)
}

// RecoveringGenerator tries a primary generator and falls back to a secondary
// one on any failure. Generation failures never surface to callers.
type RecoveringGenerator struct {
	primary   Generator
	secondary Generator
	logger    *slog.Logger
}

func NewRecoveringGenerator(primary, secondary Generator, logger *slog.Logger) *RecoveringGenerator {
	return &RecoveringGenerator{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

func (g *RecoveringGenerator) Generate(ctx context.Context, topic, description string, bloomLevel models.BloomLevel, count int) ([]QuestionDraft, error) {
	drafts, err := g.primary.Generate(ctx, topic, description, bloomLevel, count)
	if err == nil {
		return drafts, nil
	}

	g.logger.Warn("External question generation failed, falling back to local synthesis",
		"topic", topic,
		"count", count,
		"error", err)

	return g.secondary.Generate(ctx, topic, description, bloomLevel, count)
}

func (g *RecoveringGenerator) Name() string {
	return g.primary.Name()
}

// validateDraft rejects drafts with missing fields or unknown enums before
// they reach the database.
func validateDraft(d *QuestionDraft) error {
	if d.Text == "" {
		return fmt.Errorf("draft question has empty text")
	}
	if !models.ValidQuestionType(d.Type) {
		return fmt.Errorf("draft question has unknown type %q", d.Type)
	}
	if !models.ValidDifficulty(d.Difficulty) {
		return fmt.Errorf("draft question has unknown difficulty %q", d.Difficulty)
	}
	if !models.ValidBloomLevel(d.BloomLevel) {
		return fmt.Errorf("draft question has unknown bloom level %q", d.BloomLevel)
	}
	if d.AnswerKey == nil {
		return fmt.Errorf("draft question has no answer key")
	}
	switch d.Type {
	case models.QuestionMCQSingle:
		key, ok := d.AnswerKey.(models.SingleChoiceKey)
		if !ok || key.Answer == "" {
			return fmt.Errorf("draft answer key does not match type %s", d.Type)
		}
	case models.QuestionMCQMultiple:
		key, ok := d.AnswerKey.(models.MultiChoiceKey)
		if !ok || len(key.Answers) == 0 {
			return fmt.Errorf("draft answer key does not match type %s", d.Type)
		}
	case models.QuestionNumeric:
		key, ok := d.AnswerKey.(models.NumericKey)
		if !ok || key.Tolerance < 0 {
			return fmt.Errorf("draft answer key does not match type %s", d.Type)
		}
	}
	return nil
}
