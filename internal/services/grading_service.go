package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/EduPulse-2025/assessment-platform/internal/models"
)

type gradingService struct {
	logger *slog.Logger
}

func NewGradingService(logger *slog.Logger) GradingService {
	return &gradingService{logger: logger}
}

// Grade evaluates a raw submission against the question's answer key.
//
// Numeric submissions that fail to parse grade incorrect: garbled input is a
// wrong answer, not a server error. Unknown question types and undecodable
// answer keys are errors because they indicate corrupt data, not student
// behavior.
func (s *gradingService) Grade(question *models.Question, submitted string) (bool, error) {
	key, err := models.DecodeAnswerKey(question.Type, question.AnswerKey)
	if err != nil {
		return false, fmt.Errorf("failed to decode answer key for question %d: %w", question.ID, err)
	}

	switch k := key.(type) {
	case models.SingleChoiceKey:
		return gradeSingleChoice(k, submitted), nil
	case models.MultiChoiceKey:
		return gradeMultiChoice(k, submitted), nil
	case models.NumericKey:
		return gradeNumeric(k, submitted), nil
	default:
		return false, fmt.Errorf("unknown answer key type for question %d", question.ID)
	}
}

func gradeSingleChoice(key models.SingleChoiceKey, submitted string) bool {
	return strings.TrimSpace(submitted) == key.Answer
}

// gradeMultiChoice compares the submitted selection set against the key with
// no partial credit. The submission may arrive as a JSON array or as a
// comma-separated string; both normalize to the same set.
func gradeMultiChoice(key models.MultiChoiceKey, submitted string) bool {
	selected := parseSelection(submitted)
	if len(selected) != len(key.Answers) {
		return false
	}

	want := make(map[string]struct{}, len(key.Answers))
	for _, a := range key.Answers {
		want[a] = struct{}{}
	}
	for label := range selected {
		if _, ok := want[label]; !ok {
			return false
		}
	}
	return true
}

func gradeNumeric(key models.NumericKey, submitted string) bool {
	value, err := strconv.ParseFloat(strings.TrimSpace(submitted), 64)
	if err != nil {
		return false
	}
	diff := value - key.Value
	if diff < 0 {
		diff = -diff
	}
	// Tolerance band is inclusive on both edges
	return diff <= key.Tolerance
}

func parseSelection(submitted string) map[string]struct{} {
	selected := make(map[string]struct{})

	var labels []string
	if err := json.Unmarshal([]byte(submitted), &labels); err == nil {
		for _, label := range labels {
			if label = strings.TrimSpace(label); label != "" {
				selected[label] = struct{}{}
			}
		}
		return selected
	}

	for _, label := range strings.Split(submitted, ",") {
		if label = strings.TrimSpace(label); label != "" {
			selected[label] = struct{}{}
		}
	}
	return selected
}
