package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/EduPulse-2025/assessment-platform/internal/models"
)

// HTTPGenerator calls an external question generation API. Any transport,
// decoding, or validation failure is returned as an error so the caller can
// fall back locally.
type HTTPGenerator struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPGenerator(baseURL, apiKey string, timeoutSec int) *HTTPGenerator {
	if timeoutSec <= 0 {
		timeoutSec = 30
	}
	return &HTTPGenerator{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
	}
}

type generateRequest struct {
	Topic        string `json:"topic"`
	Description  string `json:"description,omitempty"`
	BloomLevel   string `json:"bloom_level"`
	NumQuestions int    `json:"num_questions"`
}

type generatedQuestion struct {
	QuestionText  string            `json:"question_text"`
	Type          string            `json:"type"`
	Difficulty    string            `json:"difficulty"`
	BloomLevel    string            `json:"bloom_level"`
	CorrectAnswer json.RawMessage   `json:"correct_answer"`
	Options       map[string]string `json:"options"`
}

type generateResponse struct {
	Questions []generatedQuestion `json:"questions"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, topic, description string, bloomLevel models.BloomLevel, count int) ([]QuestionDraft, error) {
	body, err := json.Marshal(generateRequest{
		Topic:        topic,
		Description:  description,
		BloomLevel:   string(bloomLevel),
		NumQuestions: count,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Bounded read keeps a misbehaving API from bloating error logs
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("generation API returned status %d: %s", resp.StatusCode, snippet)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}

	if len(parsed.Questions) != count {
		return nil, fmt.Errorf("generation API returned %d questions, expected %d", len(parsed.Questions), count)
	}

	drafts := make([]QuestionDraft, 0, count)
	for i, q := range parsed.Questions {
		draft, err := toDraft(q)
		if err != nil {
			return nil, fmt.Errorf("generated question %d invalid: %w", i+1, err)
		}
		drafts = append(drafts, draft)
	}

	return drafts, nil
}

func (g *HTTPGenerator) Name() string {
	return "external"
}

func toDraft(q generatedQuestion) (QuestionDraft, error) {
	draft := QuestionDraft{
		Text:       q.QuestionText,
		Type:       models.QuestionType(q.Type),
		Difficulty: models.DifficultyLevel(q.Difficulty),
		BloomLevel: models.BloomLevel(q.BloomLevel),
		Options:    q.Options,
	}

	if models.ValidQuestionType(draft.Type) && len(q.CorrectAnswer) > 0 {
		key, err := models.DecodeAnswerKey(draft.Type, []byte(q.CorrectAnswer))
		if err != nil {
			return QuestionDraft{}, err
		}
		draft.AnswerKey = key
	}

	if err := validateDraft(&draft); err != nil {
		return QuestionDraft{}, err
	}

	return draft, nil
}
