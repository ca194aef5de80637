package services

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/EduPulse-2025/assessment-platform/internal/generation"
	"github.com/EduPulse-2025/assessment-platform/internal/models"
)

// ===== VIEW MAPPING =====

func toQuestionView(q *models.Question) (*QuestionView, error) {
	options, err := q.DecodeOptions()
	if err != nil {
		return nil, err
	}
	return &QuestionView{
		ID:         q.ID,
		Text:       q.Text,
		Type:       q.Type,
		Difficulty: q.Difficulty,
		BloomLevel: q.BloomLevel,
		Options:    options,
	}, nil
}

func toTeacherQuestionView(q *models.Question) (*TeacherQuestionView, error) {
	view, err := toQuestionView(q)
	if err != nil {
		return nil, err
	}
	key, err := models.DecodeAnswerKey(q.Type, q.AnswerKey)
	if err != nil {
		return nil, err
	}
	return &TeacherQuestionView{
		QuestionView: *view,
		AnswerKey:    key,
	}, nil
}

func toAssessmentResponse(assessment *models.Assessment, includeQuestions bool) (*AssessmentResponse, error) {
	response := &AssessmentResponse{
		ID:            assessment.ID,
		Topic:         assessment.Topic,
		Description:   assessment.Description,
		BloomLevel:    assessment.BloomLevel,
		TeacherID:     assessment.TeacherID,
		CreatedAt:     assessment.CreatedAt,
		QuestionCount: assessment.QuestionCount,
		Settings:      assessment.Settings,
	}
	if response.QuestionCount == 0 {
		response.QuestionCount = len(assessment.Questions)
	}

	if includeQuestions {
		views := make([]QuestionView, 0, len(assessment.Questions))
		for i := range assessment.Questions {
			view, err := toQuestionView(&assessment.Questions[i])
			if err != nil {
				return nil, err
			}
			views = append(views, *view)
		}
		response.Questions = views
	}

	return response, nil
}

// ===== DRAFT MAPPING =====

// draftsToQuestions converts generated drafts into persistable question rows.
func draftsToQuestions(assessmentID uint, drafts []generation.QuestionDraft) ([]*models.Question, error) {
	questions := make([]*models.Question, 0, len(drafts))
	for i := range drafts {
		question := &models.Question{AssessmentID: assessmentID}
		if err := applyDraft(question, drafts[i]); err != nil {
			return nil, fmt.Errorf("draft %d: %w", i+1, err)
		}
		questions = append(questions, question)
	}
	return questions, nil
}

// applyDraft overwrites the question's content fields from a draft.
func applyDraft(question *models.Question, draft generation.QuestionDraft) error {
	key, err := models.EncodeAnswerKey(draft.AnswerKey)
	if err != nil {
		return err
	}

	var options datatypes.JSON
	if len(draft.Options) > 0 {
		data, err := json.Marshal(draft.Options)
		if err != nil {
			return fmt.Errorf("failed to encode question options: %w", err)
		}
		options = datatypes.JSON(data)
	}

	question.Text = draft.Text
	question.Type = draft.Type
	question.Difficulty = draft.Difficulty
	question.BloomLevel = draft.BloomLevel
	question.AnswerKey = key
	question.Options = options
	return nil
}

func dereferenceQuestions(questions []*models.Question) []models.Question {
	out := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		out = append(out, *q)
	}
	return out
}
