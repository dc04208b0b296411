package dto

import (
	"encoding/json"

	"github.com/zevi-app/zevi_api/model"
)

type CreateSessionRequest struct {
	QuestionID string `json:"question_id" validate:"required,min=1,max=100"`
	Mode       string `json:"mode" validate:"required,oneof=text voice mcq"`
}

func (c CreateSessionRequest) Validate() error {
	return GetValidator().Struct(c)
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

type SaveDraftRequest struct {
	QuestionID string `json:"question_id" validate:"required,min=1,max=100"`
	DraftText  string `json:"draft_text" validate:"required,max=10000"`
}

func (s SaveDraftRequest) Validate() error {
	return GetValidator().Struct(s)
}

type DraftResponse struct {
	DraftText *string `json:"draft_text"`
}

type SubmitAnswerRequest struct {
	// UserAnswer is either plain text or a serialized outline (an object of
	// string lists); the service serializes outlines before persisting.
	UserAnswer       json.RawMessage        `json:"user_answer" validate:"required"`
	TimeSpentSeconds int                    `json:"time_spent_seconds" validate:"min=0"`
	MCQAnswers       map[string]interface{} `json:"mcq_answers,omitempty"`
	AIFeedback       json.RawMessage        `json:"ai_feedback,omitempty"`
	IsCorrect        *bool                  `json:"is_correct,omitempty"`
}

func (s SubmitAnswerRequest) Validate() error {
	return GetValidator().Struct(s)
}

// SessionResponse mirrors the stored session with user_answer deserialized
// back into an outline object when it round-trips as one.
type SessionResponse struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	QuestionID       string           `json:"question_id"`
	SessionType      string           `json:"session_type"`
	Completed        bool             `json:"completed"`
	TimeSpentSeconds int              `json:"time_spent_seconds"`
	UserAnswer       interface{}      `json:"user_answer,omitempty"`
	MCQAnswers       json.RawMessage  `json:"mcq_answers,omitempty"`
	AIFeedback       json.RawMessage  `json:"ai_feedback,omitempty"`
	IsCorrect        *bool            `json:"is_correct,omitempty"`
	CreatedAt        string           `json:"created_at"`
	UpdatedAt        string           `json:"updated_at"`
	Question         *QuestionSummary `json:"question,omitempty"`
}

type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

type DraftListItem struct {
	QuestionID string           `json:"question_id"`
	DraftText  string           `json:"draft_text"`
	UpdatedAt  string           `json:"updated_at"`
	Question   *QuestionSummary `json:"question,omitempty"`
}

type DraftListResponse struct {
	Drafts []DraftListItem `json:"drafts"`
}

type QuestionSummary struct {
	ID           string `json:"id"`
	QuestionText string `json:"question_text"`
	Category     string `json:"category"`
	Difficulty   string `json:"difficulty"`
	Company      string `json:"company,omitempty"`
}

func NewQuestionSummary(q *model.Question) *QuestionSummary {
	if q == nil {
		return nil
	}
	return &QuestionSummary{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		Category:     q.Category,
		Difficulty:   q.Difficulty,
		Company:      q.Company,
	}
}
