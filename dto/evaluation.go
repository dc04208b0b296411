package dto

import "encoding/json"

type EvaluationRequest struct {
	Question     string          `json:"question" validate:"required,min=1,max=5000"`
	UserAnswer   string          `json:"userAnswer" validate:"required,min=1,max=10000"`
	ExpertAnswer string          `json:"expertAnswer,omitempty" validate:"omitempty,max=5000"`
	Rubric       json.RawMessage `json:"rubric,omitempty"`
}

func (e EvaluationRequest) Validate() error {
	return GetValidator().Struct(e)
}

// EvaluationFeedback is the strict JSON contract expected from the LLM reply.
type EvaluationFeedback struct {
	Score               float64  `json:"score"`
	Strengths           []string `json:"strengths"`
	Improvements        []string `json:"improvements"`
	ExpertHighlights    []string `json:"expertHighlights"`
	RecommendedPractice string   `json:"recommendedPractice"`
}
