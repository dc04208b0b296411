package model

import (
	"encoding/json"
	"time"
)

type Question struct {
	ID           string          `json:"id" gorm:"primaryKey"`
	QuestionText string          `json:"question_text" gorm:"not null"`
	Category     string          `json:"category" gorm:"not null;index"`
	Difficulty   string          `json:"difficulty" gorm:"not null"`
	Company      string          `json:"company"`
	ExpertAnswer string          `json:"expert_answer"`
	Rubric       json.RawMessage `json:"rubric,omitempty" gorm:"type:jsonb"`
	MCQOptions   json.RawMessage `json:"mcq_options,omitempty" gorm:"type:jsonb"`
	IsActive     bool            `json:"is_active" gorm:"not null"`
	CreatedAt    time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time       `json:"updated_at" gorm:"not null"`
}
