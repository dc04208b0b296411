package model

import (
	"encoding/json"
	"time"
)

// PracticeSession is one attempt at answering a question. A session is
// append-only except for the submit transition: completed latches to true
// exactly once and the answer fields are written alongside it.
type PracticeSession struct {
	ID               string          `json:"id" gorm:"primaryKey"`
	UserID           string          `json:"user_id" gorm:"not null;index"`
	QuestionID       string          `json:"question_id" gorm:"not null;index"`
	SessionType      string          `json:"session_type" gorm:"not null"`
	Completed        bool            `json:"completed" gorm:"not null"`
	TimeSpentSeconds int             `json:"time_spent_seconds" gorm:"not null"`
	UserAnswer       *string         `json:"user_answer,omitempty"`
	MCQAnswers       json.RawMessage `json:"mcq_answers,omitempty" gorm:"type:jsonb"`
	AIFeedback       json.RawMessage `json:"ai_feedback,omitempty" gorm:"type:jsonb"`
	IsCorrect        *bool           `json:"is_correct,omitempty"`
	CreatedAt        time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt        time.Time       `json:"updated_at" gorm:"not null"`
}

// Draft is the in-progress answer for one (user, question) pair. At most one
// live draft exists per pair; saves upsert in place.
type Draft struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"user_id" gorm:"not null;uniqueIndex:idx_drafts_user_question"`
	QuestionID string    `json:"question_id" gorm:"not null;uniqueIndex:idx_drafts_user_question"`
	DraftText  string    `json:"draft_text" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"not null"`
}

// SessionPatch is a field-level merge patch for a practice session. Nil fields
// leave the stored value untouched; MCQAnswers merges key-wise rather than
// replacing the stored object.
type SessionPatch struct {
	UserAnswer       *string
	TimeSpentSeconds *int
	Completed        *bool
	MCQAnswers       map[string]interface{}
	AIFeedback       json.RawMessage
	IsCorrect        *bool
}

// Apply merges the patch into the session and refreshes UpdatedAt. The merge is
// safe to repeat: re-applying the same patch leaves the session unchanged apart
// from the timestamp.
func (p SessionPatch) Apply(session *PracticeSession) error {
	if p.UserAnswer != nil {
		session.UserAnswer = p.UserAnswer
	}
	if p.TimeSpentSeconds != nil {
		session.TimeSpentSeconds = *p.TimeSpentSeconds
	}
	if p.Completed != nil && *p.Completed {
		session.Completed = true
	}
	if len(p.MCQAnswers) > 0 {
		merged, err := MergeMCQAnswers(session.MCQAnswers, p.MCQAnswers)
		if err != nil {
			return err
		}
		session.MCQAnswers = merged
	}
	if len(p.AIFeedback) > 0 {
		session.AIFeedback = p.AIFeedback
	}
	if p.IsCorrect != nil {
		session.IsCorrect = p.IsCorrect
	}
	session.UpdatedAt = time.Now()
	return nil
}

// MergeMCQAnswers overlays updates onto an existing answer object. Keys present
// in updates override; keys absent from updates keep their stored values.
func MergeMCQAnswers(existing json.RawMessage, updates map[string]interface{}) (json.RawMessage, error) {
	merged := map[string]interface{}{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &merged); err != nil {
			return nil, err
		}
	}
	for k, v := range updates {
		merged[k] = v
	}
	return json.Marshal(merged)
}
