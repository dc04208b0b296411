package model

import (
	"encoding/json"
	"testing"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func TestSessionPatchApply(t *testing.T) {
	session := &PracticeSession{
		ID:          "s1",
		UserID:      "u1",
		QuestionID:  "q1",
		SessionType: "text",
	}

	patch := SessionPatch{
		UserAnswer:       strPtr("My structured answer"),
		TimeSpentSeconds: intPtr(120),
		Completed:        boolPtr(true),
	}
	if err := patch.Apply(session); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if session.UserAnswer == nil || *session.UserAnswer != "My structured answer" {
		t.Errorf("user answer = %v", session.UserAnswer)
	}
	if session.TimeSpentSeconds != 120 {
		t.Errorf("time spent = %d, want 120", session.TimeSpentSeconds)
	}
	if !session.Completed {
		t.Error("completed not set")
	}
}

func TestSessionPatchNilFieldsLeaveSessionUntouched(t *testing.T) {
	session := &PracticeSession{
		ID:               "s1",
		Completed:        true,
		TimeSpentSeconds: 90,
		UserAnswer:       strPtr("original"),
	}

	if err := (SessionPatch{}).Apply(session); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if !session.Completed || session.TimeSpentSeconds != 90 || *session.UserAnswer != "original" {
		t.Errorf("empty patch mutated session: %+v", session)
	}
}

func TestCompletedLatchCannotBeCleared(t *testing.T) {
	session := &PracticeSession{ID: "s1", Completed: true}

	if err := (SessionPatch{Completed: boolPtr(false)}).Apply(session); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !session.Completed {
		t.Error("completed=false cleared the latch")
	}
}

func TestMergeMCQAnswers(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		updates  map[string]interface{}
		want     map[string]interface{}
	}{
		{
			name:    "merge into empty",
			updates: map[string]interface{}{"1": "a"},
			want:    map[string]interface{}{"1": "a"},
		},
		{
			name:     "new keys accumulate",
			existing: `{"1":"a"}`,
			updates:  map[string]interface{}{"2": "c"},
			want:     map[string]interface{}{"1": "a", "2": "c"},
		},
		{
			name:     "updates override existing keys",
			existing: `{"1":"a","2":"b"}`,
			updates:  map[string]interface{}{"2": "d"},
			want:     map[string]interface{}{"1": "a", "2": "d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, err := MergeMCQAnswers(json.RawMessage(tt.existing), tt.updates)
			if err != nil {
				t.Fatalf("MergeMCQAnswers: %v", err)
			}

			var got map[string]interface{}
			if err := json.Unmarshal(merged, &got); err != nil {
				t.Fatalf("unmarshal merged: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("merged = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("key %q = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestMergeMCQAnswersRejectsCorruptExisting(t *testing.T) {
	if _, err := MergeMCQAnswers(json.RawMessage(`not json`), map[string]interface{}{"1": "a"}); err == nil {
		t.Error("expected error for corrupt stored answers")
	}
}

func TestSessionPatchRepeatableMerge(t *testing.T) {
	session := &PracticeSession{ID: "s1"}
	patch := SessionPatch{
		Completed:  boolPtr(true),
		MCQAnswers: map[string]interface{}{"1": "a"},
	}

	if err := patch.Apply(session); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	first := string(session.MCQAnswers)

	if err := patch.Apply(session); err != nil {
		t.Fatalf("second Apply: %v", err)
	}

	if string(session.MCQAnswers) != first {
		t.Errorf("re-applied patch changed answers: %s vs %s", session.MCQAnswers, first)
	}
	if !session.Completed {
		t.Error("completed lost on re-apply")
	}
}
