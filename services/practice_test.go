package services

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/zevi-app/zevi_api/dto"
	"github.com/zevi-app/zevi_api/shared"
)

func newGuestPracticeService() *PracticeService {
	return &PracticeService{localSvc: NewLocalStore(NewMemoryKeyValueStore())}
}

func TestCreatePracticeSessionValidatesMode(t *testing.T) {
	svc := newGuestPracticeService()
	identity := shared.GuestIdentity("11111111-2222-4333-8444-555555555555")

	tests := []struct {
		name    string
		req     dto.CreateSessionRequest
		wantErr bool
	}{
		{"text mode", dto.CreateSessionRequest{QuestionID: "q1", Mode: "text"}, false},
		{"voice mode", dto.CreateSessionRequest{QuestionID: "q1", Mode: "voice"}, false},
		{"mcq mode", dto.CreateSessionRequest{QuestionID: "q1", Mode: "mcq"}, false},
		{"unknown mode", dto.CreateSessionRequest{QuestionID: "q1", Mode: "video"}, true},
		{"missing question", dto.CreateSessionRequest{Mode: "text"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePracticeSession(context.Background(), identity, tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubmitAnswerGuestFlow(t *testing.T) {
	ctx := context.Background()
	svc := newGuestPracticeService()
	identity := shared.GuestIdentity("11111111-2222-4333-8444-555555555555")

	created, err := svc.CreatePracticeSession(ctx, identity, dto.CreateSessionRequest{
		QuestionID: "q123", Mode: "text",
	})
	if err != nil {
		t.Fatalf("CreatePracticeSession: %v", err)
	}

	if err := svc.SaveDraft(ctx, identity, dto.SaveDraftRequest{QuestionID: "q123", DraftText: "wip"}); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	resp, err := svc.SubmitAnswer(ctx, identity, created.SessionID, dto.SubmitAnswerRequest{
		UserAnswer:       json.RawMessage(`"Final Answer"`),
		TimeSpentSeconds: 120,
	})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	if !resp.Completed {
		t.Error("session not completed after submit")
	}
	if resp.UserAnswer != "Final Answer" {
		t.Errorf("user answer = %v, want Final Answer", resp.UserAnswer)
	}
	if resp.TimeSpentSeconds != 120 {
		t.Errorf("time spent = %d, want 120", resp.TimeSpentSeconds)
	}

	// Submit clears the draft for that question.
	draft, err := svc.GetDraft(ctx, identity, "q123")
	if err != nil {
		t.Fatalf("GetDraft: %v", err)
	}
	if draft.DraftText != nil {
		t.Errorf("draft survived submit: %q", *draft.DraftText)
	}
}

func TestSubmitAnswerMissingSession(t *testing.T) {
	svc := newGuestPracticeService()
	identity := shared.GuestIdentity("11111111-2222-4333-8444-555555555555")

	_, err := svc.SubmitAnswer(context.Background(), identity, "never-created", dto.SubmitAnswerRequest{
		UserAnswer: json.RawMessage(`"answer"`),
	})
	if err == nil {
		t.Fatal("expected error for unknown session id")
	}
	if !shared.IsNotFound(err) {
		t.Errorf("error = %v, want not-found", err)
	}

	// And no session materialized as a side effect.
	sessions, err := svc.GetUserSessions(context.Background(), identity, 0)
	if err != nil {
		t.Fatalf("GetUserSessions: %v", err)
	}
	if len(sessions.Sessions) != 0 {
		t.Error("failed submit created a session")
	}
}

func TestSubmitAnswerHidesForeignSessions(t *testing.T) {
	ctx := context.Background()
	svc := newGuestPracticeService()
	owner := shared.GuestIdentity("11111111-2222-4333-8444-555555555555")
	other := shared.GuestIdentity("99999999-8888-4777-8666-555555555555")

	created, err := svc.CreatePracticeSession(ctx, owner, dto.CreateSessionRequest{QuestionID: "q1", Mode: "text"})
	if err != nil {
		t.Fatalf("CreatePracticeSession: %v", err)
	}

	_, err = svc.SubmitAnswer(ctx, other, created.SessionID, dto.SubmitAnswerRequest{
		UserAnswer: json.RawMessage(`"hijack"`),
	})
	if !shared.IsNotFound(err) {
		t.Errorf("foreign session read should be not-found, got %v", err)
	}
}

func TestGetUserSessionsDefaultLimit(t *testing.T) {
	ctx := context.Background()
	svc := newGuestPracticeService()
	identity := shared.GuestIdentity("11111111-2222-4333-8444-555555555555")

	for i := 0; i < 25; i++ {
		if _, err := svc.CreatePracticeSession(ctx, identity, dto.CreateSessionRequest{QuestionID: "q1", Mode: "text"}); err != nil {
			t.Fatalf("CreatePracticeSession #%d: %v", i, err)
		}
	}

	resp, err := svc.GetUserSessions(ctx, identity, 0)
	if err != nil {
		t.Fatalf("GetUserSessions: %v", err)
	}
	if len(resp.Sessions) != defaultSessionListLimit {
		t.Errorf("sessions = %d, want default limit %d", len(resp.Sessions), defaultSessionListLimit)
	}
}

func TestSerializeAnswer(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain text", `"Final Answer"`, "Final Answer", false},
		{"outline", `{"Framework":["point one","point two"]}`, `{"Framework":["point one","point two"]}`, false},
		{"number", `42`, "", true},
		{"empty", ``, "", true},
		{"nested garbage", `{"a":{"b":1}}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := serializeAnswer(json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if err == nil && *got != tt.want {
				t.Errorf("serialized = %q, want %q", *got, tt.want)
			}
		})
	}
}

func TestDeserializeAnswerRoundTripsOutline(t *testing.T) {
	stored := `{"Framework":["point one","point two"]}`
	got := deserializeAnswer(&stored)

	want := map[string][]string{"Framework": {"point one", "point two"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("deserialized = %#v, want %#v", got, want)
	}

	plain := "just text"
	if got := deserializeAnswer(&plain); got != "just text" {
		t.Errorf("plain text round trip = %v", got)
	}

	if got := deserializeAnswer(nil); got != nil {
		t.Errorf("nil answer = %v, want nil", got)
	}
}

func TestMCQAnswersMergeAcrossSubmits(t *testing.T) {
	ctx := context.Background()
	svc := newGuestPracticeService()
	identity := shared.GuestIdentity("11111111-2222-4333-8444-555555555555")

	created, err := svc.CreatePracticeSession(ctx, identity, dto.CreateSessionRequest{QuestionID: "q1", Mode: "mcq"})
	if err != nil {
		t.Fatalf("CreatePracticeSession: %v", err)
	}

	_, err = svc.SubmitAnswer(ctx, identity, created.SessionID, dto.SubmitAnswerRequest{
		UserAnswer: json.RawMessage(`"a"`),
		MCQAnswers: map[string]interface{}{"1": "a", "2": "b"},
	})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	resp, err := svc.SubmitAnswer(ctx, identity, created.SessionID, dto.SubmitAnswerRequest{
		UserAnswer: json.RawMessage(`"a"`),
		MCQAnswers: map[string]interface{}{"2": "c", "3": "d"},
	})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	var merged map[string]string
	if err := json.Unmarshal(resp.MCQAnswers, &merged); err != nil {
		t.Fatalf("unmarshal mcq answers: %v", err)
	}
	want := map[string]string{"1": "a", "2": "c", "3": "d"}
	if !reflect.DeepEqual(merged, want) {
		t.Errorf("mcq answers = %v, want %v", merged, want)
	}
}
