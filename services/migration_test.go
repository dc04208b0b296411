package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/zevi-app/zevi_api/dto"
	"github.com/zevi-app/zevi_api/model"
	"github.com/zevi-app/zevi_api/shared"
)

// fakeMigrationTarget implements MigrationTarget in memory with the same
// idempotence contract as the Postgres store.
type fakeMigrationTarget struct {
	sessions map[string]model.PracticeSession
	drafts   map[string]model.Draft
}

func newFakeMigrationTarget() *fakeMigrationTarget {
	return &fakeMigrationTarget{
		sessions: map[string]model.PracticeSession{},
		drafts:   map[string]model.Draft{},
	}
}

func (f *fakeMigrationTarget) InsertSessionIfAbsent(_ context.Context, session *model.PracticeSession) (bool, error) {
	if _, exists := f.sessions[session.ID]; exists {
		return false, nil
	}
	f.sessions[session.ID] = *session
	return true, nil
}

func (f *fakeMigrationTarget) UpsertDraftIfNewer(_ context.Context, draft *model.Draft) error {
	key := draft.UserID + "|" + draft.QuestionID
	if existing, exists := f.drafts[key]; exists && !draft.UpdatedAt.After(existing.UpdatedAt) {
		return nil
	}
	f.drafts[key] = *draft
	return nil
}

const testGuestID = "11111111-2222-4333-8444-555555555555"

func guestSession(id, questionID string) model.PracticeSession {
	return model.PracticeSession{
		ID:          id,
		UserID:      testGuestID,
		QuestionID:  questionID,
		SessionType: shared.SessionTypeText,
		Completed:   true,
	}
}

func TestMigrateGuestDataRerunCannotDuplicate(t *testing.T) {
	target := newFakeMigrationTarget()
	svc := &MigrationService{target: target}

	req := dto.MigrateGuestDataRequest{
		GuestID: testGuestID,
		Sessions: []model.PracticeSession{
			guestSession("s1", "q1"),
			guestSession("s2", "q2"),
		},
		Drafts: []model.Draft{
			{UserID: testGuestID, QuestionID: "q3", DraftText: "wip", UpdatedAt: time.Now()},
		},
	}

	first, err := svc.MigrateGuestData(context.Background(), "account-1", req)
	if err != nil {
		t.Fatalf("first migration: %v", err)
	}
	if first.SessionsMigrated != 2 || first.SessionsSkipped != 0 {
		t.Errorf("first run sessions = %d migrated / %d skipped, want 2/0", first.SessionsMigrated, first.SessionsSkipped)
	}
	if first.DraftsMigrated != 1 {
		t.Errorf("first run drafts migrated = %d, want 1", first.DraftsMigrated)
	}

	// The client reposts the whole payload after a perceived failure.
	second, err := svc.MigrateGuestData(context.Background(), "account-1", req)
	if err != nil {
		t.Fatalf("second migration: %v", err)
	}
	if second.SessionsMigrated != 0 || second.SessionsSkipped != 2 {
		t.Errorf("rerun sessions = %d migrated / %d skipped, want 0/2", second.SessionsMigrated, second.SessionsSkipped)
	}

	if len(target.sessions) != 2 {
		t.Errorf("target holds %d sessions after rerun, want 2", len(target.sessions))
	}
	if len(target.drafts) != 1 {
		t.Errorf("target holds %d drafts after rerun, want 1", len(target.drafts))
	}
}

func TestMigrateGuestDataRekeysRecordsToAccount(t *testing.T) {
	target := newFakeMigrationTarget()
	svc := &MigrationService{target: target}

	_, err := svc.MigrateGuestData(context.Background(), "account-1", dto.MigrateGuestDataRequest{
		GuestID:  testGuestID,
		Sessions: []model.PracticeSession{guestSession("s1", "q1")},
		Drafts:   []model.Draft{{UserID: testGuestID, QuestionID: "q1", DraftText: "wip", UpdatedAt: time.Now()}},
	})
	if err != nil {
		t.Fatalf("MigrateGuestData: %v", err)
	}

	session, exists := target.sessions["s1"]
	if !exists {
		t.Fatal("session id changed during migration; guest-assigned ids must stay canonical")
	}
	if session.UserID != "account-1" {
		t.Errorf("session owner = %q, want account-1", session.UserID)
	}
	if _, exists := target.drafts["account-1|q1"]; !exists {
		t.Error("draft not re-keyed to the account")
	}
}

func TestMigrateGuestDataSkipsForeignAndMalformedRecords(t *testing.T) {
	target := newFakeMigrationTarget()
	svc := &MigrationService{target: target}

	foreign := guestSession("s-foreign", "q1")
	foreign.UserID = "99999999-8888-4777-a666-555555555555"

	noID := guestSession("", "q1")

	badType := guestSession("s-bad-type", "q1")
	badType.SessionType = "video"

	resp, err := svc.MigrateGuestData(context.Background(), "account-1", dto.MigrateGuestDataRequest{
		GuestID: testGuestID,
		Sessions: []model.PracticeSession{
			foreign,
			noID,
			badType,
			guestSession("s-ok", "q1"),
		},
		Drafts: []model.Draft{
			{UserID: "someone-else", QuestionID: "q1", DraftText: "x", UpdatedAt: time.Now()},
			{UserID: testGuestID, QuestionID: "", DraftText: "x", UpdatedAt: time.Now()},
			{UserID: testGuestID, QuestionID: "q2", DraftText: "kept", UpdatedAt: time.Now()},
		},
	})
	if err != nil {
		t.Fatalf("MigrateGuestData: %v", err)
	}

	if resp.SessionsMigrated != 1 || resp.SessionsSkipped != 3 {
		t.Errorf("sessions = %d migrated / %d skipped, want 1/3", resp.SessionsMigrated, resp.SessionsSkipped)
	}
	if resp.DraftsMigrated != 1 || resp.DraftsSkipped != 2 {
		t.Errorf("drafts = %d migrated / %d skipped, want 1/2", resp.DraftsMigrated, resp.DraftsSkipped)
	}
	if len(target.sessions) != 1 || len(target.drafts) != 1 {
		t.Errorf("target holds %d sessions / %d drafts, want 1/1", len(target.sessions), len(target.drafts))
	}
}

func TestMigrateGuestDataDraftNewestWins(t *testing.T) {
	target := newFakeMigrationTarget()
	svc := &MigrationService{target: target}

	now := time.Now()
	target.drafts["account-1|q1"] = model.Draft{
		UserID: "account-1", QuestionID: "q1", DraftText: "written on the account", UpdatedAt: now,
	}

	// The device copy is older: migration must not clobber it.
	_, err := svc.MigrateGuestData(context.Background(), "account-1", dto.MigrateGuestDataRequest{
		GuestID: testGuestID,
		Drafts: []model.Draft{
			{UserID: testGuestID, QuestionID: "q1", DraftText: "stale guest copy", UpdatedAt: now.Add(-time.Hour)},
			{UserID: testGuestID, QuestionID: "q2", DraftText: "fresh guest copy", UpdatedAt: now.Add(time.Hour)},
		},
	})
	if err != nil {
		t.Fatalf("MigrateGuestData: %v", err)
	}

	if got := target.drafts["account-1|q1"].DraftText; got != "written on the account" {
		t.Errorf("older guest draft overwrote newer account draft: %q", got)
	}
	if got := target.drafts["account-1|q2"].DraftText; got != "fresh guest copy" {
		t.Errorf("fresh guest draft missing: %q", got)
	}
}

func TestMigrateGuestDataRejectsInvalidPayload(t *testing.T) {
	svc := &MigrationService{target: newFakeMigrationTarget()}

	_, err := svc.MigrateGuestData(context.Background(), "account-1", dto.MigrateGuestDataRequest{
		GuestID: "not-a-uuid",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != http.StatusBadRequest {
		t.Errorf("error = %v, want 400-class", err)
	}
}
