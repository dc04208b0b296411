package services

import (
	"context"

	"github.com/zevi-app/zevi_api/model"
)

// SessionStore is the persistence contract shared by the guest (on-device)
// and authenticated (Postgres) stores. The practice service picks the variant
// once per call based on the resolved identity; business logic never branches
// on guest flags below this interface.
//
// Reads are total: GetSession and GetDraft return (nil, nil) when no record
// exists. UpdateSession on a missing id is a hard not-found error, never a
// silent create.
type SessionStore interface {
	AppendSession(ctx context.Context, session *model.PracticeSession) (string, error)
	GetSession(ctx context.Context, id string) (*model.PracticeSession, error)
	UpdateSession(ctx context.Context, id string, patch model.SessionPatch) error
	ListSessions(ctx context.Context, userID string, limit int) ([]model.PracticeSession, error)
	ListQuestionSessions(ctx context.Context, userID, questionID string) ([]model.PracticeSession, error)

	UpsertDraft(ctx context.Context, userID, questionID, draftText string) error
	GetDraft(ctx context.Context, userID, questionID string) (*model.Draft, error)
	DeleteDraft(ctx context.Context, userID, questionID string) error
	ListDrafts(ctx context.Context, userID string) ([]model.Draft, error)
}

// MigrationTarget is the write side of guest-to-account migration. Both
// operations are idempotent, which is what makes the at-least-once delivery
// of the migration payload safe: InsertSessionIfAbsent reports whether the
// session was new, UpsertDraftIfNewer keeps whichever copy was updated last.
type MigrationTarget interface {
	InsertSessionIfAbsent(ctx context.Context, session *model.PracticeSession) (bool, error)
	UpsertDraftIfNewer(ctx context.Context, draft *model.Draft) error
}
