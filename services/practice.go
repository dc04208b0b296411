package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/zevi-app/zevi_api/dto"
	"github.com/zevi-app/zevi_api/model"
	"github.com/zevi-app/zevi_api/shared"
)

// PracticeService owns the session and draft lifecycle for both identity
// scopes. It picks the backing store once per call from the resolved identity
// and applies the same semantics to both: submit is a one-way completed
// latch, drafts upsert by (user, question), and reads of absent records are
// not errors.
type PracticeService struct {
	appContext.DefaultService

	localSvc    *LocalStoreService
	postgresSvc *PostgresService
}

const PRACTICE_SVC = "practice_svc"

const (
	defaultSessionListLimit = 20

	remoteRetryAttempts  = 3
	remoteRetryBaseDelay = 200 * time.Millisecond
)

func (svc PracticeService) Id() string {
	return PRACTICE_SVC
}

func (svc *PracticeService) Configure(ctx *appContext.Context) error {
	svc.localSvc = ctx.Service(LOCAL_STORE_SVC).(*LocalStoreService)
	svc.postgresSvc = ctx.Service(POSTGRES_SVC).(*PostgresService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *PracticeService) Start() error {
	return nil
}

func (svc *PracticeService) storeFor(identity shared.Identity) SessionStore {
	if identity.Guest {
		return svc.localSvc
	}
	return svc.postgresSvc
}

// withRemoteRetry retries idempotent operations against the remote store on
// transient failures. Guest-scope calls run once; the local store has no
// transient failure mode worth retrying.
func (svc *PracticeService) withRemoteRetry(ctx context.Context, identity shared.Identity, fn func() error) error {
	if identity.Guest {
		return fn()
	}
	return shared.Retry(ctx, remoteRetryAttempts, remoteRetryBaseDelay, fn)
}

func (svc *PracticeService) CreatePracticeSession(ctx context.Context, identity shared.Identity, req dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, shared.NewBadRequestError(err, "Invalid session request")
	}

	if !identity.Guest {
		question, err := svc.postgresSvc.GetQuestion(ctx, req.QuestionID)
		if err != nil {
			return nil, err
		}
		if question == nil {
			return nil, shared.NewNotFoundError(fmt.Errorf("question %s does not exist", req.QuestionID), "Question not found")
		}
	}

	session := &model.PracticeSession{
		UserID:      identity.UserID,
		QuestionID:  req.QuestionID,
		SessionType: req.Mode,
		Completed:   false,
	}

	var sessionID string
	err := svc.withRemoteRetry(ctx, identity, func() error {
		id, err := svc.storeFor(identity).AppendSession(ctx, session)
		if err != nil {
			return err
		}
		sessionID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	RecordSessionCreated(identity.Guest)
	log.WithFields(log.Fields{
		"session_id": sessionID,
		"user_id":    identity.UserID,
		"guest":      identity.Guest,
		"mode":       req.Mode,
	}).Info("Practice session created")

	return &dto.CreateSessionResponse{SessionID: sessionID}, nil
}

// SubmitAnswer applies the one-way completed latch. Re-submitting an already
// completed session re-applies the same terminal state and still reports
// success, so clients can retry blindly after a network drop.
func (svc *PracticeService) SubmitAnswer(ctx context.Context, identity shared.Identity, sessionID string, req dto.SubmitAnswerRequest) (*dto.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, shared.NewBadRequestError(err, "Invalid submission")
	}

	answer, err := serializeAnswer(req.UserAnswer)
	if err != nil {
		return nil, shared.NewBadRequestError(err, "Answer must be text or an outline object")
	}

	store := svc.storeFor(identity)

	session, err := svc.getOwnedSession(ctx, identity, sessionID)
	if err != nil {
		return nil, err
	}

	completed := true
	patch := model.SessionPatch{
		UserAnswer:       answer,
		TimeSpentSeconds: &req.TimeSpentSeconds,
		Completed:        &completed,
		MCQAnswers:       req.MCQAnswers,
		AIFeedback:       req.AIFeedback,
		IsCorrect:        req.IsCorrect,
	}

	err = svc.withRemoteRetry(ctx, identity, func() error {
		return store.UpdateSession(ctx, sessionID, patch)
	})
	if err != nil {
		return nil, err
	}

	// The draft served its purpose; deleting an absent one is a no-op so the
	// whole submit stays safe to repeat.
	if err := store.DeleteDraft(ctx, identity.UserID, session.QuestionID); err != nil {
		log.WithError(err).WithField("session_id", sessionID).Warn("Failed to clear draft after submit")
	}

	updated, err := svc.getOwnedSession(ctx, identity, sessionID)
	if err != nil {
		return nil, err
	}

	resp := svc.toSessionResponse(ctx, identity, updated)
	return &resp, nil
}

func (svc *PracticeService) GetSession(ctx context.Context, identity shared.Identity, sessionID string) (*dto.SessionResponse, error) {
	session, err := svc.getOwnedSession(ctx, identity, sessionID)
	if err != nil {
		return nil, err
	}
	resp := svc.toSessionResponse(ctx, identity, session)
	return &resp, nil
}

// getOwnedSession loads a session and enforces ownership. Sessions belonging
// to someone else read as not found rather than forbidden, so ids cannot be
// probed across accounts.
func (svc *PracticeService) getOwnedSession(ctx context.Context, identity shared.Identity, sessionID string) (*model.PracticeSession, error) {
	var session *model.PracticeSession
	err := svc.withRemoteRetry(ctx, identity, func() error {
		s, err := svc.storeFor(identity).GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != identity.UserID {
		return nil, shared.NewNotFoundError(fmt.Errorf("session %s not found for user", sessionID), "Session not found")
	}
	return session, nil
}

func (svc *PracticeService) GetUserSessions(ctx context.Context, identity shared.Identity, limit int) (*dto.SessionListResponse, error) {
	if limit <= 0 {
		limit = defaultSessionListLimit
	}

	var sessions []model.PracticeSession
	err := svc.withRemoteRetry(ctx, identity, func() error {
		s, err := svc.storeFor(identity).ListSessions(ctx, identity.UserID, limit)
		if err != nil {
			return err
		}
		sessions = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	return svc.toSessionListResponse(ctx, identity, sessions), nil
}

func (svc *PracticeService) GetQuestionSessions(ctx context.Context, identity shared.Identity, questionID string) (*dto.SessionListResponse, error) {
	var sessions []model.PracticeSession
	err := svc.withRemoteRetry(ctx, identity, func() error {
		s, err := svc.storeFor(identity).ListQuestionSessions(ctx, identity.UserID, questionID)
		if err != nil {
			return err
		}
		sessions = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	return svc.toSessionListResponse(ctx, identity, sessions), nil
}

func (svc *PracticeService) SaveDraft(ctx context.Context, identity shared.Identity, req dto.SaveDraftRequest) error {
	if err := req.Validate(); err != nil {
		return shared.NewBadRequestError(err, "Invalid draft")
	}

	return svc.withRemoteRetry(ctx, identity, func() error {
		return svc.storeFor(identity).UpsertDraft(ctx, identity.UserID, req.QuestionID, req.DraftText)
	})
}

// GetDraft is total: no draft means a null draft_text, not a 404, so clients
// can probe freely when a question screen opens.
func (svc *PracticeService) GetDraft(ctx context.Context, identity shared.Identity, questionID string) (*dto.DraftResponse, error) {
	var draft *model.Draft
	err := svc.withRemoteRetry(ctx, identity, func() error {
		d, err := svc.storeFor(identity).GetDraft(ctx, identity.UserID, questionID)
		if err != nil {
			return err
		}
		draft = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.DraftResponse{}
	if draft != nil {
		resp.DraftText = &draft.DraftText
	}
	return resp, nil
}

func (svc *PracticeService) DeleteDraft(ctx context.Context, identity shared.Identity, questionID string) error {
	return svc.withRemoteRetry(ctx, identity, func() error {
		return svc.storeFor(identity).DeleteDraft(ctx, identity.UserID, questionID)
	})
}

func (svc *PracticeService) GetUserDrafts(ctx context.Context, identity shared.Identity) (*dto.DraftListResponse, error) {
	var drafts []model.Draft
	err := svc.withRemoteRetry(ctx, identity, func() error {
		d, err := svc.storeFor(identity).ListDrafts(ctx, identity.UserID)
		if err != nil {
			return err
		}
		drafts = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.DraftListResponse{Drafts: []dto.DraftListItem{}}
	for _, d := range drafts {
		item := dto.DraftListItem{
			QuestionID: d.QuestionID,
			DraftText:  d.DraftText,
			UpdatedAt:  d.UpdatedAt.Format(time.RFC3339),
		}
		if !identity.Guest {
			if q, err := svc.postgresSvc.GetQuestion(ctx, d.QuestionID); err == nil {
				item.Question = dto.NewQuestionSummary(q)
			}
		}
		resp.Drafts = append(resp.Drafts, item)
	}
	return resp, nil
}

func (svc *PracticeService) toSessionListResponse(ctx context.Context, identity shared.Identity, sessions []model.PracticeSession) *dto.SessionListResponse {
	resp := &dto.SessionListResponse{Sessions: []dto.SessionResponse{}}
	for i := range sessions {
		resp.Sessions = append(resp.Sessions, svc.toSessionResponse(ctx, identity, &sessions[i]))
	}
	return resp
}

func (svc *PracticeService) toSessionResponse(ctx context.Context, identity shared.Identity, session *model.PracticeSession) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:               session.ID,
		UserID:           session.UserID,
		QuestionID:       session.QuestionID,
		SessionType:      session.SessionType,
		Completed:        session.Completed,
		TimeSpentSeconds: session.TimeSpentSeconds,
		UserAnswer:       deserializeAnswer(session.UserAnswer),
		MCQAnswers:       session.MCQAnswers,
		AIFeedback:       session.AIFeedback,
		IsCorrect:        session.IsCorrect,
		CreatedAt:        session.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        session.UpdatedAt.Format(time.RFC3339),
	}
	if !identity.Guest {
		if q, err := svc.postgresSvc.GetQuestion(ctx, session.QuestionID); err == nil {
			resp.Question = dto.NewQuestionSummary(q)
		}
	}
	return resp
}

// serializeAnswer flattens the submitted answer for storage. Plain text stays
// as-is; an outline object (section name to bullet list) is stored as its
// canonical JSON text so both scopes persist a single string column.
func serializeAnswer(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty answer")
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return &text, nil
	}

	var outline map[string][]string
	if err := json.Unmarshal(raw, &outline); err != nil {
		return nil, fmt.Errorf("answer is neither text nor an outline: %w", err)
	}
	encoded, err := json.Marshal(outline)
	if err != nil {
		return nil, err
	}
	s := string(encoded)
	return &s, nil
}

// deserializeAnswer restores outline answers to objects for API responses.
// Anything that does not parse back into an outline is returned verbatim.
func deserializeAnswer(stored *string) interface{} {
	if stored == nil {
		return nil
	}
	var outline map[string][]string
	if err := json.Unmarshal([]byte(*stored), &outline); err == nil {
		return outline
	}
	return *stored
}
