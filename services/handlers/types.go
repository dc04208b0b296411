package handlers

import (
	"context"

	"github.com/zevi-app/zevi_api/dto"
	"github.com/zevi-app/zevi_api/model"
	"github.com/zevi-app/zevi_api/shared"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
}

type PracticeServiceInterface interface {
	CreatePracticeSession(ctx context.Context, identity shared.Identity, req dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	SubmitAnswer(ctx context.Context, identity shared.Identity, sessionID string, req dto.SubmitAnswerRequest) (*dto.SessionResponse, error)
	GetSession(ctx context.Context, identity shared.Identity, sessionID string) (*dto.SessionResponse, error)
	GetUserSessions(ctx context.Context, identity shared.Identity, limit int) (*dto.SessionListResponse, error)
	GetQuestionSessions(ctx context.Context, identity shared.Identity, questionID string) (*dto.SessionListResponse, error)
	SaveDraft(ctx context.Context, identity shared.Identity, req dto.SaveDraftRequest) error
	GetDraft(ctx context.Context, identity shared.Identity, questionID string) (*dto.DraftResponse, error)
	DeleteDraft(ctx context.Context, identity shared.Identity, questionID string) error
	GetUserDrafts(ctx context.Context, identity shared.Identity) (*dto.DraftListResponse, error)
}

type MigrationServiceInterface interface {
	MigrateGuestData(ctx context.Context, userID string, req dto.MigrateGuestDataRequest) (*dto.MigrateGuestDataResponse, error)
}

type QuestionServiceInterface interface {
	GetQuestion(ctx context.Context, id string) (*model.Question, error)
	GetQuestions(ctx context.Context, category, difficulty string, limit int) ([]model.Question, error)
}

type EvaluationServiceInterface interface {
	EvaluateAnswer(ctx context.Context, req dto.EvaluationRequest) (*dto.EvaluationFeedback, error)
}

type TranscriptionServiceInterface interface {
	TranscribeAudio(ctx context.Context, identity shared.Identity, req dto.TranscriptionRequest) (*dto.TranscriptionResponse, error)
}
