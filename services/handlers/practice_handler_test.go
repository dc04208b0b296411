package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/zevi-app/zevi_api/dto"
	"github.com/zevi-app/zevi_api/shared"
)

type stubPracticeService struct{ called bool }

func (s *stubPracticeService) CreatePracticeSession(context.Context, shared.Identity, dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	s.called = true
	return &dto.CreateSessionResponse{}, nil
}

func (s *stubPracticeService) SubmitAnswer(context.Context, shared.Identity, string, dto.SubmitAnswerRequest) (*dto.SessionResponse, error) {
	s.called = true
	return &dto.SessionResponse{}, nil
}

func (s *stubPracticeService) GetSession(context.Context, shared.Identity, string) (*dto.SessionResponse, error) {
	s.called = true
	return &dto.SessionResponse{}, nil
}

func (s *stubPracticeService) GetUserSessions(context.Context, shared.Identity, int) (*dto.SessionListResponse, error) {
	s.called = true
	return &dto.SessionListResponse{}, nil
}

func (s *stubPracticeService) GetQuestionSessions(context.Context, shared.Identity, string) (*dto.SessionListResponse, error) {
	s.called = true
	return &dto.SessionListResponse{}, nil
}

func (s *stubPracticeService) SaveDraft(context.Context, shared.Identity, dto.SaveDraftRequest) error {
	s.called = true
	return nil
}

func (s *stubPracticeService) GetDraft(context.Context, shared.Identity, string) (*dto.DraftResponse, error) {
	s.called = true
	return &dto.DraftResponse{}, nil
}

func (s *stubPracticeService) DeleteDraft(context.Context, shared.Identity, string) error {
	s.called = true
	return nil
}

func (s *stubPracticeService) GetUserDrafts(context.Context, shared.Identity) (*dto.DraftListResponse, error) {
	s.called = true
	return &dto.DraftListResponse{}, nil
}

type stubMigrationService struct{ called bool }

func (s *stubMigrationService) MigrateGuestData(context.Context, string, dto.MigrateGuestDataRequest) (*dto.MigrateGuestDataResponse, error) {
	s.called = true
	return &dto.MigrateGuestDataResponse{}, nil
}

type stubAuthService struct{ called bool }

func (s *stubAuthService) Register(context.Context, dto.RegisterRequest) (*dto.RegisterResponse, error) {
	s.called = true
	return &dto.RegisterResponse{}, nil
}

func (s *stubAuthService) Login(context.Context, dto.LoginRequest) (*dto.LoginResponse, error) {
	s.called = true
	return &dto.LoginResponse{}, nil
}

// Malformed request bodies must surface as a 400-class app error from the
// handler itself, never as a raw parser error the central handler would
// report as a 500.
func TestHandlersRejectMalformedBodiesAsBadRequest(t *testing.T) {
	practiceSvc := &stubPracticeService{}
	migrationSvc := &stubMigrationService{}
	authSvc := &stubAuthService{}

	practiceHandler := NewPracticeHandler(practiceSvc, migrationSvc)
	authHandler := NewAuthHandler(authSvc)

	var captured error
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			captured = err
			return c.SendStatus(http.StatusInternalServerError)
		},
	})

	withIdentity := func(c *fiber.Ctx) error {
		c.Locals(shared.IdentityKey, shared.AuthenticatedIdentity("user-1"))
		c.Locals(shared.UserID, "user-1")
		return c.Next()
	}

	app.Post("/sessions", withIdentity, practiceHandler.CreateSession)
	app.Post("/sessions/:sessionId/submit", withIdentity, practiceHandler.SubmitAnswer)
	app.Put("/drafts", withIdentity, practiceHandler.SaveDraft)
	app.Post("/migrate", withIdentity, practiceHandler.MigrateGuestData)
	app.Post("/register", authHandler.Register)
	app.Post("/login", authHandler.Login)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"create session", http.MethodPost, "/sessions"},
		{"submit answer", http.MethodPost, "/sessions/s1/submit"},
		{"save draft", http.MethodPut, "/drafts"},
		{"migrate", http.MethodPost, "/migrate"},
		{"register", http.MethodPost, "/register"},
		{"login", http.MethodPost, "/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captured = nil

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{"question_id":`))
			req.Header.Set("Content-Type", "application/json")

			if _, err := app.Test(req); err != nil {
				t.Fatalf("request: %v", err)
			}

			appErr, ok := shared.GetAppError(captured)
			if !ok {
				t.Fatalf("handler returned %v, want an app error", captured)
			}
			if appErr.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", appErr.StatusCode)
			}
		})
	}

	if practiceSvc.called || migrationSvc.called || authSvc.called {
		t.Error("a malformed body reached a service")
	}
}
