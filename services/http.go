package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	fiberSwagger "github.com/gofiber/swagger"
	log "github.com/sirupsen/logrus"

	_ "github.com/zevi-app/zevi_api/docs"
	"github.com/zevi-app/zevi_api/services/handlers"
	"github.com/zevi-app/zevi_api/shared"
)

type HttpService struct {
	context.DefaultService

	identitySvc      *IdentityService
	authSvc          *AuthService
	practiceSvc      *PracticeService
	migrationSvc     *MigrationService
	evaluationSvc    *EvaluationService
	transcriptionSvc *TranscriptionService
	rateLimitSvc     *RateLimitService
	monitoringSvc    *MonitoringService
	postgresSvc      *PostgresService

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.identitySvc = svc.Service(IDENTITY_SVC).(*IdentityService)
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.practiceSvc = svc.Service(PRACTICE_SVC).(*PracticeService)
	svc.migrationSvc = svc.Service(MIGRATION_SVC).(*MigrationService)
	svc.evaluationSvc = svc.Service(EVALUATION_SVC).(*EvaluationService)
	svc.transcriptionSvc = svc.Service(TRANSCRIPTION_SVC).(*TranscriptionService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.postgresSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	if monitoringSvc, ok := svc.Service(MONITORING_SVC).(*MonitoringService); ok {
		svc.monitoringSvc = monitoringSvc
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: svc.errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Guest-ID, apikey",
	}))
	if svc.monitoringSvc != nil {
		app.Use(MonitoringMiddleware(svc.monitoringSvc))
	}

	app.Get("/ping", svc.ping)
	app.Get("/swagger/*", fiberSwagger.HandlerDefault)

	authHandler := handlers.NewAuthHandler(svc.authSvc)
	practiceHandler := handlers.NewPracticeHandler(svc.practiceSvc, svc.migrationSvc)
	questionHandler := handlers.NewQuestionHandler(svc.postgresSvc)
	evaluationHandler := handlers.NewEvaluationHandler(svc.evaluationSvc, svc.transcriptionSvc)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	v1.Post("/register", svc.rateLimitSvc.RateLimit("register"), authHandler.Register)
	v1.Post("/login", svc.rateLimitSvc.RateLimit("login"), authHandler.Login)

	// Open to both scopes: guests via X-Guest-ID, accounts via bearer token.
	practice := v1.Group("/practice", svc.identitySvc.RequireIdentity())
	practice.Post("/sessions", practiceHandler.CreateSession)
	practice.Get("/sessions", practiceHandler.GetUserSessions)
	practice.Get("/sessions/:sessionId", practiceHandler.GetSession)
	practice.Post("/sessions/:sessionId/submit", practiceHandler.SubmitAnswer)
	practice.Get("/questions/:questionId/sessions", practiceHandler.GetQuestionSessions)
	practice.Put("/drafts", practiceHandler.SaveDraft)
	practice.Get("/drafts", practiceHandler.GetUserDrafts)
	practice.Get("/drafts/:questionId", practiceHandler.GetDraft)
	practice.Delete("/drafts/:questionId", practiceHandler.DeleteDraft)

	v1.Get("/questions", svc.identitySvc.RequireIdentity(), questionHandler.GetQuestions)
	v1.Get("/questions/:questionId", svc.identitySvc.RequireIdentity(), questionHandler.GetQuestion)

	v1.Post("/evaluate",
		svc.identitySvc.RequireIdentity(),
		svc.rateLimitSvc.RateLimit("evaluate"),
		evaluationHandler.EvaluateAnswer)
	v1.Post("/transcribe",
		svc.identitySvc.RequireIdentity(),
		svc.rateLimitSvc.RateLimit("transcribe"),
		evaluationHandler.TranscribeAudio)

	// Migration requires a real account on the receiving end.
	v1.Post("/practice/migrate", svc.authSvc.RequiredAuth(), practiceHandler.MigrateGuestData)

	svc.server = app

	log.Printf("HTTP server listening on :%d", svc.port)
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")

	return shared.ResponseOK(c, "pong")
}

// errorHandler is the single place raw errors become wire responses. The LLM
// proxy endpoints use the {error, message, requestId, timestamp} envelope
// their clients already parse; everything else uses the standard envelope.
func (svc *HttpService) errorHandler(c *fiber.Ctx, err error) error {
	appErr, ok := shared.GetAppError(err)
	if !ok {
		if fiberErr, isFiber := err.(*fiber.Error); isFiber {
			appErr = &shared.AppError{
				StatusCode: fiberErr.Code,
				Code:       shared.ErrCodeInternal,
				Message:    fiberErr.Message,
				Err:        err,
			}
		} else {
			appErr = shared.NewInternalError(err, "Internal Server Error")
		}
	}

	entry := log.WithFields(log.Fields{
		"path":   c.Path(),
		"method": c.Method(),
		"code":   appErr.Code,
	})
	if appErr.StatusCode >= 500 {
		entry.WithError(err).Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	path := c.Path()
	if strings.HasPrefix(path, "/api/v1/evaluate") || strings.HasPrefix(path, "/api/v1/transcribe") {
		requestID, _ := c.Locals("requestid").(string)
		return c.Status(appErr.StatusCode).JSON(shared.ErrorResponse{
			Error:     appErr.Message,
			Message:   proxyFailureMessage(path),
			RequestID: requestID,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}

	return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
}

func proxyFailureMessage(path string) string {
	if strings.HasPrefix(path, "/api/v1/transcribe") {
		return "Failed to transcribe audio. Please check your input and try again."
	}
	return "Failed to evaluate answer. Please check your input and try again."
}
