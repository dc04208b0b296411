package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/zevi-app/zevi_api/dto"
	"github.com/zevi-app/zevi_api/shared"
)

// EvaluationHandler fronts the two LLM proxy endpoints. Unlike the rest of
// the API these return the raw contract bodies the mobile client already
// parses, not the standard envelope.
type EvaluationHandler struct {
	evaluationSvc    EvaluationServiceInterface
	transcriptionSvc TranscriptionServiceInterface
}

func NewEvaluationHandler(evaluationSvc EvaluationServiceInterface, transcriptionSvc TranscriptionServiceInterface) *EvaluationHandler {
	return &EvaluationHandler{
		evaluationSvc:    evaluationSvc,
		transcriptionSvc: transcriptionSvc,
	}
}

// @Summary Evaluate answer
// @Description Score a practice answer against the question's rubric via LLM
// @Tags evaluation
// @Accept json
// @Produce json
// @Param request body dto.EvaluationRequest true "Question, answer and optional rubric"
// @Success 200 {object} dto.EvaluationFeedback
// @Failure 400 {object} shared.ErrorResponse
// @Failure 429 {object} shared.ErrorResponse
// @Failure 504 {object} shared.ErrorResponse
// @Router /api/v1/evaluate [post]
func (h *EvaluationHandler) EvaluateAnswer(c *fiber.Ctx) error {
	var req dto.EvaluationRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	feedback, err := h.evaluationSvc.EvaluateAnswer(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.JSON(feedback)
}

// @Summary Transcribe audio
// @Description Convert a base64-encoded practice recording to text
// @Tags evaluation
// @Accept json
// @Produce json
// @Param apikey header string true "Client API key"
// @Param request body dto.TranscriptionRequest true "Base64 audio payload"
// @Success 200 {object} dto.TranscriptionResponse
// @Failure 400 {object} shared.ErrorResponse
// @Failure 401 {object} shared.ErrorResponse
// @Failure 504 {object} shared.ErrorResponse
// @Router /api/v1/transcribe [post]
func (h *EvaluationHandler) TranscribeAudio(c *fiber.Ctx) error {
	if c.Get("apikey") == "" {
		return shared.NewUnauthorizedError(errors.New("missing apikey header"), "Missing API key")
	}

	var req dto.TranscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	identity, err := requestIdentity(c)
	if err != nil {
		return err
	}

	resp, err := h.transcriptionSvc.TranscribeAudio(c.UserContext(), identity, req)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}
