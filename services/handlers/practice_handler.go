package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/zevi-app/zevi_api/dto"
	"github.com/zevi-app/zevi_api/shared"
)

type PracticeHandler struct {
	practiceSvc  PracticeServiceInterface
	migrationSvc MigrationServiceInterface
}

func NewPracticeHandler(practiceSvc PracticeServiceInterface, migrationSvc MigrationServiceInterface) *PracticeHandler {
	return &PracticeHandler{
		practiceSvc:  practiceSvc,
		migrationSvc: migrationSvc,
	}
}

func requestIdentity(c *fiber.Ctx) (shared.Identity, error) {
	identity, ok := c.Locals(shared.IdentityKey).(shared.Identity)
	if !ok {
		return shared.Identity{}, shared.NewUnauthorizedError(nil, "Request identity not resolved")
	}
	return identity, nil
}

// @Summary Create practice session
// @Description Start a new practice session for a question
// @Tags practice
// @Accept json
// @Produce json
// @Param request body dto.CreateSessionRequest true "Session parameters"
// @Success 201 {object} shared.Response{data=dto.CreateSessionResponse}
// @Router /api/v1/practice/sessions [post]
func (h *PracticeHandler) CreateSession(c *fiber.Ctx) error {
	identity, err := requestIdentity(c)
	if err != nil {
		return err
	}

	var req dto.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	resp, err := h.practiceSvc.CreatePracticeSession(c.UserContext(), identity, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Session created", resp)
}

// @Summary Get practice session
// @Description Read a single practice session by id
// @Tags practice
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.SessionResponse}
// @Router /api/v1/practice/sessions/{sessionId} [get]
func (h *PracticeHandler) GetSession(c *fiber.Ctx) error {
	identity, err := requestIdentity(c)
	if err != nil {
		return err
	}

	resp, err := h.practiceSvc.GetSession(c.UserContext(), identity, c.Params("sessionId"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Submit answer
// @Description Submit the final answer for a session, marking it completed
// @Tags practice
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param request body dto.SubmitAnswerRequest true "Final answer"
// @Success 200 {object} shared.Response{data=dto.SessionResponse}
// @Router /api/v1/practice/sessions/{sessionId}/submit [post]
func (h *PracticeHandler) SubmitAnswer(c *fiber.Ctx) error {
	identity, err := requestIdentity(c)
	if err != nil {
		return err
	}

	var req dto.SubmitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	resp, err := h.practiceSvc.SubmitAnswer(c.UserContext(), identity, c.Params("sessionId"), req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary List user sessions
// @Description List the user's most recent practice sessions
// @Tags practice
// @Produce json
// @Param limit query int false "Max sessions to return (default 20)"
// @Success 200 {object} shared.Response{data=dto.SessionListResponse}
// @Router /api/v1/practice/sessions [get]
func (h *PracticeHandler) GetUserSessions(c *fiber.Ctx) error {
	identity, err := requestIdentity(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	resp, err := h.practiceSvc.GetUserSessions(c.UserContext(), identity, limit)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary List sessions for a question
// @Description List the user's practice sessions for one question
// @Tags practice
// @Produce json
// @Param questionId path string true "Question ID"
// @Success 200 {object} shared.Response{data=dto.SessionListResponse}
// @Router /api/v1/practice/questions/{questionId}/sessions [get]
func (h *PracticeHandler) GetQuestionSessions(c *fiber.Ctx) error {
	identity, err := requestIdentity(c)
	if err != nil {
		return err
	}

	resp, err := h.practiceSvc.GetQuestionSessions(c.UserContext(), identity, c.Params("questionId"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Save draft
// @Description Upsert the in-progress answer for a question
// @Tags practice
// @Accept json
// @Produce json
// @Param request body dto.SaveDraftRequest true "Draft content"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/practice/drafts [put]
func (h *PracticeHandler) SaveDraft(c *fiber.Ctx) error {
	identity, err := requestIdentity(c)
	if err != nil {
		return err
	}

	var req dto.SaveDraftRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := h.practiceSvc.SaveDraft(c.UserContext(), identity, req); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Draft saved", nil)
}

// @Summary Get draft
// @Description Read the draft for a question; draft_text is null when none exists
// @Tags practice
// @Produce json
// @Param questionId path string true "Question ID"
// @Success 200 {object} shared.Response{data=dto.DraftResponse}
// @Router /api/v1/practice/drafts/{questionId} [get]
func (h *PracticeHandler) GetDraft(c *fiber.Ctx) error {
	identity, err := requestIdentity(c)
	if err != nil {
		return err
	}

	resp, err := h.practiceSvc.GetDraft(c.UserContext(), identity, c.Params("questionId"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Delete draft
// @Description Remove the draft for a question; deleting an absent draft succeeds
// @Tags practice
// @Produce json
// @Param questionId path string true "Question ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/practice/drafts/{questionId} [delete]
func (h *PracticeHandler) DeleteDraft(c *fiber.Ctx) error {
	identity, err := requestIdentity(c)
	if err != nil {
		return err
	}

	if err := h.practiceSvc.DeleteDraft(c.UserContext(), identity, c.Params("questionId")); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Draft deleted", nil)
}

// @Summary List drafts
// @Description List all of the user's in-progress drafts
// @Tags practice
// @Produce json
// @Success 200 {object} shared.Response{data=dto.DraftListResponse}
// @Router /api/v1/practice/drafts [get]
func (h *PracticeHandler) GetUserDrafts(c *fiber.Ctx) error {
	identity, err := requestIdentity(c)
	if err != nil {
		return err
	}

	resp, err := h.practiceSvc.GetUserDrafts(c.UserContext(), identity)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Migrate guest data
// @Description Import exported guest sessions and drafts into the authenticated account
// @Tags practice
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.MigrateGuestDataRequest true "Exported guest collections"
// @Success 200 {object} shared.Response{data=dto.MigrateGuestDataResponse}
// @Router /api/v1/practice/migrate [post]
func (h *PracticeHandler) MigrateGuestData(c *fiber.Ctx) error {
	userID, ok := c.Locals(shared.UserID).(string)
	if !ok || userID == "" {
		return shared.NewUnauthorizedError(nil, "Unauthorized")
	}

	var req dto.MigrateGuestDataRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	resp, err := h.migrationSvc.MigrateGuestData(c.UserContext(), userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Guest data migrated", resp)
}
