package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/zevi-app/zevi_api/dto"
	"github.com/zevi-app/zevi_api/shared"
)

type QuestionHandler struct {
	questionSvc QuestionServiceInterface
}

func NewQuestionHandler(questionSvc QuestionServiceInterface) *QuestionHandler {
	return &QuestionHandler{
		questionSvc: questionSvc,
	}
}

// @Summary List questions
// @Description List active catalog questions, optionally filtered
// @Tags questions
// @Produce json
// @Param category query string false "Category filter"
// @Param difficulty query string false "Difficulty filter"
// @Param limit query int false "Max questions to return"
// @Success 200 {object} shared.Response{data=[]dto.QuestionSummary}
// @Router /api/v1/questions [get]
func (h *QuestionHandler) GetQuestions(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))

	questions, err := h.questionSvc.GetQuestions(c.UserContext(), c.Query("category"), c.Query("difficulty"), limit)
	if err != nil {
		return err
	}

	summaries := make([]dto.QuestionSummary, 0, len(questions))
	for i := range questions {
		summaries = append(summaries, *dto.NewQuestionSummary(&questions[i]))
	}

	return shared.ResponseOK(c, summaries)
}

// @Summary Get question
// @Description Read one catalog question with its rubric and options
// @Tags questions
// @Produce json
// @Param questionId path string true "Question ID"
// @Success 200 {object} shared.Response{data=model.Question}
// @Router /api/v1/questions/{questionId} [get]
func (h *QuestionHandler) GetQuestion(c *fiber.Ctx) error {
	questionID := c.Params("questionId")

	question, err := h.questionSvc.GetQuestion(c.UserContext(), questionID)
	if err != nil {
		return err
	}
	if question == nil {
		return shared.NewNotFoundError(fmt.Errorf("question %s does not exist", questionID), "Question not found")
	}

	return shared.ResponseOK(c, question)
}
