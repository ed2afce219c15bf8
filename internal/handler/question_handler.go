package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/otero-ediciones/lms-api/internal/service"
	appErrors "github.com/otero-ediciones/lms-api/pkg/errors"
	"github.com/otero-ediciones/lms-api/pkg/response"
)

// QuestionHandler handles test-question endpoints.
type QuestionHandler struct {
	service *service.QuestionService
}

// NewQuestionHandler constructs a question handler.
func NewQuestionHandler(svc *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{service: svc}
}

// List godoc
// @Summary List questions of a subject
// @Description Lists the question bank of one subject. The correct option index is only present for admins.
// @Tags Questions
// @Produce json
// @Param subject_id query string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /test-questions [get]
func (h *QuestionHandler) List(c *gin.Context) {
	subjectID := strings.TrimSpace(c.Query("subject_id"))
	questions, err := h.service.ListBySubject(c.Request.Context(), principalFromContext(c), subjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, questions, nil)
}

// Get godoc
// @Summary Get question by id
// @Tags Questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} response.Envelope
// @Router /test-questions/{id} [get]
func (h *QuestionHandler) Get(c *gin.Context) {
	question, err := h.service.Get(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, question, nil)
}

// Create godoc
// @Summary Create question
// @Tags Questions
// @Accept json
// @Produce json
// @Param payload body service.CreateQuestionRequest true "Question payload"
// @Success 201 {object} response.Envelope
// @Router /test-questions [post]
func (h *QuestionHandler) Create(c *gin.Context) {
	var req service.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	question, err := h.service.Create(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, question)
}

// Update godoc
// @Summary Update question
// @Tags Questions
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Param payload body service.UpdateQuestionRequest true "Question payload"
// @Success 200 {object} response.Envelope
// @Router /test-questions/{id} [put]
func (h *QuestionHandler) Update(c *gin.Context) {
	var req service.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	question, err := h.service.Update(c.Request.Context(), principalFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, question, nil)
}

// Delete godoc
// @Summary Delete question
// @Tags Questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 204
// @Router /test-questions/{id} [delete]
func (h *QuestionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), principalFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
