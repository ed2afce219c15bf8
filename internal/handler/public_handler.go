package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/otero-ediciones/lms-api/internal/middleware"
	"github.com/otero-ediciones/lms-api/internal/service"
	"github.com/otero-ediciones/lms-api/pkg/response"
)

// PublicHandler serves unauthenticated endpoints.
type PublicHandler struct {
	users   *service.UserService
	metrics *service.MetricsService
}

// NewPublicHandler constructs a public handler.
func NewPublicHandler(users *service.UserService, metrics *service.MetricsService) *PublicHandler {
	return &PublicHandler{users: users, metrics: metrics}
}

// Teachers godoc
// @Summary Public teacher listing
// @Description Lists active teachers with their public profile fields. No authentication required.
// @Tags Public
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /public/teachers [get]
func (h *PublicHandler) Teachers(c *gin.Context) {
	teachers, hit, err := h.users.PublicTeachers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	if h.metrics != nil {
		h.metrics.RecordCacheOperation(hit)
	}
	response.JSON(c, http.StatusOK, teachers, nil, middleware.ExtractMeta(c))
}
