package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/otero-ediciones/lms-api/internal/service"
	"github.com/otero-ediciones/lms-api/pkg/response"
)

// DashboardHandler serves the student landing view.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// UpcomingLessons godoc
// @Summary Upcoming lessons
// @Description Returns the student's next lessons (at most three) across all enrolled courses.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /dashboard/upcoming-lessons [get]
func (h *DashboardHandler) UpcomingLessons(c *gin.Context) {
	result, err := h.service.UpcomingLessons(c.Request.Context(), principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
