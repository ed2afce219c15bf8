package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/otero-ediciones/lms-api/internal/service"
	"github.com/otero-ediciones/lms-api/pkg/response"
)

// ExportHandler streams rendered course documents.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Roster godoc
// @Summary Course roster CSV
// @Tags Exports
// @Produce text/csv
// @Param id path string true "Course ID"
// @Success 200 {file} file
// @Router /exports/courses/{id}/roster.csv [get]
func (h *ExportHandler) Roster(c *gin.Context) {
	file, err := h.service.CourseRoster(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, file)
}

// Schedule godoc
// @Summary Course schedule PDF
// @Tags Exports
// @Produce application/pdf
// @Param id path string true "Course ID"
// @Success 200 {file} file
// @Router /exports/courses/{id}/schedule.pdf [get]
func (h *ExportHandler) Schedule(c *gin.Context) {
	file, err := h.service.CourseSchedule(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, file)
}

func writeExport(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(200, file.ContentType, file.Payload)
}
