package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/otero-ediciones/lms-api/internal/service"
)

func TestLessonHandlerListRequiresCourseID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewLessonHandler(service.NewLessonService(nil, nil, nil, nil, nil, nil))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/lessons", nil)

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLessonHandlerCreateRejectsMalformedPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewLessonHandler(service.NewLessonService(nil, nil, nil, nil, nil, nil))

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/lessons", nil)

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
