package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otero-ediciones/lms-api/internal/middleware"
	"github.com/otero-ediciones/lms-api/internal/models"
	"github.com/otero-ediciones/lms-api/internal/service"
)

type fakeUpcomingRepo struct {
	rows []models.UpcomingLessonRow
	err  error

	lastStudent string
}

func (f *fakeUpcomingRepo) ListUpcomingForStudent(_ context.Context, studentID string, _ time.Time, _ int) ([]models.UpcomingLessonRow, error) {
	f.lastStudent = studentID
	return f.rows, f.err
}

func newDashboardTestContext(t *testing.T, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/upcoming-lessons", nil)
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func TestDashboardHandlerUpcomingLessons(t *testing.T) {
	start := "10:00"
	repo := &fakeUpcomingRepo{rows: []models.UpcomingLessonRow{
		{LessonID: "les-1", CourseName: "Math", Date: time.Now().UTC(), StartTime: &start},
	}}
	handler := NewDashboardHandler(service.NewDashboardService(repo, nil, nil))

	c, rec := newDashboardTestContext(t, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
	handler.UpcomingLessons(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stu-1", repo.lastStudent)

	var envelope struct {
		Data struct {
			UpcomingLessons []map[string]interface{} `json:"upcoming_lessons"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.UpcomingLessons, 1)
	assert.Equal(t, "Math", envelope.Data.UpcomingLessons[0]["course_name"])
	assert.Equal(t, "Today", envelope.Data.UpcomingLessons[0]["date"])
}

func TestDashboardHandlerRejectsNonStudents(t *testing.T) {
	handler := NewDashboardHandler(service.NewDashboardService(&fakeUpcomingRepo{}, nil, nil))

	c, rec := newDashboardTestContext(t, &models.JWTClaims{UserID: "tea-1", Role: models.RoleTeacher})
	handler.UpcomingLessons(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDashboardHandlerRejectsMissingClaims(t *testing.T) {
	handler := NewDashboardHandler(service.NewDashboardService(&fakeUpcomingRepo{}, nil, nil))

	c, rec := newDashboardTestContext(t, nil)
	handler.UpcomingLessons(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
