package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/otero-ediciones/lms-api/internal/dto"
	"github.com/otero-ediciones/lms-api/internal/models"
	"github.com/otero-ediciones/lms-api/internal/policy"
	appErrors "github.com/otero-ediciones/lms-api/pkg/errors"
)

type upcomingLessonRepository interface {
	ListUpcomingForStudent(ctx context.Context, studentID string, from time.Time, limit int) ([]models.UpcomingLessonRow, error)
}

const upcomingLessonLimit = 3

// DashboardService builds the student landing view. The result is
// computed fresh on every call; this read is intentionally uncached so
// a new enrollment or lesson change shows up immediately.
type DashboardService struct {
	lessons upcomingLessonRepository
	policy  *policy.Engine
	logger  *zap.Logger
	now     func() time.Time
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(lessons upcomingLessonRepository, engine *policy.Engine, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = policy.NewEngine(policy.Config{})
	}
	return &DashboardService{lessons: lessons, policy: engine, logger: logger, now: time.Now}
}

// WithClock overrides the time source. Intended for tests.
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	if now != nil {
		s.now = now
	}
	return s
}

// UpcomingLessons returns the principal's next lessons dated today or
// later across all enrolled courses, chronologically, capped at three.
func (s *DashboardService) UpcomingLessons(ctx context.Context, p models.Principal) (*dto.UpcomingLessonsResponse, error) {
	if !s.policy.CanUseStudentDashboard(p) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "dashboard is only available to students")
	}

	today := truncateToDay(s.now().UTC())

	rows, err := s.lessons.ListUpcomingForStudent(ctx, p.ID, today, upcomingLessonLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load upcoming lessons")
	}

	lessons := make([]dto.UpcomingLesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, dto.UpcomingLesson{
			ID:             row.LessonID,
			CourseName:     row.CourseName,
			TeacherName:    teacherDisplayName(row),
			Date:           dateLabel(row.Date, today),
			Time:           startTimeLabel(row.StartTime),
			ConferenceLink: derefString(row.ConferenceLink),
		})
	}

	return &dto.UpcomingLessonsResponse{UpcomingLessons: lessons}, nil
}

// teacherDisplayName resolves the teacher label: full name, then
// username, then the placeholder for courses without a teacher.
func teacherDisplayName(row models.UpcomingLessonRow) string {
	full := strings.TrimSpace(strings.TrimSpace(derefString(row.TeacherFirstName)) + " " + strings.TrimSpace(derefString(row.TeacherLastName)))
	if full != "" {
		return full
	}
	if username := strings.TrimSpace(derefString(row.TeacherUsername)); username != "" {
		return username
	}
	return dto.TeacherNamePlaceholder
}

// dateLabel maps the lesson day to "Today", "Tomorrow" or a formatted
// calendar date.
func dateLabel(date, today time.Time) string {
	day := truncateToDay(date)
	switch {
	case day.Equal(today):
		return dto.DateLabelToday
	case day.Equal(today.AddDate(0, 0, 1)):
		return dto.DateLabelTomorrow
	}
	return day.Format(dto.DateLabelFormat)
}

// startTimeLabel trims stored wall-clock values down to HH:MM.
func startTimeLabel(start *string) string {
	if start == nil {
		return ""
	}
	value := strings.TrimSpace(*start)
	if len(value) > 5 {
		value = value[:5]
	}
	return value
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
