package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/otero-ediciones/lms-api/internal/dto"
	"github.com/otero-ediciones/lms-api/internal/models"
	"github.com/otero-ediciones/lms-api/internal/policy"
	appErrors "github.com/otero-ediciones/lms-api/pkg/errors"
)

type lessonRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error)
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id string) error
}

type lessonCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CreateLessonRequest captures fields for creating lessons.
type CreateLessonRequest struct {
	CourseID       string  `json:"course_id" validate:"required"`
	Title          string  `json:"title" validate:"required"`
	Date           string  `json:"date" validate:"required"`
	StartTime      *string `json:"start_time"`
	EndTime        *string `json:"end_time"`
	ConferenceLink *string `json:"conference_link"`
	RecordingLink  *string `json:"recording_link"`
	HomeworkURL    *string `json:"homework_url"`
	HomeworkText   *string `json:"homework_text"`
}

// UpdateLessonRequest modifies lesson fields. The owning course never
// changes.
type UpdateLessonRequest struct {
	Title          string  `json:"title" validate:"required"`
	Date           string  `json:"date" validate:"required"`
	StartTime      *string `json:"start_time"`
	EndTime        *string `json:"end_time"`
	ConferenceLink *string `json:"conference_link"`
	RecordingLink  *string `json:"recording_link"`
	HomeworkURL    *string `json:"homework_url"`
	HomeworkText   *string `json:"homework_text"`
}

// LessonService handles lesson workflows. Reads follow course
// visibility; writes follow the lesson write policy.
type LessonService struct {
	repo      lessonRepository
	courses   lessonCourseRepository
	enrolled  enrollmentChecker
	policy    *policy.Engine
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLessonService creates a new lesson service.
func NewLessonService(repo lessonRepository, courses lessonCourseRepository, enrolled enrollmentChecker, engine *policy.Engine, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = policy.NewEngine(policy.Config{})
	}
	return &LessonService{
		repo:      repo,
		courses:   courses,
		enrolled:  enrolled,
		policy:    engine,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *LessonService) WithClock(now func() time.Time) *LessonService {
	if now != nil {
		s.now = now
	}
	return s
}

// ListByCourse returns the lessons of one course in chronological order,
// provided the principal may read the course.
func (s *LessonService) ListByCourse(ctx context.Context, p models.Principal, courseID string) ([]dto.LessonView, error) {
	if _, err := s.visibleCourse(ctx, p, courseID); err != nil {
		return nil, err
	}
	lessons, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	return dto.NewLessonViews(lessons, s.now().UTC()), nil
}

// Get returns one lesson if its course is visible to the principal.
func (s *LessonService) Get(ctx context.Context, p models.Principal, id string) (*dto.LessonView, error) {
	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if _, err := s.visibleCourse(ctx, p, lesson.CourseID); err != nil {
		return nil, err
	}
	view := dto.NewLessonView(*lesson, s.now().UTC())
	return &view, nil
}

// Create adds a lesson to a course.
func (s *LessonService) Create(ctx context.Context, p models.Principal, req CreateLessonRequest) (*dto.LessonView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !s.policy.CanWriteLesson(p, course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "lesson editing is not allowed for this course")
	}

	date, err := parseLessonDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := checkWallClock(req.StartTime); err != nil {
		return nil, err
	}
	if err := checkWallClock(req.EndTime); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		CourseID:       course.ID,
		Title:          strings.TrimSpace(req.Title),
		Date:           date,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		ConferenceLink: req.ConferenceLink,
		RecordingLink:  req.RecordingLink,
		HomeworkURL:    req.HomeworkURL,
		HomeworkText:   req.HomeworkText,
	}
	if err := s.repo.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}
	view := dto.NewLessonView(*lesson, s.now().UTC())
	return &view, nil
}

// Update modifies an existing lesson.
func (s *LessonService) Update(ctx context.Context, p models.Principal, id string, req UpdateLessonRequest) (*dto.LessonView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	lesson, _, err := s.writableLesson(ctx, p, id)
	if err != nil {
		return nil, err
	}

	date, err := parseLessonDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := checkWallClock(req.StartTime); err != nil {
		return nil, err
	}
	if err := checkWallClock(req.EndTime); err != nil {
		return nil, err
	}

	lesson.Title = strings.TrimSpace(req.Title)
	lesson.Date = date
	lesson.StartTime = req.StartTime
	lesson.EndTime = req.EndTime
	lesson.ConferenceLink = req.ConferenceLink
	lesson.RecordingLink = req.RecordingLink
	lesson.HomeworkURL = req.HomeworkURL
	lesson.HomeworkText = req.HomeworkText

	if err := s.repo.Update(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}
	view := dto.NewLessonView(*lesson, s.now().UTC())
	return &view, nil
}

// Delete removes a lesson.
func (s *LessonService) Delete(ctx context.Context, p models.Principal, id string) error {
	if _, _, err := s.writableLesson(ctx, p, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	return nil
}

// visibleCourse loads a course and applies the read policy, collapsing
// out-of-scope and missing courses into the same not-found error.
func (s *LessonService) visibleCourse(ctx context.Context, p models.Principal, courseID string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrolled := false
	if p.Role == models.RoleStudent {
		enrolled, err = s.enrolled.Exists(ctx, p.ID, courseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
		}
	}

	if !s.policy.CanReadCourse(p, course, enrolled) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return course, nil
}

// writableLesson loads a lesson with its course and applies the write
// policy.
func (s *LessonService) writableLesson(ctx context.Context, p models.Principal, id string) (*models.Lesson, *models.Course, error) {
	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	course, err := s.courses.FindByID(ctx, lesson.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !s.policy.CanWriteLesson(p, course) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "lesson editing is not allowed for this course")
	}
	return lesson, course, nil
}

func parseLessonDate(value string) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD format")
	}
	return date, nil
}

func checkWallClock(value *string) error {
	if value == nil || *value == "" {
		return nil
	}
	if _, err := time.Parse("15:04", *value); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "times must use zero-padded HH:MM format")
	}
	return nil
}
