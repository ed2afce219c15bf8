package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/otero-ediciones/lms-api/internal/models"
	"github.com/otero-ediciones/lms-api/internal/policy"
	appErrors "github.com/otero-ediciones/lms-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	ListForTeacher(ctx context.Context, teacherID string) ([]models.CourseDetail, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.CourseDetail, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type enrollmentChecker interface {
	Exists(ctx context.Context, studentID, courseID string) (bool, error)
}

type teacherLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateCourseRequest captures fields for creating courses.
type CreateCourseRequest struct {
	Name        string  `json:"name" validate:"required"`
	SubjectID   *string `json:"subject_id"`
	TeacherID   *string `json:"teacher_id"`
	Description string  `json:"description"`
}

// UpdateCourseRequest modifies course fields.
type UpdateCourseRequest struct {
	Name        string  `json:"name" validate:"required"`
	SubjectID   *string `json:"subject_id"`
	TeacherID   *string `json:"teacher_id"`
	Description string  `json:"description"`
}

// CourseService handles course workflows with per-role visibility.
type CourseService struct {
	repo        courseRepository
	enrollments enrollmentChecker
	users       teacherLookup
	policy      *policy.Engine
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService creates a new course service.
func NewCourseService(repo courseRepository, enrollments enrollmentChecker, users teacherLookup, engine *policy.Engine, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = policy.NewEngine(policy.Config{})
	}
	return &CourseService{repo: repo, enrollments: enrollments, users: users, policy: engine, validator: validate, logger: logger}
}

// ListVisible returns the courses the principal may see. Admins get the
// filtered global listing; teachers and students get their own scope and
// the filter is ignored.
func (s *CourseService) ListVisible(ctx context.Context, p models.Principal, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	switch p.Role {
	case models.RoleAdmin:
		courses, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
		}
		page := filter.Page
		if page < 1 {
			page = 1
		}
		size := filter.PageSize
		if size <= 0 {
			size = 20
		}
		return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
	case models.RoleTeacher:
		courses, err := s.repo.ListForTeacher(ctx, p.ID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
		}
		return courses, nil, nil
	case models.RoleStudent:
		courses, err := s.repo.ListForStudent(ctx, p.ID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
		}
		return courses, nil, nil
	}
	return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "role has no course scope")
}

// GetVisible returns one course if the principal may see it. A course
// outside the principal's scope is reported as not found so its
// existence is not revealed.
func (s *CourseService) GetVisible(ctx context.Context, p models.Principal, id string) (*models.CourseDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrolled := false
	if p.Role == models.RoleStudent {
		enrolled, err = s.enrollments.Exists(ctx, p.ID, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
		}
	}

	if !s.policy.CanReadCourse(p, &detail.Course, enrolled) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return detail, nil
}

// Create adds a new course.
func (s *CourseService) Create(ctx context.Context, p models.Principal, req CreateCourseRequest) (*models.Course, error) {
	if !s.policy.CanWriteCourse(p) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course management requires admin role")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if err := s.checkTeacherRef(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	course := &models.Course{
		Name:        strings.TrimSpace(req.Name),
		SubjectID:   req.SubjectID,
		TeacherID:   req.TeacherID,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Update modifies an existing course.
func (s *CourseService) Update(ctx context.Context, p models.Principal, id string, req UpdateCourseRequest) (*models.Course, error) {
	if !s.policy.CanWriteCourse(p) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course management requires admin role")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if err := s.checkTeacherRef(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	course.Name = strings.TrimSpace(req.Name)
	course.SubjectID = req.SubjectID
	course.TeacherID = req.TeacherID
	course.Description = req.Description

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Delete removes a course together with its lessons and enrollments.
func (s *CourseService) Delete(ctx context.Context, p models.Principal, id string) error {
	if !s.policy.CanWriteCourse(p) {
		return appErrors.Clone(appErrors.ErrForbidden, "course management requires admin role")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}

// checkTeacherRef verifies that an assigned teacher id references an
// active account with the teacher role.
func (s *CourseService) checkTeacherRef(ctx context.Context, teacherID *string) error {
	if teacherID == nil || *teacherID == "" {
		return nil
	}
	user, err := s.users.FindByID(ctx, *teacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "assigned teacher does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher")
	}
	if user.Role != models.RoleTeacher || !user.Active {
		return appErrors.Clone(appErrors.ErrValidation, "assigned user is not an active teacher")
	}
	return nil
}
