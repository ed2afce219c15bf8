package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/otero-ediciones/lms-api/internal/models"
	"github.com/otero-ediciones/lms-api/internal/policy"
	appErrors "github.com/otero-ediciones/lms-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	Exists(ctx context.Context, studentID, courseID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, id string) error
}

type enrollmentUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type enrollmentCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CreateEnrollmentRequest adds a student to a course.
type CreateEnrollmentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
}

// EnrollmentService manages student-course memberships. All operations
// are admin-only; memberships are created and removed, never mutated.
type EnrollmentService struct {
	repo      enrollmentRepository
	users     enrollmentUserRepository
	courses   enrollmentCourseRepository
	policy    *policy.Engine
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService creates a new enrollment service.
func NewEnrollmentService(repo enrollmentRepository, users enrollmentUserRepository, courses enrollmentCourseRepository, engine *policy.Engine, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = policy.NewEngine(policy.Config{})
	}
	return &EnrollmentService{repo: repo, users: users, courses: courses, policy: engine, validator: validate, logger: logger}
}

// List returns enrollments with student and course display fields.
func (s *EnrollmentService) List(ctx context.Context, p models.Principal, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	if !s.policy.CanManageUsers(p) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment management requires admin role")
	}

	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Enroll creates a membership after verifying both endpoints. A second
// enrollment of the same pair is a conflict.
func (s *EnrollmentService) Enroll(ctx context.Context, p models.Principal, req CreateEnrollmentRequest) (*models.Enrollment, error) {
	if !s.policy.CanManageUsers(p) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment management requires admin role")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only students can be enrolled")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student account is inactive")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	exists, err := s.repo.Exists(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this course")
	}

	enrollment := &models.Enrollment{StudentID: req.StudentID, CourseID: req.CourseID}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &p.ID,
		Action:     models.AuditActionEnroll,
		Resource:   "enrollment",
		ResourceID: &enrollment.ID,
	}); err != nil {
		s.logger.Warn("failed to record enrollment audit log", zap.Error(err))
	}

	return enrollment, nil
}

// Unenroll removes a membership by its identifier.
func (s *EnrollmentService) Unenroll(ctx context.Context, p models.Principal, id string) error {
	if !s.policy.CanManageUsers(p) {
		return appErrors.Clone(appErrors.ErrForbidden, "enrollment management requires admin role")
	}

	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if err := s.repo.Delete(ctx, enrollment.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}

	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &p.ID,
		Action:     models.AuditActionUnenroll,
		Resource:   "enrollment",
		ResourceID: &enrollment.ID,
	}); err != nil {
		s.logger.Warn("failed to record unenrollment audit log", zap.Error(err))
	}

	return nil
}
