package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otero-ediciones/lms-api/internal/models"
	"github.com/otero-ediciones/lms-api/internal/policy"
	appErrors "github.com/otero-ediciones/lms-api/pkg/errors"
)

type fakeEnrollmentRepo struct {
	enrollments []models.EnrollmentDetail
	enrollment  *models.Enrollment
	exists      bool
	created     *models.Enrollment
	deletedID   string
}

func (f *fakeEnrollmentRepo) List(context.Context, models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return f.enrollments, len(f.enrollments), nil
}

func (f *fakeEnrollmentRepo) FindByID(context.Context, string) (*models.Enrollment, error) {
	if f.enrollment == nil {
		return nil, sql.ErrNoRows
	}
	return f.enrollment, nil
}

func (f *fakeEnrollmentRepo) Exists(context.Context, string, string) (bool, error) {
	return f.exists, nil
}

func (f *fakeEnrollmentRepo) Create(_ context.Context, enrollment *models.Enrollment) error {
	f.created = enrollment
	return nil
}

func (f *fakeEnrollmentRepo) Delete(_ context.Context, id string) error {
	f.deletedID = id
	return nil
}

type fakeEnrollmentUsers struct {
	user   *models.User
	audits []*models.AuditLog
}

func (f *fakeEnrollmentUsers) FindByID(context.Context, string) (*models.User, error) {
	if f.user == nil {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

func (f *fakeEnrollmentUsers) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.audits = append(f.audits, log)
	return nil
}

func newEnrollmentService(repo *fakeEnrollmentRepo, users *fakeEnrollmentUsers, courses *fakeLessonCourses) *EnrollmentService {
	return NewEnrollmentService(repo, users, courses, policy.NewEngine(policy.Config{}), nil, nil)
}

func TestEnroll_HappyPath(t *testing.T) {
	repo := &fakeEnrollmentRepo{}
	users := &fakeEnrollmentUsers{user: &models.User{ID: "stu-1", Role: models.RoleStudent, Active: true}}
	courses := &fakeLessonCourses{course: &models.Course{ID: "c-1"}}
	svc := newEnrollmentService(repo, users, courses)

	enrollment, err := svc.Enroll(context.Background(), models.Principal{ID: "adm", Role: models.RoleAdmin}, CreateEnrollmentRequest{StudentID: "stu-1", CourseID: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, "stu-1", enrollment.StudentID)
	assert.Equal(t, "c-1", enrollment.CourseID)
	require.NotNil(t, repo.created)
	require.Len(t, users.audits, 1)
	assert.Equal(t, models.AuditActionEnroll, users.audits[0].Action)
}

func TestEnroll_DuplicateIsConflict(t *testing.T) {
	repo := &fakeEnrollmentRepo{exists: true}
	users := &fakeEnrollmentUsers{user: &models.User{ID: "stu-1", Role: models.RoleStudent, Active: true}}
	courses := &fakeLessonCourses{course: &models.Course{ID: "c-1"}}
	svc := newEnrollmentService(repo, users, courses)

	_, err := svc.Enroll(context.Background(), models.Principal{ID: "adm", Role: models.RoleAdmin}, CreateEnrollmentRequest{StudentID: "stu-1", CourseID: "c-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestEnroll_RejectsNonStudents(t *testing.T) {
	users := &fakeEnrollmentUsers{user: &models.User{ID: "tea-1", Role: models.RoleTeacher, Active: true}}
	courses := &fakeLessonCourses{course: &models.Course{ID: "c-1"}}
	svc := newEnrollmentService(&fakeEnrollmentRepo{}, users, courses)

	_, err := svc.Enroll(context.Background(), models.Principal{ID: "adm", Role: models.RoleAdmin}, CreateEnrollmentRequest{StudentID: "tea-1", CourseID: "c-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnroll_NonAdminForbidden(t *testing.T) {
	svc := newEnrollmentService(&fakeEnrollmentRepo{}, &fakeEnrollmentUsers{}, &fakeLessonCourses{})

	for _, role := range []models.UserRole{models.RoleTeacher, models.RoleStudent} {
		_, err := svc.Enroll(context.Background(), models.Principal{ID: "u-1", Role: role}, CreateEnrollmentRequest{StudentID: "stu-1", CourseID: "c-1"})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code, "role %s", role)
	}
}

func TestUnenroll_RemovesMembership(t *testing.T) {
	repo := &fakeEnrollmentRepo{enrollment: &models.Enrollment{ID: "enr-1", StudentID: "stu-1", CourseID: "c-1"}}
	users := &fakeEnrollmentUsers{}
	svc := newEnrollmentService(repo, users, &fakeLessonCourses{})

	err := svc.Unenroll(context.Background(), models.Principal{ID: "adm", Role: models.RoleAdmin}, "enr-1")
	require.NoError(t, err)
	assert.Equal(t, "enr-1", repo.deletedID)
	require.Len(t, users.audits, 1)
	assert.Equal(t, models.AuditActionUnenroll, users.audits[0].Action)
}

func TestUnenroll_MissingEnrollment(t *testing.T) {
	svc := newEnrollmentService(&fakeEnrollmentRepo{}, &fakeEnrollmentUsers{}, &fakeLessonCourses{})

	err := svc.Unenroll(context.Background(), models.Principal{ID: "adm", Role: models.RoleAdmin}, "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
