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

type fakeCourseRepo struct {
	listed       []models.CourseDetail
	teacherScope []models.CourseDetail
	studentScope []models.CourseDetail
	course       *models.Course
	detail       *models.CourseDetail
	created      *models.Course
	updated      *models.Course
	deletedID    string
}

func (f *fakeCourseRepo) List(context.Context, models.CourseFilter) ([]models.CourseDetail, int, error) {
	return f.listed, len(f.listed), nil
}

func (f *fakeCourseRepo) ListForTeacher(context.Context, string) ([]models.CourseDetail, error) {
	return f.teacherScope, nil
}

func (f *fakeCourseRepo) ListForStudent(context.Context, string) ([]models.CourseDetail, error) {
	return f.studentScope, nil
}

func (f *fakeCourseRepo) FindByID(context.Context, string) (*models.Course, error) {
	if f.course == nil {
		return nil, sql.ErrNoRows
	}
	return f.course, nil
}

func (f *fakeCourseRepo) FindDetailByID(context.Context, string) (*models.CourseDetail, error) {
	if f.detail == nil {
		return nil, sql.ErrNoRows
	}
	return f.detail, nil
}

func (f *fakeCourseRepo) Create(_ context.Context, course *models.Course) error {
	f.created = course
	return nil
}

func (f *fakeCourseRepo) Update(_ context.Context, course *models.Course) error {
	f.updated = course
	return nil
}

func (f *fakeCourseRepo) Delete(_ context.Context, id string) error {
	f.deletedID = id
	return nil
}

type fakeEnrollChecker struct {
	enrolled bool
	err      error
}

func (f *fakeEnrollChecker) Exists(context.Context, string, string) (bool, error) {
	return f.enrolled, f.err
}

type fakeTeacherLookup struct {
	user *models.User
}

func (f *fakeTeacherLookup) FindByID(context.Context, string) (*models.User, error) {
	if f.user == nil {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

func newCourseService(repo *fakeCourseRepo, checker *fakeEnrollChecker, lookup *fakeTeacherLookup) *CourseService {
	return NewCourseService(repo, checker, lookup, policy.NewEngine(policy.Config{}), nil, nil)
}

func TestCourseListVisible_ScopesByRole(t *testing.T) {
	repo := &fakeCourseRepo{
		listed:       []models.CourseDetail{{Course: models.Course{ID: "c-1"}}, {Course: models.Course{ID: "c-2"}}},
		teacherScope: []models.CourseDetail{{Course: models.Course{ID: "c-1"}}},
		studentScope: []models.CourseDetail{{Course: models.Course{ID: "c-2"}}},
	}
	svc := newCourseService(repo, &fakeEnrollChecker{}, &fakeTeacherLookup{})

	courses, pagination, err := svc.ListVisible(context.Background(), models.Principal{ID: "adm", Role: models.RoleAdmin}, models.CourseFilter{})
	require.NoError(t, err)
	require.NotNil(t, pagination)
	assert.Len(t, courses, 2)

	courses, pagination, err = svc.ListVisible(context.Background(), models.Principal{ID: "tea", Role: models.RoleTeacher}, models.CourseFilter{})
	require.NoError(t, err)
	assert.Nil(t, pagination)
	require.Len(t, courses, 1)
	assert.Equal(t, "c-1", courses[0].ID)

	courses, _, err = svc.ListVisible(context.Background(), models.Principal{ID: "stu", Role: models.RoleStudent}, models.CourseFilter{})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "c-2", courses[0].ID)
}

func TestCourseListVisible_UnknownRoleDenied(t *testing.T) {
	svc := newCourseService(&fakeCourseRepo{}, &fakeEnrollChecker{}, &fakeTeacherLookup{})

	_, _, err := svc.ListVisible(context.Background(), models.Principal{ID: "x", Role: models.UserRole("GUEST")}, models.CourseFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCourseGetVisible_OutOfScopeLooksMissing(t *testing.T) {
	teacherID := "tea-1"
	repo := &fakeCourseRepo{detail: &models.CourseDetail{Course: models.Course{ID: "c-1", TeacherID: &teacherID}}}

	svc := newCourseService(repo, &fakeEnrollChecker{enrolled: false}, &fakeTeacherLookup{})

	// Not enrolled: the course exists but must look missing.
	_, err := svc.GetVisible(context.Background(), models.Principal{ID: "stu-1", Role: models.RoleStudent}, "c-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	// Another teacher gets the same answer.
	_, err = svc.GetVisible(context.Background(), models.Principal{ID: "tea-2", Role: models.RoleTeacher}, "c-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	// The owning teacher sees it.
	detail, err := svc.GetVisible(context.Background(), models.Principal{ID: teacherID, Role: models.RoleTeacher}, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", detail.ID)
}

func TestCourseGetVisible_EnrolledStudentSeesCourse(t *testing.T) {
	repo := &fakeCourseRepo{detail: &models.CourseDetail{Course: models.Course{ID: "c-1"}}}
	svc := newCourseService(repo, &fakeEnrollChecker{enrolled: true}, &fakeTeacherLookup{})

	detail, err := svc.GetVisible(context.Background(), models.Principal{ID: "stu-1", Role: models.RoleStudent}, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", detail.ID)
}

func TestCourseCreate_RequiresAdmin(t *testing.T) {
	svc := newCourseService(&fakeCourseRepo{}, &fakeEnrollChecker{}, &fakeTeacherLookup{})

	_, err := svc.Create(context.Background(), models.Principal{ID: "tea", Role: models.RoleTeacher}, CreateCourseRequest{Name: "Algebra"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCourseCreate_ChecksTeacherReference(t *testing.T) {
	teacherID := "tea-1"
	admin := models.Principal{ID: "adm", Role: models.RoleAdmin}

	repo := &fakeCourseRepo{}
	lookup := &fakeTeacherLookup{user: &models.User{ID: teacherID, Role: models.RoleStudent, Active: true}}
	svc := newCourseService(repo, &fakeEnrollChecker{}, lookup)

	_, err := svc.Create(context.Background(), admin, CreateCourseRequest{Name: "Algebra", TeacherID: &teacherID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	lookup.user = &models.User{ID: teacherID, Role: models.RoleTeacher, Active: true}
	course, err := svc.Create(context.Background(), admin, CreateCourseRequest{Name: "Algebra", TeacherID: &teacherID})
	require.NoError(t, err)
	assert.Equal(t, "Algebra", course.Name)
	require.NotNil(t, repo.created)
}

func TestCourseDelete_MissingCourse(t *testing.T) {
	svc := newCourseService(&fakeCourseRepo{}, &fakeEnrollChecker{}, &fakeTeacherLookup{})

	err := svc.Delete(context.Background(), models.Principal{ID: "adm", Role: models.RoleAdmin}, "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
