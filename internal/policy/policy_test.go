package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/otero-ediciones/lms-api/internal/models"
)

func strPtr(s string) *string { return &s }

func TestCanReadCourse(t *testing.T) {
	engine := NewEngine(Config{})
	course := &models.Course{ID: "c1", TeacherID: strPtr("t1")}

	tests := []struct {
		name      string
		principal models.Principal
		enrolled  bool
		want      bool
	}{
		{"admin always", models.Principal{ID: "a1", Role: models.RoleAdmin}, false, true},
		{"owning teacher", models.Principal{ID: "t1", Role: models.RoleTeacher}, false, true},
		{"other teacher", models.Principal{ID: "t2", Role: models.RoleTeacher}, false, false},
		{"enrolled student", models.Principal{ID: "s1", Role: models.RoleStudent}, true, true},
		{"unenrolled student", models.Principal{ID: "s1", Role: models.RoleStudent}, false, false},
		{"unknown role", models.Principal{ID: "x", Role: "GUEST"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.CanReadCourse(tt.principal, course, tt.enrolled))
		})
	}
}

func TestCanReadCourseWithoutTeacher(t *testing.T) {
	engine := NewEngine(Config{})
	course := &models.Course{ID: "c1"}

	assert.False(t, engine.CanReadCourse(models.Principal{ID: "t1", Role: models.RoleTeacher}, course, false))
	assert.True(t, engine.CanReadCourse(models.Principal{ID: "s1", Role: models.RoleStudent}, course, true))
}

func TestCanWriteCourseAdminOnly(t *testing.T) {
	engine := NewEngine(Config{})

	assert.True(t, engine.CanWriteCourse(models.Principal{ID: "a1", Role: models.RoleAdmin}))
	assert.False(t, engine.CanWriteCourse(models.Principal{ID: "t1", Role: models.RoleTeacher}))
	assert.False(t, engine.CanWriteCourse(models.Principal{ID: "s1", Role: models.RoleStudent}))
}

func TestCanWriteLessonToggle(t *testing.T) {
	course := &models.Course{ID: "c1", TeacherID: strPtr("t1")}
	owner := models.Principal{ID: "t1", Role: models.RoleTeacher}
	other := models.Principal{ID: "t2", Role: models.RoleTeacher}

	off := NewEngine(Config{})
	assert.False(t, off.CanWriteLesson(owner, course))
	assert.True(t, off.CanWriteLesson(models.Principal{ID: "a1", Role: models.RoleAdmin}, course))

	on := NewEngine(Config{TeacherLessonEdit: true})
	assert.True(t, on.CanWriteLesson(owner, course))
	assert.False(t, on.CanWriteLesson(other, course))
	assert.False(t, on.CanWriteLesson(models.Principal{ID: "s1", Role: models.RoleStudent}, course))
}

func TestCanSeeCorrectAnswers(t *testing.T) {
	engine := NewEngine(Config{})

	assert.True(t, engine.CanSeeCorrectAnswers(models.Principal{Role: models.RoleAdmin}))
	assert.False(t, engine.CanSeeCorrectAnswers(models.Principal{Role: models.RoleTeacher}))
	assert.False(t, engine.CanSeeCorrectAnswers(models.Principal{Role: models.RoleStudent}))
}

func TestCanUseStudentDashboard(t *testing.T) {
	engine := NewEngine(Config{})

	assert.True(t, engine.CanUseStudentDashboard(models.Principal{Role: models.RoleStudent}))
	assert.False(t, engine.CanUseStudentDashboard(models.Principal{Role: models.RoleTeacher}))
	assert.False(t, engine.CanUseStudentDashboard(models.Principal{Role: models.RoleAdmin}))
}
