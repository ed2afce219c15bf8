// Package policy holds the pure access-control predicates. Every
// function is a side-effect-free decision over (principal, resource);
// the principal is always an explicit argument and each role switch
// enumerates the full role set, so an unrecognised role can only deny.
package policy

import "github.com/otero-ediciones/lms-api/internal/models"

// Config carries the runtime-tunable parts of the policy.
type Config struct {
	// TeacherLessonEdit allows teachers to create, update and delete
	// lessons of courses they own.
	TeacherLessonEdit bool
}

// Engine evaluates access predicates against its configuration.
type Engine struct {
	cfg Config
}

// NewEngine constructs a policy engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// ownsCourse reports whether the principal is the assigned teacher.
func ownsCourse(p models.Principal, course *models.Course) bool {
	return course != nil && course.TeacherID != nil && *course.TeacherID == p.ID
}

// CanReadCourse decides read access to a single course. The enrolled
// flag must reflect an existing Enrollment(principal, course) lookup.
func (e *Engine) CanReadCourse(p models.Principal, course *models.Course, enrolled bool) bool {
	if course == nil {
		return false
	}
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTeacher:
		return ownsCourse(p, course)
	case models.RoleStudent:
		return enrolled
	}
	return false
}

// CanWriteCourse decides create/update/delete on courses.
func (e *Engine) CanWriteCourse(p models.Principal) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTeacher:
		return false
	case models.RoleStudent:
		return false
	}
	return false
}

// CanReadLesson decides read access to a lesson via its owning course.
func (e *Engine) CanReadLesson(p models.Principal, course *models.Course, enrolled bool) bool {
	return e.CanReadCourse(p, course, enrolled)
}

// CanWriteLesson decides create/update/delete on lessons of the given
// course. Teachers pass only when the toggle is on and they own the
// course.
func (e *Engine) CanWriteLesson(p models.Principal, course *models.Course) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTeacher:
		return e.cfg.TeacherLessonEdit && ownsCourse(p, course)
	case models.RoleStudent:
		return false
	}
	return false
}

// CanManageSubjects decides subject create/update/delete.
func (e *Engine) CanManageSubjects(p models.Principal) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTeacher:
		return false
	case models.RoleStudent:
		return false
	}
	return false
}

// CanManageUsers decides user management, including role changes and
// enrollment administration.
func (e *Engine) CanManageUsers(p models.Principal) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTeacher:
		return false
	case models.RoleStudent:
		return false
	}
	return false
}

// CanSeeCorrectAnswers decides whether test-question responses may carry
// the correct option index.
func (e *Engine) CanSeeCorrectAnswers(p models.Principal) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTeacher:
		return false
	case models.RoleStudent:
		return false
	}
	return false
}

// CanUseStudentDashboard restricts the upcoming-lessons view to students.
func (e *Engine) CanUseStudentDashboard(p models.Principal) bool {
	switch p.Role {
	case models.RoleAdmin:
		return false
	case models.RoleTeacher:
		return false
	case models.RoleStudent:
		return true
	}
	return false
}
