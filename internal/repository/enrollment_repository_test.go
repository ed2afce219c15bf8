package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otero-ediciones/lms-api/internal/models"
)

func newEnrollmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 LIMIT 1")).
		WithArgs("stu-1", "course-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExistsFalse(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 LIMIT 1")).
		WithArgs("stu-1", "course-1").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.Exists(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "created_at", "student_name", "student_email", "course_name"}).
		AddRow("enr-1", "stu-1", "course-1", now, "Ada Lovelace", "ada@example.com", "Math")
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments e")).
		WithArgs("course-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments e")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	enrollments, total, err := repo.List(context.Background(), models.EnrollmentFilter{CourseID: "course-1"})
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Ada Lovelace", enrollments[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment := &models.Enrollment{StudentID: "stu-1", CourseID: "course-1"}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	assert.NotEmpty(t, enrollment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListStudentsByCourse(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "username", "password_hash", "first_name", "last_name", "role", "active", "last_login", "created_at", "updated_at"}).
		AddRow("stu-1", "ada@example.com", "ada", "hash", "Ada", "Lovelace", string(models.RoleStudent), true, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY u.last_name ASC, u.first_name ASC, u.id ASC")).
		WithArgs("course-1").
		WillReturnRows(rows)

	students, err := repo.ListStudentsByCourse(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Ada Lovelace", students[0].FullName())
	assert.NoError(t, mock.ExpectationsWereMet())
}
