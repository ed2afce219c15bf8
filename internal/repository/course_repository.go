package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/otero-ediciones/lms-api/internal/models"
)

// CourseRepository handles persistence for courses, including the
// per-role visibility queries.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseDetailColumns = `c.id, c.name, c.subject_id, c.teacher_id, c.description, c.created_at, c.updated_at,
        s.name AS subject_name,
        NULLIF(TRIM(u.first_name || ' ' || u.last_name), '') AS teacher_name,
        u.username AS teacher_username,
        (SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id) AS student_count`

const courseDetailJoins = `FROM courses c
LEFT JOIN subjects s ON s.id = c.subject_id
LEFT JOIN users u ON u.id = c.teacher_id`

// List returns all courses matching the filter. Admin-only scope.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	base := courseDetailJoins
	var conditions []string
	var args []interface{}

	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("c.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("c.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(c.name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":       "c.name",
		"created_at": "c.created_at",
		"updated_at": "c.updated_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s%s ORDER BY %s %s, c.id ASC LIMIT %d OFFSET %d",
		courseDetailColumns, base, clause, orderBy, order, size, offset)

	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s%s", base, clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// ListForTeacher returns courses the given teacher is assigned to.
func (r *CourseRepository) ListForTeacher(ctx context.Context, teacherID string) ([]models.CourseDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE c.teacher_id = $1 ORDER BY c.name ASC, c.id ASC`, courseDetailColumns, courseDetailJoins)
	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, teacherID); err != nil {
		return nil, fmt.Errorf("list courses for teacher: %w", err)
	}
	return courses, nil
}

// ListForStudent returns courses the given student is enrolled in.
func (r *CourseRepository) ListForStudent(ctx context.Context, studentID string) ([]models.CourseDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s
        JOIN enrollments en ON en.course_id = c.id AND en.student_id = $1
        ORDER BY c.name ASC, c.id ASC`, courseDetailColumns, courseDetailJoins)
	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, studentID); err != nil {
		return nil, fmt.Errorf("list courses for student: %w", err)
	}
	return courses, nil
}

// FindByID returns a bare course row.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, name, subject_id, teacher_id, description, created_at, updated_at FROM courses WHERE id = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &course, nil
}

// FindDetailByID returns a course with joined display names.
func (r *CourseRepository) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE c.id = $1 LIMIT 1`, courseDetailColumns, courseDetailJoins)
	var detail models.CourseDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course detail: %w", err)
	}
	return &detail, nil
}

// Create persists a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, name, subject_id, teacher_id, description, created_at, updated_at)
        VALUES (:id, :name, :subject_id, :teacher_id, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, subject_id = :subject_id, teacher_id = :teacher_id, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course; lessons and enrollments cascade in the
// database schema.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}
