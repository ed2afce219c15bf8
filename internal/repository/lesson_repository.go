package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/otero-ediciones/lms-api/internal/models"
)

// LessonRepository handles persistence for lessons. Every collection
// query orders by (date, start_time, id) ascending; the dashboard
// aggregation depends on that ordering being stable.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs the repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

const lessonColumns = `id, course_id, title, date, start_time, end_time, conference_link, recording_link, homework_url, homework_text, created_at, updated_at`

// ListByCourse returns all lessons of one course in chronological order.
func (r *LessonRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error) {
	query := fmt.Sprintf(`SELECT %s FROM lessons WHERE course_id = $1 ORDER BY date ASC, start_time ASC NULLS LAST, id ASC`, lessonColumns)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, courseID); err != nil {
		return nil, fmt.Errorf("list lessons by course: %w", err)
	}
	return lessons, nil
}

// FindByID returns a lesson by id.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := fmt.Sprintf(`SELECT %s FROM lessons WHERE id = $1 LIMIT 1`, lessonColumns)
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find lesson by id: %w", err)
	}
	return &lesson, nil
}

// ListUpcomingForStudent joins enrollment -> course -> lesson -> teacher
// and returns lessons dated today or later for the student's courses,
// chronologically, capped at limit.
func (r *LessonRepository) ListUpcomingForStudent(ctx context.Context, studentID string, from time.Time, limit int) ([]models.UpcomingLessonRow, error) {
	if limit <= 0 {
		limit = 3
	}
	const query = `SELECT l.id AS lesson_id, c.name AS course_name,
        u.first_name AS teacher_first_name, u.last_name AS teacher_last_name, u.username AS teacher_username,
        l.date, l.start_time, l.conference_link
        FROM lessons l
        JOIN courses c ON c.id = l.course_id
        JOIN enrollments e ON e.course_id = c.id AND e.student_id = $1
        LEFT JOIN users u ON u.id = c.teacher_id
        WHERE l.date >= $2
        ORDER BY l.date ASC, l.start_time ASC NULLS LAST, l.id ASC
        LIMIT $3`
	var rows []models.UpcomingLessonRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID, from, limit); err != nil {
		return nil, fmt.Errorf("list upcoming lessons: %w", err)
	}
	return rows, nil
}

// Create persists a new lesson.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now
	const query = `INSERT INTO lessons (id, course_id, title, date, start_time, end_time, conference_link, recording_link, homework_url, homework_text, created_at, updated_at)
        VALUES (:id, :course_id, :title, :date, :start_time, :end_time, :conference_link, :recording_link, :homework_url, :homework_text, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// Update modifies a lesson.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	lesson.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lessons SET title = :title, date = :date, start_time = :start_time, end_time = :end_time,
        conference_link = :conference_link, recording_link = :recording_link, homework_url = :homework_url, homework_text = :homework_text,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	return nil
}

// Delete removes a lesson record.
func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return nil
}
