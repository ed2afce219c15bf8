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

// QuestionRepository handles persistence for test questions.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository constructs the repository.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, subject_id, question, options, correct_option_index, created_at, updated_at`

// ListBySubject returns all questions for one subject.
func (r *QuestionRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.TestQuestion, error) {
	query := fmt.Sprintf(`SELECT %s FROM test_questions WHERE subject_id = $1 ORDER BY created_at ASC, id ASC`, questionColumns)
	var questions []models.TestQuestion
	if err := r.db.SelectContext(ctx, &questions, query, subjectID); err != nil {
		return nil, fmt.Errorf("list questions by subject: %w", err)
	}
	return questions, nil
}

// FindByID returns a question by id.
func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.TestQuestion, error) {
	query := fmt.Sprintf(`SELECT %s FROM test_questions WHERE id = $1 LIMIT 1`, questionColumns)
	var question models.TestQuestion
	if err := r.db.GetContext(ctx, &question, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find question by id: %w", err)
	}
	return &question, nil
}

// Create persists a new question.
func (r *QuestionRepository) Create(ctx context.Context, question *models.TestQuestion) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if question.CreatedAt.IsZero() {
		question.CreatedAt = now
	}
	question.UpdatedAt = now
	const query = `INSERT INTO test_questions (id, subject_id, question, options, correct_option_index, created_at, updated_at)
        VALUES (:id, :subject_id, :question, :options, :correct_option_index, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, question); err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

// Update modifies a question.
func (r *QuestionRepository) Update(ctx context.Context, question *models.TestQuestion) error {
	question.UpdatedAt = time.Now().UTC()
	const query = `UPDATE test_questions SET subject_id = :subject_id, question = :question, options = :options,
        correct_option_index = :correct_option_index, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, question); err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return nil
}

// Delete removes a question record.
func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM test_questions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}
