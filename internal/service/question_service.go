package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/otero-ediciones/lms-api/internal/dto"
	"github.com/otero-ediciones/lms-api/internal/models"
	"github.com/otero-ediciones/lms-api/internal/policy"
	appErrors "github.com/otero-ediciones/lms-api/pkg/errors"
)

type questionRepository interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.TestQuestion, error)
	FindByID(ctx context.Context, id string) (*models.TestQuestion, error)
	Create(ctx context.Context, question *models.TestQuestion) error
	Update(ctx context.Context, question *models.TestQuestion) error
	Delete(ctx context.Context, id string) error
}

type questionSubjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// CreateQuestionRequest captures fields for creating test questions.
type CreateQuestionRequest struct {
	SubjectID     string   `json:"subject_id" validate:"required"`
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectOption int      `json:"correct_option_index" validate:"min=0"`
}

// UpdateQuestionRequest modifies question fields.
type UpdateQuestionRequest struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectOption int      `json:"correct_option_index" validate:"min=0"`
}

// QuestionService handles the self-assessment question bank. Read
// projections depend on the caller: only admins ever receive the
// correct option index.
type QuestionService struct {
	repo      questionRepository
	subjects  questionSubjectRepository
	policy    *policy.Engine
	validator *validator.Validate
	logger    *zap.Logger
}

// NewQuestionService creates a new question service.
func NewQuestionService(repo questionRepository, subjects questionSubjectRepository, engine *policy.Engine, validate *validator.Validate, logger *zap.Logger) *QuestionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = policy.NewEngine(policy.Config{})
	}
	return &QuestionService{repo: repo, subjects: subjects, policy: engine, validator: validate, logger: logger}
}

// ListBySubject returns the question bank of one subject, projected for
// the principal's role.
func (s *QuestionService) ListBySubject(ctx context.Context, p models.Principal, subjectID string) (interface{}, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject_id is required")
	}

	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	questions, err := s.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list questions")
	}

	if s.policy.CanSeeCorrectAnswers(p) {
		views := make([]dto.QuestionAdminView, 0, len(questions))
		for _, q := range questions {
			views = append(views, dto.NewQuestionAdminView(q))
		}
		return views, nil
	}

	views := make([]dto.QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, dto.NewQuestionView(q))
	}
	return views, nil
}

// Get returns one question projected for the principal's role.
func (s *QuestionService) Get(ctx context.Context, p models.Principal, id string) (interface{}, error) {
	question, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}

	if s.policy.CanSeeCorrectAnswers(p) {
		return dto.NewQuestionAdminView(*question), nil
	}
	return dto.NewQuestionView(*question), nil
}

// Create adds a question to a subject's bank.
func (s *QuestionService) Create(ctx context.Context, p models.Principal, req CreateQuestionRequest) (*dto.QuestionAdminView, error) {
	if !s.policy.CanManageSubjects(p) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "question management requires admin role")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}
	if req.CorrectOption >= len(req.Options) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "correct_option_index must reference an option")
	}

	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	question := &models.TestQuestion{
		SubjectID:     req.SubjectID,
		Question:      strings.TrimSpace(req.Question),
		Options:       models.StringList(req.Options),
		CorrectOption: req.CorrectOption,
	}
	if err := s.repo.Create(ctx, question); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create question")
	}

	view := dto.NewQuestionAdminView(*question)
	return &view, nil
}

// Update modifies a question.
func (s *QuestionService) Update(ctx context.Context, p models.Principal, id string, req UpdateQuestionRequest) (*dto.QuestionAdminView, error) {
	if !s.policy.CanManageSubjects(p) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "question management requires admin role")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}
	if req.CorrectOption >= len(req.Options) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "correct_option_index must reference an option")
	}

	question, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}

	question.Question = strings.TrimSpace(req.Question)
	question.Options = models.StringList(req.Options)
	question.CorrectOption = req.CorrectOption

	if err := s.repo.Update(ctx, question); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update question")
	}

	view := dto.NewQuestionAdminView(*question)
	return &view, nil
}

// Delete removes a question.
func (s *QuestionService) Delete(ctx context.Context, p models.Principal, id string) error {
	if !s.policy.CanManageSubjects(p) {
		return appErrors.Clone(appErrors.ErrForbidden, "question management requires admin role")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete question")
	}
	return nil
}
