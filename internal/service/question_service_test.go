package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otero-ediciones/lms-api/internal/dto"
	"github.com/otero-ediciones/lms-api/internal/models"
	"github.com/otero-ediciones/lms-api/internal/policy"
	appErrors "github.com/otero-ediciones/lms-api/pkg/errors"
)

type fakeQuestionRepo struct {
	questions []models.TestQuestion
	question  *models.TestQuestion
	created   *models.TestQuestion
}

func (f *fakeQuestionRepo) ListBySubject(context.Context, string) ([]models.TestQuestion, error) {
	return f.questions, nil
}

func (f *fakeQuestionRepo) FindByID(context.Context, string) (*models.TestQuestion, error) {
	if f.question == nil {
		return nil, sql.ErrNoRows
	}
	return f.question, nil
}

func (f *fakeQuestionRepo) Create(_ context.Context, question *models.TestQuestion) error {
	f.created = question
	return nil
}

func (f *fakeQuestionRepo) Update(context.Context, *models.TestQuestion) error { return nil }

func (f *fakeQuestionRepo) Delete(context.Context, string) error { return nil }

type fakeQuestionSubjects struct {
	subject *models.Subject
}

func (f *fakeQuestionSubjects) FindByID(context.Context, string) (*models.Subject, error) {
	if f.subject == nil {
		return nil, sql.ErrNoRows
	}
	return f.subject, nil
}

func newQuestionService(repo *fakeQuestionRepo, subjects *fakeQuestionSubjects) *QuestionService {
	return NewQuestionService(repo, subjects, policy.NewEngine(policy.Config{}), nil, nil)
}

func TestQuestionListBySubject_ProjectionByRole(t *testing.T) {
	repo := &fakeQuestionRepo{questions: []models.TestQuestion{
		{ID: "q-1", SubjectID: "sub-1", Question: "2+2?", Options: models.StringList{"3", "4"}, CorrectOption: 1},
	}}
	svc := newQuestionService(repo, &fakeQuestionSubjects{subject: &models.Subject{ID: "sub-1"}})

	// Students and teachers receive a projection with no answer field at all.
	for _, role := range []models.UserRole{models.RoleStudent, models.RoleTeacher} {
		result, err := svc.ListBySubject(context.Background(), models.Principal{ID: "u-1", Role: role}, "sub-1")
		require.NoError(t, err)
		views, ok := result.([]dto.QuestionView)
		require.True(t, ok, "role %s", role)
		require.Len(t, views, 1)

		payload, err := json.Marshal(views)
		require.NoError(t, err)
		assert.NotContains(t, string(payload), "correct_option_index")
		assert.NotContains(t, string(payload), "\":1")
	}

	result, err := svc.ListBySubject(context.Background(), models.Principal{ID: "adm", Role: models.RoleAdmin}, "sub-1")
	require.NoError(t, err)
	views, ok := result.([]dto.QuestionAdminView)
	require.True(t, ok)
	require.Len(t, views, 1)
	assert.Equal(t, 1, views[0].CorrectOption)
}

func TestQuestionListBySubject_RequiresSubject(t *testing.T) {
	svc := newQuestionService(&fakeQuestionRepo{}, &fakeQuestionSubjects{})
	admin := models.Principal{ID: "adm", Role: models.RoleAdmin}

	_, err := svc.ListBySubject(context.Background(), admin, "  ")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.ListBySubject(context.Background(), admin, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestQuestionCreate_ValidatesCorrectOptionBounds(t *testing.T) {
	repo := &fakeQuestionRepo{}
	svc := newQuestionService(repo, &fakeQuestionSubjects{subject: &models.Subject{ID: "sub-1"}})
	admin := models.Principal{ID: "adm", Role: models.RoleAdmin}

	_, err := svc.Create(context.Background(), admin, CreateQuestionRequest{
		SubjectID:     "sub-1",
		Question:      "2+2?",
		Options:       []string{"3", "4"},
		CorrectOption: 2,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	view, err := svc.Create(context.Background(), admin, CreateQuestionRequest{
		SubjectID:     "sub-1",
		Question:      "2+2?",
		Options:       []string{"3", "4"},
		CorrectOption: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, 1, view.CorrectOption)
}

func TestQuestionCreate_NonAdminForbidden(t *testing.T) {
	svc := newQuestionService(&fakeQuestionRepo{}, &fakeQuestionSubjects{subject: &models.Subject{ID: "sub-1"}})

	_, err := svc.Create(context.Background(), models.Principal{ID: "tea", Role: models.RoleTeacher}, CreateQuestionRequest{
		SubjectID: "sub-1",
		Question:  "2+2?",
		Options:   []string{"3", "4"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
