package dto

import "github.com/otero-ediciones/lms-api/internal/models"

// QuestionView is the test-question projection for non-admin callers.
// The correct option index is excluded structurally: this type has no
// field that could carry it.
type QuestionView struct {
	ID        string   `json:"id"`
	SubjectID string   `json:"subject_id"`
	Question  string   `json:"question"`
	Options   []string `json:"options"`
}

// QuestionAdminView additionally exposes the correct option index.
type QuestionAdminView struct {
	QuestionView
	CorrectOption int `json:"correct_option_index"`
}

// NewQuestionView projects a question for non-admin principals.
func NewQuestionView(q models.TestQuestion) QuestionView {
	return QuestionView{
		ID:        q.ID,
		SubjectID: q.SubjectID,
		Question:  q.Question,
		Options:   q.Options,
	}
}

// NewQuestionAdminView projects a question for admins.
func NewQuestionAdminView(q models.TestQuestion) QuestionAdminView {
	return QuestionAdminView{
		QuestionView:  NewQuestionView(q),
		CorrectOption: q.CorrectOption,
	}
}
