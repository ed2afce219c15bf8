package dto

import (
	"time"

	"github.com/otero-ediciones/lms-api/internal/models"
)

// LessonView is the lesson projection returned to every role. The
// status field is derived from the lesson date at projection time.
type LessonView struct {
	ID             string              `json:"id"`
	CourseID       string              `json:"course_id"`
	Title          string              `json:"title"`
	Date           string              `json:"date"`
	StartTime      string              `json:"start_time,omitempty"`
	EndTime        string              `json:"end_time,omitempty"`
	Status         models.LessonStatus `json:"status"`
	ConferenceLink string              `json:"conference_link,omitempty"`
	RecordingLink  string              `json:"recording_link,omitempty"`
	HomeworkURL    string              `json:"homework_url,omitempty"`
	HomeworkText   string              `json:"homework_text,omitempty"`
}

// NewLessonView projects a lesson relative to the given day.
func NewLessonView(l models.Lesson, today time.Time) LessonView {
	return LessonView{
		ID:             l.ID,
		CourseID:       l.CourseID,
		Title:          l.Title,
		Date:           l.Date.Format("2006-01-02"),
		StartTime:      deref(l.StartTime),
		EndTime:        deref(l.EndTime),
		Status:         l.Status(today),
		ConferenceLink: deref(l.ConferenceLink),
		RecordingLink:  deref(l.RecordingLink),
		HomeworkURL:    deref(l.HomeworkURL),
		HomeworkText:   deref(l.HomeworkText),
	}
}

// NewLessonViews projects a slice preserving order.
func NewLessonViews(lessons []models.Lesson, today time.Time) []LessonView {
	views := make([]LessonView, 0, len(lessons))
	for _, l := range lessons {
		views = append(views, NewLessonView(l, today))
	}
	return views
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
