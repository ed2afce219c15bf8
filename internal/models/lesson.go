package models

import "time"

// LessonStatus is a derived, read-only view of a lesson's place in time.
// It is never stored: the lesson date compared with today is the single
// source of truth.
type LessonStatus string

const (
	LessonStatusUpcoming  LessonStatus = "upcoming"
	LessonStatusCompleted LessonStatus = "completed"
)

// Lesson belongs to exactly one course and is removed with it. Times are
// stored as zero-padded "HH:MM" wall-clock strings; dates as calendar
// days without a time component.
type Lesson struct {
	ID             string    `db:"id" json:"id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	Title          string    `db:"title" json:"title"`
	Date           time.Time `db:"date" json:"date"`
	StartTime      *string   `db:"start_time" json:"start_time,omitempty"`
	EndTime        *string   `db:"end_time" json:"end_time,omitempty"`
	ConferenceLink *string   `db:"conference_link" json:"conference_link,omitempty"`
	RecordingLink  *string   `db:"recording_link" json:"recording_link,omitempty"`
	HomeworkURL    *string   `db:"homework_url" json:"homework_url,omitempty"`
	HomeworkText   *string   `db:"homework_text" json:"homework_text,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Status derives the lesson state relative to the given day.
func (l *Lesson) Status(today time.Time) LessonStatus {
	if truncateToDay(l.Date).Before(truncateToDay(today)) {
		return LessonStatusCompleted
	}
	return LessonStatusUpcoming
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UpcomingLessonRow is the joined read row feeding the student dashboard:
// enrollment -> course -> lesson -> teacher.
type UpcomingLessonRow struct {
	LessonID         string    `db:"lesson_id"`
	CourseName       string    `db:"course_name"`
	TeacherFirstName *string   `db:"teacher_first_name"`
	TeacherLastName  *string   `db:"teacher_last_name"`
	TeacherUsername  *string   `db:"teacher_username"`
	Date             time.Time `db:"date"`
	StartTime        *string   `db:"start_time"`
	ConferenceLink   *string   `db:"conference_link"`
}
