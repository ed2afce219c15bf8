package dto

// Date label markers understood by the dashboard clients. Lessons on any
// other day carry a formatted calendar date instead.
const (
	DateLabelToday    = "Today"
	DateLabelTomorrow = "Tomorrow"
)

// DateLabelFormat renders calendar dates beyond tomorrow.
const DateLabelFormat = "02.01.2006"

// TeacherNamePlaceholder is shown when a course has no teacher assigned.
const TeacherNamePlaceholder = "No teacher assigned"

// UpcomingLesson is one entry of the student dashboard: a display-ready
// projection of enrollment -> course -> lesson -> teacher.
type UpcomingLesson struct {
	ID             string `json:"id"`
	CourseName     string `json:"course_name"`
	TeacherName    string `json:"teacher_name"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	ConferenceLink string `json:"conference_link"`
}

// UpcomingLessonsResponse wraps the at-most-three upcoming lessons.
type UpcomingLessonsResponse struct {
	UpcomingLessons []UpcomingLesson `json:"upcoming_lessons"`
}
