package models

import "time"

// Course groups lessons under an optional subject and teacher. The
// teacher reference may become NULL when the teacher account is removed.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	SubjectID   *string   `db:"subject_id" json:"subject_id,omitempty"`
	TeacherID   *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail joins display names onto a course row.
type CourseDetail struct {
	Course
	SubjectName     *string `db:"subject_name" json:"subject_name,omitempty"`
	TeacherName     *string `db:"teacher_name" json:"teacher_name,omitempty"`
	TeacherUsername *string `db:"teacher_username" json:"teacher_username,omitempty"`
	StudentCount    int     `db:"student_count" json:"student_count"`
}

// CourseFilter captures list filtering for admin course queries.
type CourseFilter struct {
	SubjectID string
	TeacherID string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
