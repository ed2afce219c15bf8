package models

import "time"

// Enrollment grants one student visibility into one course. A given
// (student, course) pair exists at most once; the table carries a unique
// constraint and the service re-checks before inserting.
type Enrollment struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EnrollmentDetail joins display names onto an enrollment row.
type EnrollmentDetail struct {
	Enrollment
	StudentName  string `db:"student_name" json:"student_name"`
	StudentEmail string `db:"student_email" json:"student_email"`
	CourseName   string `db:"course_name" json:"course_name"`
}

// EnrollmentFilter captures list filtering for admin enrollment queries.
type EnrollmentFilter struct {
	StudentID string
	CourseID  string
	Page      int
	PageSize  int
}
