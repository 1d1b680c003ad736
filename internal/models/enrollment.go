package models

// EnrollmentStatus is the registration state of a student_courses row.
type EnrollmentStatus string

// Known enrollment statuses. Only enrolled rows appear on report cards.
const (
	EnrollmentStatusEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentStatusDropped   EnrollmentStatus = "dropped"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
)

// StudentCourse is an enrollment row joined with its course.
type StudentCourse struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	CourseID   string           `db:"course_id" json:"course_id"`
	Status     EnrollmentStatus `db:"status" json:"status"`
	CourseCode string           `db:"course_code" json:"course_code"`
	CourseName string           `db:"course_name" json:"course_name"`
}

// EnrolledCourse is a course on a student's report tagged with the acting teacher's edit permission.
type EnrolledCourse struct {
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
	CourseCode string `json:"course_code"`
	Editable   bool   `json:"editable"`
}

// RosterEntry is one enrolled student of a course.
type RosterEntry struct {
	CourseID    string `db:"course_id" json:"course_id"`
	StudentID   string `db:"student_id" json:"student_id"`
	StudentName string `db:"student_name" json:"student_name"`
	ClassYear   string `db:"class_year" json:"class_year"`
}
