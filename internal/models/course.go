package models

// Course represents a taught subject.
type Course struct {
	ID   string `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// FacultyCourse links a teacher profile to a course it teaches.
type FacultyCourse struct {
	ID        string `db:"id" json:"id"`
	FacultyID string `db:"faculty_id" json:"faculty_id"`
	CourseID  string `db:"course_id" json:"course_id"`
}
