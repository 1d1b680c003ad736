package models

// Student is a learner profile as seen by report cards. ID is the profile id.
type Student struct {
	ID            string  `db:"id" json:"id"`
	FullName      string  `db:"full_name" json:"full_name"`
	ClassYear     string  `db:"class_year" json:"class_year"`
	StudentNumber *string `db:"student_number" json:"student_number,omitempty"`
	Email         *string `db:"email" json:"email,omitempty"`
}
