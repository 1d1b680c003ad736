package models

import "time"

// ReportKey identifies a report. At most one report exists per key.
type ReportKey struct {
	StudentID    string `json:"student_id"`
	Term         string `json:"term"`
	AcademicYear string `json:"academic_year"`
}

// Report is a student's record for one term of an academic year.
// Summary and narrative fields are stored as provided.
type Report struct {
	ID                    string    `db:"id" json:"id"`
	StudentID             string    `db:"student_id" json:"student_id"`
	Term                  string    `db:"term" json:"term"`
	AcademicYear          string    `db:"academic_year" json:"academic_year"`
	TotalScore            *float64  `db:"total_score" json:"total_score,omitempty"`
	OverallGrade          *string   `db:"overall_grade" json:"overall_grade,omitempty"`
	Attendance            *string   `db:"attendance" json:"attendance,omitempty"`
	Conduct               *string   `db:"conduct" json:"conduct,omitempty"`
	ClassTeacherRemarks   *string   `db:"class_teacher_remarks" json:"class_teacher_remarks,omitempty"`
	HeadTeacherRemarks    *string   `db:"head_teacher_remarks" json:"head_teacher_remarks,omitempty"`
	ClassTeacherSignature *string   `db:"class_teacher_signature" json:"class_teacher_signature,omitempty"`
	HeadTeacherSignature  *string   `db:"head_teacher_signature" json:"head_teacher_signature,omitempty"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// Key returns the unique tuple of the report.
func (r Report) Key() ReportKey {
	return ReportKey{StudentID: r.StudentID, Term: r.Term, AcademicYear: r.AcademicYear}
}
