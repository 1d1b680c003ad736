package models

import "time"

// Grade is one subject's score entry within a report. At most one exists per (report, subject).
type Grade struct {
	ID               string    `db:"id" json:"id"`
	ReportID         string    `db:"report_id" json:"report_id"`
	SubjectID        string    `db:"subject_id" json:"subject_id"`
	ClassScore       *float64  `db:"class_score" json:"class_score,omitempty"`
	ExamScore        *float64  `db:"exam_score" json:"exam_score,omitempty"`
	TotalScore       *float64  `db:"total_score" json:"total_score,omitempty"`
	Grade            *string   `db:"grade" json:"grade,omitempty"`
	Remark           *string   `db:"remark" json:"remark,omitempty"`
	Position         *string   `db:"position" json:"position,omitempty"`
	TeacherRemark    *string   `db:"teacher_remark" json:"teacher_remark,omitempty"`
	TeacherSignature *string   `db:"teacher_signature" json:"teacher_signature,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// GradeScore is the score projection used for missing-grade detection.
type GradeScore struct {
	StudentID  string   `db:"student_id" json:"student_id"`
	SubjectID  string   `db:"subject_id" json:"subject_id"`
	ClassScore *float64 `db:"class_score" json:"class_score,omitempty"`
	ExamScore  *float64 `db:"exam_score" json:"exam_score,omitempty"`
	TotalScore *float64 `db:"total_score" json:"total_score,omitempty"`
}

// Entered reports whether at least one score field holds a positive value.
func (g GradeScore) Entered() bool {
	for _, v := range []*float64{g.ClassScore, g.ExamScore, g.TotalScore} {
		if v != nil && *v > 0 {
			return true
		}
	}
	return false
}

// MissingGradeEntry lists the owned courses a student still lacks an entered grade for.
type MissingGradeEntry struct {
	StudentID   string   `json:"student_id"`
	StudentName string   `json:"student_name"`
	ClassYear   string   `json:"class_year"`
	Courses     []Course `json:"courses"`
}
