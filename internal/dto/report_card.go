package dto

import (
	"time"

	"github.com/noah-isme/sma-report-card-api/internal/grading"
	"github.com/noah-isme/sma-report-card-api/internal/models"
)

// Row kinds on a report card.
const (
	RowKindExisting    = "existing"
	RowKindPlaceholder = "placeholder"
)

// GradeView is a stored grade as returned to clients.
type GradeView struct {
	ID               string   `json:"id"`
	ClassScore       *float64 `json:"classScore,omitempty"`
	ExamScore        *float64 `json:"examScore,omitempty"`
	TotalScore       *float64 `json:"totalScore,omitempty"`
	Grade            *string  `json:"grade,omitempty"`
	Remark           *string  `json:"remark,omitempty"`
	Position         *string  `json:"position,omitempty"`
	TeacherRemark    *string  `json:"teacherRemark,omitempty"`
	TeacherSignature *string  `json:"teacherSignature,omitempty"`
}

// SubjectRowView is one subject line. Grade is nil for placeholders, RowKey only set for them.
type SubjectRowView struct {
	Kind       string     `json:"kind"`
	RowKey     string     `json:"rowKey,omitempty"`
	CourseID   string     `json:"courseId"`
	CourseCode string     `json:"courseCode"`
	CourseName string     `json:"courseName"`
	Editable   bool       `json:"editable"`
	Grade      *GradeView `json:"grade,omitempty"`
}

// ReportView carries the stored report header fields.
type ReportView struct {
	ID                    string    `json:"id"`
	Term                  string    `json:"term"`
	AcademicYear          string    `json:"academicYear"`
	TotalScore            *float64  `json:"totalScore,omitempty"`
	OverallGrade          *string   `json:"overallGrade,omitempty"`
	Attendance            *string   `json:"attendance,omitempty"`
	Conduct               *string   `json:"conduct,omitempty"`
	ClassTeacherRemarks   *string   `json:"classTeacherRemarks,omitempty"`
	HeadTeacherRemarks    *string   `json:"headTeacherRemarks,omitempty"`
	ClassTeacherSignature *string   `json:"classTeacherSignature,omitempty"`
	HeadTeacherSignature  *string   `json:"headTeacherSignature,omitempty"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// SummaryView mirrors the computed aggregates.
type SummaryView struct {
	TotalScore     float64 `json:"totalScore"`
	AverageScore   float64 `json:"averageScore"`
	AverageDisplay string  `json:"averageDisplay"`
	OverallGrade   string  `json:"overallGrade"`
	Remark         string  `json:"remark"`
	GradedSubjects int     `json:"gradedSubjects"`
	SubjectCount   int     `json:"subjectCount"`
}

// StudentView identifies the student on the card.
type StudentView struct {
	ID            string  `json:"id"`
	FullName      string  `json:"fullName"`
	ClassYear     string  `json:"classYear"`
	StudentNumber *string `json:"studentNumber,omitempty"`
}

// ReportCardResponse is returned by GET /report-cards/:studentId.
type ReportCardResponse struct {
	Student      StudentView      `json:"student"`
	Term         string           `json:"term"`
	AcademicYear string           `json:"academicYear"`
	Report       *ReportView      `json:"report,omitempty"`
	Rows         []SubjectRowView `json:"rows"`
	Summary      SummaryView      `json:"summary"`
}

// GradeRequest is one subject's scores in a save payload.
type GradeRequest struct {
	SubjectID        string   `json:"subjectId"`
	ClassScore       *float64 `json:"classScore"`
	ExamScore        *float64 `json:"examScore"`
	Position         *string  `json:"position"`
	TeacherRemark    *string  `json:"teacherRemark"`
	TeacherSignature *string  `json:"teacherSignature"`
}

// SaveReportCardRequest is the PUT /report-cards/:studentId payload.
type SaveReportCardRequest struct {
	Term                  string         `json:"term"`
	AcademicYear          string         `json:"academicYear"`
	Attendance            *string        `json:"attendance"`
	Conduct               *string        `json:"conduct"`
	ClassTeacherRemarks   *string        `json:"classTeacherRemarks"`
	HeadTeacherRemarks    *string        `json:"headTeacherRemarks"`
	ClassTeacherSignature *string        `json:"classTeacherSignature"`
	HeadTeacherSignature  *string        `json:"headTeacherSignature"`
	Grades                []GradeRequest `json:"grades"`
}

// SaveReportCardResponse lists what was persisted.
type SaveReportCardResponse struct {
	Report ReportView  `json:"report"`
	Grades []GradeView `json:"grades"`
}

// MissingGradesResponse is returned by GET /missing-grades.
type MissingGradesResponse struct {
	Term         string                     `json:"term"`
	AcademicYear string                     `json:"academicYear"`
	Students     []models.MissingGradeEntry `json:"students"`
	Total        int                        `json:"total"`
}

// NotifyMissingGradesRequest is the POST /missing-grades/notify payload.
type NotifyMissingGradesRequest struct {
	Term         string `json:"term"`
	AcademicYear string `json:"academicYear"`
}

// NotifyMissingGradesResponse acknowledges a queued notification job.
type NotifyMissingGradesResponse struct {
	JobID string `json:"jobId"`
}

// ExportResponse points at a stored export.
type ExportResponse struct {
	Format    string    `json:"format"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewReportCardResponse maps merged rows and aggregates to the API shape.
func NewReportCardResponse(student *models.Student, term, year string, report *models.Report, rows []models.SubjectRow, summary grading.Summary) ReportCardResponse {
	resp := ReportCardResponse{
		Term:         term,
		AcademicYear: year,
		Rows:         make([]SubjectRowView, 0, len(rows)),
		Summary: SummaryView{
			TotalScore:     summary.TotalScore,
			AverageScore:   summary.AverageScore,
			AverageDisplay: summary.AverageDisplay,
			OverallGrade:   summary.OverallGrade,
			Remark:         summary.Remark,
			GradedSubjects: summary.GradedSubjects,
			SubjectCount:   summary.SubjectCount,
		},
	}
	if student != nil {
		resp.Student = StudentView{ID: student.ID, FullName: student.FullName, ClassYear: student.ClassYear, StudentNumber: student.StudentNumber}
	}
	if report != nil {
		view := NewReportView(*report)
		resp.Report = &view
	}
	for _, row := range rows {
		course := row.Subject()
		view := SubjectRowView{
			CourseID:   course.CourseID,
			CourseCode: course.CourseCode,
			CourseName: course.CourseName,
			Editable:   course.Editable,
		}
		switch r := row.(type) {
		case models.ExistingRow:
			view.Kind = RowKindExisting
			grade := NewGradeView(r.Grade)
			view.Grade = &grade
		case models.PlaceholderRow:
			view.Kind = RowKindPlaceholder
			view.RowKey = r.RowKey
		}
		resp.Rows = append(resp.Rows, view)
	}
	return resp
}

// NewReportView maps a stored report.
func NewReportView(r models.Report) ReportView {
	return ReportView{
		ID:                    r.ID,
		Term:                  r.Term,
		AcademicYear:          r.AcademicYear,
		TotalScore:            r.TotalScore,
		OverallGrade:          r.OverallGrade,
		Attendance:            r.Attendance,
		Conduct:               r.Conduct,
		ClassTeacherRemarks:   r.ClassTeacherRemarks,
		HeadTeacherRemarks:    r.HeadTeacherRemarks,
		ClassTeacherSignature: r.ClassTeacherSignature,
		HeadTeacherSignature:  r.HeadTeacherSignature,
		UpdatedAt:             r.UpdatedAt,
	}
}

// NewGradeView maps a stored grade.
func NewGradeView(g models.Grade) GradeView {
	return GradeView{
		ID:               g.ID,
		ClassScore:       g.ClassScore,
		ExamScore:        g.ExamScore,
		TotalScore:       g.TotalScore,
		Grade:            g.Grade,
		Remark:           g.Remark,
		Position:         g.Position,
		TeacherRemark:    g.TeacherRemark,
		TeacherSignature: g.TeacherSignature,
	}
}
