package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-card-api/internal/grading"
	"github.com/noah-isme/sma-report-card-api/internal/models"
	appErrors "github.com/noah-isme/sma-report-card-api/pkg/errors"
)

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type reportStore interface {
	FindByID(ctx context.Context, id string) (*models.Report, error)
	FindByKey(ctx context.Context, key models.ReportKey) (*models.Report, error)
	Upsert(ctx context.Context, report *models.Report) error
}

type gradeStore interface {
	ListByReport(ctx context.Context, reportID string) ([]models.Grade, error)
	Upsert(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, reportID, subjectID string) error
}

type enrollmentResolver interface {
	ResolveEnrollments(ctx context.Context, studentID string, ownedCourseIDs []string) ([]models.EnrolledCourse, error)
}

// ReportCardQuery identifies the report card to assemble and who is looking at it.
type ReportCardQuery struct {
	StudentID    string
	Term         string
	AcademicYear string
	ActorID      string
}

// ReportCardView is an assembled report card. Report is nil until the first save.
type ReportCardView struct {
	Student *models.Student
	Report  *models.Report
	Rows    []models.SubjectRow
	Summary grading.Summary
}

// GradeInput is one subject's scores in a save request. Totals, letters and remarks are derived.
type GradeInput struct {
	SubjectID        string   `json:"subject_id" validate:"required"`
	ClassScore       *float64 `json:"class_score" validate:"omitempty,gte=0,lte=100"`
	ExamScore        *float64 `json:"exam_score" validate:"omitempty,gte=0,lte=100"`
	Position         *string  `json:"position"`
	TeacherRemark    *string  `json:"teacher_remark"`
	TeacherSignature *string  `json:"teacher_signature"`
}

// SaveReportCardRequest upserts a report and the acting teacher's grades on it.
type SaveReportCardRequest struct {
	StudentID             string       `json:"student_id" validate:"required"`
	Term                  string       `json:"term" validate:"required"`
	AcademicYear          string       `json:"academic_year" validate:"required"`
	Attendance            *string      `json:"attendance"`
	Conduct               *string      `json:"conduct"`
	ClassTeacherRemarks   *string      `json:"class_teacher_remarks"`
	HeadTeacherRemarks    *string      `json:"head_teacher_remarks"`
	ClassTeacherSignature *string      `json:"class_teacher_signature"`
	HeadTeacherSignature  *string      `json:"head_teacher_signature"`
	Grades                []GradeInput `json:"grades" validate:"dive"`
}

// SaveReportCardResult is the outcome of a save. On a partial write it holds what did persist.
type SaveReportCardResult struct {
	Report *models.Report
	Grades []models.Grade
}

// PartialWriteDetails lists which grade upserts failed after the report upsert succeeded.
type PartialWriteDetails struct {
	ReportID          string   `json:"report_id"`
	FailedSubjectIDs  []string `json:"failed_subject_ids"`
	SavedSubjectIDs   []string `json:"saved_subject_ids"`
	ReportTotalsStale bool     `json:"report_totals_stale,omitempty"`
}

// UpsertGradeRequest writes one grade on an existing report.
type UpsertGradeRequest struct {
	ReportID string `json:"report_id" validate:"required"`
	GradeInput
}

// ReportCardService assembles and persists report cards.
type ReportCardService struct {
	students    studentReader
	owners      ownershipReader
	enrollments enrollmentResolver
	reports     reportStore
	grades      gradeStore
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// ReportCardServiceParams groups the dependencies of ReportCardService.
type ReportCardServiceParams struct {
	Students    studentReader
	Owners      ownershipReader
	Enrollments enrollmentResolver
	Reports     reportStore
	Grades      gradeStore
	Cache       *CacheService
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// NewReportCardService constructs ReportCardService.
func NewReportCardService(params ReportCardServiceParams) *ReportCardService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &ReportCardService{
		students:    params.Students,
		owners:      params.Owners,
		enrollments: params.Enrollments,
		reports:     params.Reports,
		grades:      params.Grades,
		cache:       params.Cache,
		metrics:     params.Metrics,
		validator:   params.Validator,
		logger:      params.Logger,
	}
}

// GetReportCard merges the student's enrollments with the grades of the term's report.
// Without a stored report every row is a placeholder.
func (s *ReportCardService) GetReportCard(ctx context.Context, q ReportCardQuery) (*ReportCardView, error) {
	if strings.TrimSpace(q.StudentID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	if strings.TrimSpace(q.Term) == "" || strings.TrimSpace(q.AcademicYear) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term and academicYear are required")
	}

	student, err := s.students.FindByID(ctx, q.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.DataFetch(err, "students", "student_id="+q.StudentID)
	}

	owned, err := s.ownedCourseIDs(ctx, q.ActorID)
	if err != nil {
		return nil, err
	}

	courses, err := s.enrollments.ResolveEnrollments(ctx, q.StudentID, owned)
	if err != nil {
		return nil, err
	}

	report, grades, err := s.loadReport(ctx, models.ReportKey{StudentID: q.StudentID, Term: q.Term, AcademicYear: q.AcademicYear})
	if err != nil {
		return nil, err
	}

	rows := MergeGrades(courses, grades)
	return &ReportCardView{Student: student, Report: report, Rows: rows, Summary: grading.Summarize(rows)}, nil
}

// SaveReportCard upserts the report by key, then each grade. Every grade must belong to a course
// the actor owns and the student is enrolled in; this is checked before anything is written.
// Grade failures after the report upsert yield a PARTIAL_WRITE error alongside the saved result.
func (s *ReportCardService) SaveReportCard(ctx context.Context, req SaveReportCardRequest, actorID string) (*SaveReportCardResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report card payload")
	}
	if err := checkDuplicateSubjects(req.Grades); err != nil {
		return nil, err
	}
	if err := checkTotals(req.Grades); err != nil {
		return nil, err
	}

	owned, err := s.ownedCourseIDs(ctx, actorID)
	if err != nil {
		return nil, err
	}
	courses, err := s.enrollments.ResolveEnrollments(ctx, req.StudentID, owned)
	if err != nil {
		return nil, err
	}
	if err := authorizeGrades(courses, req.Grades); err != nil {
		return nil, err
	}
	if !teachesAny(courses) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "current user teaches none of the student's subjects")
	}

	key := models.ReportKey{StudentID: req.StudentID, Term: req.Term, AcademicYear: req.AcademicYear}
	existing, stored, err := s.loadReport(ctx, key)
	if err != nil {
		return nil, err
	}

	incoming := make([]models.Grade, 0, len(req.Grades))
	for _, in := range req.Grades {
		incoming = append(incoming, buildGrade("", in))
	}
	summary := grading.Summarize(MergeGrades(courses, overlayGrades(stored, incoming)))

	report := &models.Report{
		StudentID:             req.StudentID,
		Term:                  req.Term,
		AcademicYear:          req.AcademicYear,
		TotalScore:            floatPtr(summary.TotalScore),
		OverallGrade:          stringPtr(summary.OverallGrade),
		Attendance:            req.Attendance,
		Conduct:               req.Conduct,
		ClassTeacherRemarks:   req.ClassTeacherRemarks,
		HeadTeacherRemarks:    req.HeadTeacherRemarks,
		ClassTeacherSignature: req.ClassTeacherSignature,
		HeadTeacherSignature:  req.HeadTeacherSignature,
	}
	keepNarrative(report, existing)
	if err := s.reports.Upsert(ctx, report); err != nil {
		s.logger.Error("report upsert failed", zap.String("student_id", req.StudentID), zap.String("term", req.Term), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save report")
	}

	result := &SaveReportCardResult{Report: report, Grades: make([]models.Grade, 0, len(incoming))}
	var failed []string
	var firstErr error
	for i := range incoming {
		grade := incoming[i]
		grade.ReportID = report.ID
		if err := s.grades.Upsert(ctx, &grade); err != nil {
			s.logger.Warn("grade upsert failed", zap.String("report_id", report.ID), zap.String("subject_id", grade.SubjectID), zap.Error(err))
			failed = append(failed, grade.SubjectID)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		result.Grades = append(result.Grades, grade)
	}

	s.metrics.RecordGradeWrites(len(result.Grades), len(failed))
	s.cache.InvalidateMissingGrades(ctx, req.Term, req.AcademicYear)

	if len(failed) > 0 {
		return result, appErrors.PartialWrite(firstErr, PartialWriteDetails{
			ReportID:          report.ID,
			FailedSubjectIDs:  failed,
			SavedSubjectIDs:   subjectIDs(result.Grades),
			ReportTotalsStale: true,
		})
	}
	return result, nil
}

// UpsertGrade writes one grade on an existing report and refreshes the report's totals.
func (s *ReportCardService) UpsertGrade(ctx context.Context, req UpsertGradeRequest, actorID string) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if err := checkTotals([]GradeInput{req.GradeInput}); err != nil {
		return nil, err
	}

	report, err := s.findReport(ctx, req.ReportID)
	if err != nil {
		return nil, err
	}
	owned, err := s.ownedCourseIDs(ctx, actorID)
	if err != nil {
		return nil, err
	}
	courses, err := s.enrollments.ResolveEnrollments(ctx, report.StudentID, owned)
	if err != nil {
		return nil, err
	}
	if err := authorizeGrades(courses, []GradeInput{req.GradeInput}); err != nil {
		return nil, err
	}

	grade := buildGrade(report.ID, req.GradeInput)
	if err := s.grades.Upsert(ctx, &grade); err != nil {
		s.metrics.RecordGradeWrites(0, 1)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grade")
	}
	s.metrics.RecordGradeWrites(1, 0)
	s.cache.InvalidateMissingGrades(ctx, report.Term, report.AcademicYear)

	if err := s.refreshTotals(ctx, report, courses); err != nil {
		return &grade, appErrors.PartialWrite(err, PartialWriteDetails{
			ReportID:          report.ID,
			SavedSubjectIDs:   []string{grade.SubjectID},
			ReportTotalsStale: true,
		})
	}
	return &grade, nil
}

// DeleteGrade removes the grade for (report, subject) when the actor owns the subject.
func (s *ReportCardService) DeleteGrade(ctx context.Context, reportID, subjectID, actorID string) error {
	if strings.TrimSpace(reportID) == "" || strings.TrimSpace(subjectID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "reportId and subjectId are required")
	}

	report, err := s.findReport(ctx, reportID)
	if err != nil {
		return err
	}
	owned, err := s.ownedCourseIDs(ctx, actorID)
	if err != nil {
		return err
	}
	if !contains(owned, subjectID) {
		return appErrors.Clone(appErrors.ErrForbidden, "subject is not taught by the current user")
	}

	if err := s.grades.Delete(ctx, reportID, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}
	s.cache.InvalidateMissingGrades(ctx, report.Term, report.AcademicYear)
	return nil
}

func (s *ReportCardService) ownedCourseIDs(ctx context.Context, actorID string) ([]string, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, nil
	}
	courses, err := s.owners.ListOwnedCourses(ctx, actorID)
	if err != nil {
		return nil, appErrors.DataFetch(err, "faculty_courses", "faculty_id="+actorID)
	}
	return courseIDs(courses), nil
}

func (s *ReportCardService) loadReport(ctx context.Context, key models.ReportKey) (*models.Report, []models.Grade, error) {
	report, err := s.reports.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, appErrors.DataFetch(err, "student_reports", "student_id="+key.StudentID, "term="+key.Term, "academic_year="+key.AcademicYear)
	}
	grades, err := s.grades.ListByReport(ctx, report.ID)
	if err != nil {
		return nil, nil, appErrors.DataFetch(err, "student_grades", "report_id="+report.ID)
	}
	return report, grades, nil
}

func (s *ReportCardService) findReport(ctx context.Context, id string) (*models.Report, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.DataFetch(err, "student_reports", "report_id="+id)
	}
	return report, nil
}

func (s *ReportCardService) refreshTotals(ctx context.Context, report *models.Report, courses []models.EnrolledCourse) error {
	grades, err := s.grades.ListByReport(ctx, report.ID)
	if err != nil {
		return err
	}
	summary := grading.Summarize(MergeGrades(courses, grades))
	report.TotalScore = floatPtr(summary.TotalScore)
	report.OverallGrade = stringPtr(summary.OverallGrade)
	return s.reports.Upsert(ctx, report)
}

func buildGrade(reportID string, in GradeInput) models.Grade {
	total := grading.Total(in.ClassScore, in.ExamScore)
	return models.Grade{
		ReportID:         reportID,
		SubjectID:        in.SubjectID,
		ClassScore:       in.ClassScore,
		ExamScore:        in.ExamScore,
		TotalScore:       floatPtr(total),
		Grade:            stringPtr(grading.LetterGrade(total)),
		Remark:           stringPtr(grading.Remark(total)),
		Position:         in.Position,
		TeacherRemark:    in.TeacherRemark,
		TeacherSignature: in.TeacherSignature,
	}
}

// overlayGrades replaces stored grades by subject with incoming ones.
func overlayGrades(stored, incoming []models.Grade) []models.Grade {
	out := make([]models.Grade, 0, len(stored)+len(incoming))
	replaced := make(map[string]struct{}, len(incoming))
	for _, g := range incoming {
		replaced[g.SubjectID] = struct{}{}
	}
	for _, g := range stored {
		if _, ok := replaced[g.SubjectID]; !ok {
			out = append(out, g)
		}
	}
	return append(out, incoming...)
}

func authorizeGrades(courses []models.EnrolledCourse, grades []GradeInput) error {
	byID := make(map[string]models.EnrolledCourse, len(courses))
	for _, c := range courses {
		byID[c.CourseID] = c
	}
	for _, g := range grades {
		course, ok := byID[g.SubjectID]
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, "student is not enrolled in subject "+g.SubjectID)
		}
		if !course.Editable {
			return appErrors.Clone(appErrors.ErrForbidden, "subject "+g.SubjectID+" is not taught by the current user")
		}
	}
	return nil
}

// keepNarrative fills fields the request left out from the stored report, so a subject
// teacher saving grades does not clear what others wrote.
func keepNarrative(report, existing *models.Report) {
	if existing == nil {
		return
	}
	report.Attendance = firstNonNil(report.Attendance, existing.Attendance)
	report.Conduct = firstNonNil(report.Conduct, existing.Conduct)
	report.ClassTeacherRemarks = firstNonNil(report.ClassTeacherRemarks, existing.ClassTeacherRemarks)
	report.HeadTeacherRemarks = firstNonNil(report.HeadTeacherRemarks, existing.HeadTeacherRemarks)
	report.ClassTeacherSignature = firstNonNil(report.ClassTeacherSignature, existing.ClassTeacherSignature)
	report.HeadTeacherSignature = firstNonNil(report.HeadTeacherSignature, existing.HeadTeacherSignature)
}

func firstNonNil(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func teachesAny(courses []models.EnrolledCourse) bool {
	for _, c := range courses {
		if c.Editable {
			return true
		}
	}
	return false
}

// checkTotals rejects score pairs whose total leaves the 0..100 grading range.
func checkTotals(grades []GradeInput) error {
	for _, g := range grades {
		if grading.Total(g.ClassScore, g.ExamScore) > 100 {
			return appErrors.Clone(appErrors.ErrValidation, "total score for subject "+g.SubjectID+" exceeds 100")
		}
	}
	return nil
}

func checkDuplicateSubjects(grades []GradeInput) error {
	seen := make(map[string]struct{}, len(grades))
	for _, g := range grades {
		if _, dup := seen[g.SubjectID]; dup {
			return appErrors.Clone(appErrors.ErrValidation, "duplicate subject "+g.SubjectID)
		}
		seen[g.SubjectID] = struct{}{}
	}
	return nil
}

func subjectIDs(grades []models.Grade) []string {
	ids := make([]string, len(grades))
	for i, g := range grades {
		ids[i] = g.SubjectID
	}
	return ids
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func floatPtr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }
