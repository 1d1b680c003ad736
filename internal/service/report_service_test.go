package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-report-card-api/internal/models"
	appErrors "github.com/noah-isme/sma-report-card-api/pkg/errors"
)

type fakeStudentRepo struct {
	student *models.Student
	err     error
}

func (f *fakeStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.student == nil {
		return nil, fmt.Errorf("find student: %w", sql.ErrNoRows)
	}
	return f.student, nil
}

type fakeReportStore struct {
	byKey     map[models.ReportKey]*models.Report
	upserts   int
	upsertErr error
	findErr   error
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{byKey: map[models.ReportKey]*models.Report{}}
}

func (f *fakeReportStore) FindByID(ctx context.Context, id string) (*models.Report, error) {
	for _, r := range f.byKey {
		if r.ID == id {
			clone := *r
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("find report: %w", sql.ErrNoRows)
}

func (f *fakeReportStore) FindByKey(ctx context.Context, key models.ReportKey) (*models.Report, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	r, ok := f.byKey[key]
	if !ok {
		return nil, fmt.Errorf("find report by key: %w", sql.ErrNoRows)
	}
	clone := *r
	return &clone, nil
}

func (f *fakeReportStore) Upsert(ctx context.Context, report *models.Report) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	now := time.Now()
	if existing, ok := f.byKey[report.Key()]; ok {
		report.ID = existing.ID
		report.CreatedAt = existing.CreatedAt
	} else {
		report.ID = fmt.Sprintf("rep-%d", len(f.byKey)+1)
		report.CreatedAt = now
	}
	report.UpdatedAt = now
	clone := *report
	f.byKey[report.Key()] = &clone
	return nil
}

type fakeGradeStore struct {
	grades    map[string]map[string]models.Grade
	failOn    map[string]bool
	listErr   error
	deleteErr error
}

func newFakeGradeStore() *fakeGradeStore {
	return &fakeGradeStore{grades: map[string]map[string]models.Grade{}, failOn: map[string]bool{}}
}

func (f *fakeGradeStore) ListByReport(ctx context.Context, reportID string) ([]models.Grade, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Grade, 0, len(f.grades[reportID]))
	for _, g := range f.grades[reportID] {
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeGradeStore) Upsert(ctx context.Context, grade *models.Grade) error {
	if f.failOn[grade.SubjectID] {
		return errors.New("constraint violation")
	}
	if f.grades[grade.ReportID] == nil {
		f.grades[grade.ReportID] = map[string]models.Grade{}
	}
	if existing, ok := f.grades[grade.ReportID][grade.SubjectID]; ok {
		grade.ID = existing.ID
	} else {
		grade.ID = "g-" + grade.SubjectID
	}
	f.grades[grade.ReportID][grade.SubjectID] = *grade
	return nil
}

func (f *fakeGradeStore) Delete(ctx context.Context, reportID, subjectID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.grades[reportID][subjectID]; !ok {
		return sql.ErrNoRows
	}
	delete(f.grades[reportID], subjectID)
	return nil
}

type reportFixture struct {
	svc     *ReportCardService
	owners  *fakeOwnershipRepo
	reports *fakeReportStore
	grades  *fakeGradeStore
	cache   *memoryCache
	enroll  *fakeEnrollmentRepo
}

// Student stu-1 is enrolled in eng, mth and sci; teacher-1 teaches eng and mth.
func newReportFixture() *reportFixture {
	enroll := &fakeEnrollmentRepo{rows: studentCourses("eng", "mth", "sci")}
	reports := newFakeReportStore()
	grades := newFakeGradeStore()
	cache := newMemoryCache()
	owners := &fakeOwnershipRepo{courses: []models.Course{{ID: "eng"}, {ID: "mth"}}}
	svc := NewReportCardService(ReportCardServiceParams{
		Students:    &fakeStudentRepo{student: &models.Student{ID: "stu-1", FullName: "Ama Mensah", ClassYear: "JHS 2"}},
		Owners:      owners,
		Enrollments: NewEnrollmentService(enroll, nil),
		Reports:     reports,
		Grades:      grades,
		Cache:       NewCacheService(cache, nil, time.Minute, nil, true),
		Metrics:     NewMetricsService(),
	})
	return &reportFixture{svc: svc, owners: owners, reports: reports, grades: grades, cache: cache, enroll: enroll}
}

func f64(v float64) *float64 { return &v }

func str(v string) *string { return &v }

func baseSaveRequest() SaveReportCardRequest {
	return SaveReportCardRequest{StudentID: "stu-1", Term: "Term 1", AcademicYear: "2024-2025"}
}

func TestGetReportCardWithoutReportReturnsPlaceholders(t *testing.T) {
	fx := newReportFixture()

	view, err := fx.svc.GetReportCard(context.Background(), ReportCardQuery{StudentID: "stu-1", Term: "Term 1", AcademicYear: "2024-2025", ActorID: "teacher-1"})
	require.NoError(t, err)
	assert.Nil(t, view.Report)
	assert.Equal(t, "Ama Mensah", view.Student.FullName)
	require.Len(t, view.Rows, 3)
	for _, row := range view.Rows {
		_, ok := row.(models.PlaceholderRow)
		assert.True(t, ok)
	}
	assert.True(t, view.Rows[0].Subject().Editable)
	assert.False(t, view.Rows[2].Subject().Editable)
	assert.Equal(t, "0.00", view.Summary.AverageDisplay)
	assert.Equal(t, "F9", view.Summary.OverallGrade)
}

func TestGetReportCardMergesStoredGrades(t *testing.T) {
	fx := newReportFixture()
	req := baseSaveRequest()
	req.Grades = []GradeInput{{SubjectID: "eng", ClassScore: f64(25), ExamScore: f64(65)}}
	_, err := fx.svc.SaveReportCard(context.Background(), req, "teacher-1")
	require.NoError(t, err)

	view, err := fx.svc.GetReportCard(context.Background(), ReportCardQuery{StudentID: "stu-1", Term: "Term 1", AcademicYear: "2024-2025"})
	require.NoError(t, err)
	require.NotNil(t, view.Report)
	require.Len(t, view.Rows, 3)

	existing, ok := view.Rows[0].(models.ExistingRow)
	require.True(t, ok)
	assert.Equal(t, 90.0, *existing.Grade.TotalScore)
	assert.False(t, existing.Course.Editable, "no actor means read-only")
	assert.Equal(t, 90.0, view.Summary.AverageScore)
	assert.Equal(t, "A1", view.Summary.OverallGrade)
}

func TestGetReportCardErrors(t *testing.T) {
	fx := newReportFixture()

	_, err := fx.svc.GetReportCard(context.Background(), ReportCardQuery{Term: "Term 1", AcademicYear: "2024-2025"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = fx.svc.GetReportCard(context.Background(), ReportCardQuery{StudentID: "stu-1"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	fx.reports.findErr = errors.New("connection reset")
	_, err = fx.svc.GetReportCard(context.Background(), ReportCardQuery{StudentID: "stu-1", Term: "Term 1", AcademicYear: "2024-2025"})
	require.True(t, errors.Is(err, appErrors.ErrDataFetch))
	assert.Contains(t, err.Error(), "student_reports")

	missing := NewReportCardService(ReportCardServiceParams{Students: &fakeStudentRepo{}})
	_, err = missing.GetReportCard(context.Background(), ReportCardQuery{StudentID: "ghost", Term: "Term 1", AcademicYear: "2024-2025"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestSaveReportCardComputesTotals(t *testing.T) {
	fx := newReportFixture()
	req := baseSaveRequest()
	req.Grades = []GradeInput{{SubjectID: "mth", ClassScore: f64(55), ExamScore: f64(30)}}

	result, err := fx.svc.SaveReportCard(context.Background(), req, "teacher-1")
	require.NoError(t, err)
	require.Len(t, result.Grades, 1)

	grade := result.Grades[0]
	assert.Equal(t, result.Report.ID, grade.ReportID)
	assert.Equal(t, 85.0, *grade.TotalScore)
	assert.Equal(t, "B2", *grade.Grade)
	assert.Equal(t, "Very Good", *grade.Remark)
	assert.Equal(t, 85.0, *result.Report.TotalScore)
	assert.Equal(t, "B2", *result.Report.OverallGrade)
}

func TestSaveReportCardUpsertIsIdempotentByKey(t *testing.T) {
	fx := newReportFixture()

	first := baseSaveRequest()
	first.Attendance = str("50/60")
	r1, err := fx.svc.SaveReportCard(context.Background(), first, "teacher-1")
	require.NoError(t, err)

	second := baseSaveRequest()
	second.Attendance = str("58/60")
	r2, err := fx.svc.SaveReportCard(context.Background(), second, "teacher-1")
	require.NoError(t, err)

	assert.Equal(t, r1.Report.ID, r2.Report.ID)
	assert.Len(t, fx.reports.byKey, 1)
	stored := fx.reports.byKey[models.ReportKey{StudentID: "stu-1", Term: "Term 1", AcademicYear: "2024-2025"}]
	assert.Equal(t, "58/60", *stored.Attendance)
}

func TestSaveReportCardRejectsUnownedSubjectBeforeWriting(t *testing.T) {
	fx := newReportFixture()
	req := baseSaveRequest()
	req.Grades = []GradeInput{{SubjectID: "eng", ClassScore: f64(20)}, {SubjectID: "sci", ClassScore: f64(20)}}

	_, err := fx.svc.SaveReportCard(context.Background(), req, "teacher-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	assert.Zero(t, fx.reports.upserts)
	assert.Empty(t, fx.grades.grades)
}

func TestSaveReportCardRejectsInvalidPayload(t *testing.T) {
	fx := newReportFixture()

	cases := map[string]SaveReportCardRequest{
		"missing student": {Term: "Term 1", AcademicYear: "2024-2025"},
		"score too high":  {StudentID: "stu-1", Term: "Term 1", AcademicYear: "2024-2025", Grades: []GradeInput{{SubjectID: "eng", ExamScore: f64(120)}}},
		"not enrolled":    {StudentID: "stu-1", Term: "Term 1", AcademicYear: "2024-2025", Grades: []GradeInput{{SubjectID: "art"}}},
		"duplicate":       {StudentID: "stu-1", Term: "Term 1", AcademicYear: "2024-2025", Grades: []GradeInput{{SubjectID: "eng"}, {SubjectID: "eng"}}},
		"total over 100":  {StudentID: "stu-1", Term: "Term 1", AcademicYear: "2024-2025", Grades: []GradeInput{{SubjectID: "eng", ClassScore: f64(60), ExamScore: f64(60)}}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fx.svc.SaveReportCard(context.Background(), req, "teacher-1")
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrValidation))
		})
	}
	assert.Zero(t, fx.reports.upserts)
}

func TestSaveReportCardKeepsNarrativeFromOtherTeachers(t *testing.T) {
	fx := newReportFixture()
	fx.owners.byFaculty = map[string][]models.Course{
		"teacher-eng": {{ID: "eng"}},
		"teacher-sci": {{ID: "sci"}},
	}

	first := baseSaveRequest()
	first.Attendance = str("58/60")
	first.HeadTeacherRemarks = str("Promoted")
	first.Grades = []GradeInput{{SubjectID: "eng", ClassScore: f64(30), ExamScore: f64(50)}}
	_, err := fx.svc.SaveReportCard(context.Background(), first, "teacher-eng")
	require.NoError(t, err)

	second := baseSaveRequest()
	second.Grades = []GradeInput{{SubjectID: "sci", ClassScore: f64(20), ExamScore: f64(40)}}
	result, err := fx.svc.SaveReportCard(context.Background(), second, "teacher-sci")
	require.NoError(t, err)

	stored := fx.reports.byKey[result.Report.Key()]
	require.NotNil(t, stored.Attendance)
	assert.Equal(t, "58/60", *stored.Attendance)
	require.NotNil(t, stored.HeadTeacherRemarks)
	assert.Equal(t, "Promoted", *stored.HeadTeacherRemarks)
	assert.Nil(t, stored.Conduct)
	assert.Equal(t, 140.0, *stored.TotalScore)
	assert.Len(t, fx.grades.grades[result.Report.ID], 2)
}

func TestSaveReportCardRejectsActorTeachingNoSubjects(t *testing.T) {
	fx := newReportFixture()
	first := baseSaveRequest()
	first.HeadTeacherRemarks = str("Promoted")
	_, err := fx.svc.SaveReportCard(context.Background(), first, "teacher-1")
	require.NoError(t, err)
	require.Equal(t, 1, fx.reports.upserts)

	fx.owners.byFaculty = map[string][]models.Course{"teacher-outside": {{ID: "art"}}}
	req := baseSaveRequest()
	req.HeadTeacherRemarks = str("overwritten")
	_, err = fx.svc.SaveReportCard(context.Background(), req, "teacher-outside")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	assert.Equal(t, 1, fx.reports.upserts)

	stored := fx.reports.byKey[models.ReportKey{StudentID: "stu-1", Term: "Term 1", AcademicYear: "2024-2025"}]
	assert.Equal(t, "Promoted", *stored.HeadTeacherRemarks)
}

func TestUpsertGradeRejectsTotalOverHundred(t *testing.T) {
	fx := newReportFixture()
	saved, err := fx.svc.SaveReportCard(context.Background(), baseSaveRequest(), "teacher-1")
	require.NoError(t, err)

	_, err = fx.svc.UpsertGrade(context.Background(), UpsertGradeRequest{
		ReportID:   saved.Report.ID,
		GradeInput: GradeInput{SubjectID: "eng", ClassScore: f64(60), ExamScore: f64(60)},
	}, "teacher-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, fx.grades.grades[saved.Report.ID])
}

func TestSaveReportCardReportsPartialWrite(t *testing.T) {
	fx := newReportFixture()
	fx.grades.failOn["mth"] = true
	req := baseSaveRequest()
	req.Grades = []GradeInput{{SubjectID: "eng", ClassScore: f64(30)}, {SubjectID: "mth", ClassScore: f64(40)}}

	result, err := fx.svc.SaveReportCard(context.Background(), req, "teacher-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPartialWrite))
	require.NotNil(t, result)
	require.Len(t, result.Grades, 1)
	assert.Equal(t, "eng", result.Grades[0].SubjectID)

	details, ok := appErrors.FromError(err).Details.(PartialWriteDetails)
	require.True(t, ok)
	assert.Equal(t, result.Report.ID, details.ReportID)
	assert.Equal(t, []string{"mth"}, details.FailedSubjectIDs)
	assert.Equal(t, []string{"eng"}, details.SavedSubjectIDs)
}

func TestSaveReportCardReportFailureIsNotPartial(t *testing.T) {
	fx := newReportFixture()
	fx.reports.upsertErr = errors.New("deadlock")
	req := baseSaveRequest()
	req.Grades = []GradeInput{{SubjectID: "eng", ClassScore: f64(30)}}

	_, err := fx.svc.SaveReportCard(context.Background(), req, "teacher-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
	assert.Empty(t, fx.grades.grades)
}

func TestSaveReportCardInvalidatesMissingGradeCache(t *testing.T) {
	fx := newReportFixture()
	fx.cache.entries[MissingGradesKey("teacher-1", "Term 1", "2024-2025")] = []models.MissingGradeEntry{}

	_, err := fx.svc.SaveReportCard(context.Background(), baseSaveRequest(), "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"missing-grades:Term%201:2024-2025:*"}, fx.cache.deleted)
	assert.Empty(t, fx.cache.entries)
}

func TestUpsertGradeRefreshesReportTotals(t *testing.T) {
	fx := newReportFixture()
	saved, err := fx.svc.SaveReportCard(context.Background(), baseSaveRequest(), "teacher-1")
	require.NoError(t, err)

	grade, err := fx.svc.UpsertGrade(context.Background(), UpsertGradeRequest{
		ReportID:   saved.Report.ID,
		GradeInput: GradeInput{SubjectID: "eng", ClassScore: f64(30), ExamScore: f64(40)},
	}, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, 70.0, *grade.TotalScore)
	assert.Equal(t, "B3", *grade.Grade)

	stored := fx.reports.byKey[saved.Report.Key()]
	assert.Equal(t, 70.0, *stored.TotalScore)
	assert.Equal(t, "B3", *stored.OverallGrade)
}

func TestUpsertGradeChecksOwnershipAndReport(t *testing.T) {
	fx := newReportFixture()
	saved, err := fx.svc.SaveReportCard(context.Background(), baseSaveRequest(), "teacher-1")
	require.NoError(t, err)

	_, err = fx.svc.UpsertGrade(context.Background(), UpsertGradeRequest{ReportID: saved.Report.ID, GradeInput: GradeInput{SubjectID: "sci"}}, "teacher-1")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = fx.svc.UpsertGrade(context.Background(), UpsertGradeRequest{ReportID: "missing", GradeInput: GradeInput{SubjectID: "eng"}}, "teacher-1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestUpsertGradeTotalsFailureIsPartial(t *testing.T) {
	fx := newReportFixture()
	saved, err := fx.svc.SaveReportCard(context.Background(), baseSaveRequest(), "teacher-1")
	require.NoError(t, err)
	fx.grades.listErr = errors.New("read replica down")

	grade, err := fx.svc.UpsertGrade(context.Background(), UpsertGradeRequest{ReportID: saved.Report.ID, GradeInput: GradeInput{SubjectID: "eng", ClassScore: f64(10)}}, "teacher-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPartialWrite))
	require.NotNil(t, grade)
	assert.Equal(t, "eng", grade.SubjectID)
}

func TestDeleteGrade(t *testing.T) {
	fx := newReportFixture()
	req := baseSaveRequest()
	req.Grades = []GradeInput{{SubjectID: "eng", ClassScore: f64(30)}}
	saved, err := fx.svc.SaveReportCard(context.Background(), req, "teacher-1")
	require.NoError(t, err)

	require.NoError(t, fx.svc.DeleteGrade(context.Background(), saved.Report.ID, "eng", "teacher-1"))
	assert.Empty(t, fx.grades.grades[saved.Report.ID])

	err = fx.svc.DeleteGrade(context.Background(), saved.Report.ID, "eng", "teacher-1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	err = fx.svc.DeleteGrade(context.Background(), saved.Report.ID, "sci", "teacher-1")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	err = fx.svc.DeleteGrade(context.Background(), "", "eng", "teacher-1")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
