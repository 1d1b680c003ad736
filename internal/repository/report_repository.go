package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-report-card-api/internal/models"
)

// ReportRepository persists student_reports rows.
type ReportRepository struct {
	db    *sqlx.DB
	timer queryTimer
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB, observer QueryObserver) *ReportRepository {
	return &ReportRepository{db: db, timer: queryTimer{observer: observer}}
}

const reportColumns = `id, student_id, term, academic_year, total_score, overall_grade, attendance, conduct,
        class_teacher_remarks, head_teacher_remarks, class_teacher_signature, head_teacher_signature, created_at, updated_at`

// FindByKey loads the report for (student, term, academic year). sql.ErrNoRows is wrapped when absent.
func (r *ReportRepository) FindByKey(ctx context.Context, key models.ReportKey) (*models.Report, error) {
	defer r.timer.start("student_reports.find_by_key")()

	query := `SELECT ` + reportColumns + `
        FROM student_reports WHERE student_id = $1 AND term = $2 AND academic_year = $3`
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, key.StudentID, key.Term, key.AcademicYear); err != nil {
		return nil, fmt.Errorf("find report by key: %w", err)
	}
	return &report, nil
}

// FindByID loads a report by id. sql.ErrNoRows is wrapped when absent.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.Report, error) {
	defer r.timer.start("student_reports.find")()

	query := `SELECT ` + reportColumns + `
        FROM student_reports WHERE id = $1`
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, fmt.Errorf("find report: %w", err)
	}
	return &report, nil
}

// Upsert inserts the report or replaces the summary fields of the existing row with the same key.
// The stored id and timestamps are written back to report.
func (r *ReportRepository) Upsert(ctx context.Context, report *models.Report) error {
	defer r.timer.start("student_reports.upsert")()

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	const query = `INSERT INTO student_reports (id, student_id, term, academic_year, total_score, overall_grade, attendance, conduct,
        class_teacher_remarks, head_teacher_remarks, class_teacher_signature, head_teacher_signature, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
        ON CONFLICT (student_id, term, academic_year)
        DO UPDATE SET total_score = EXCLUDED.total_score, overall_grade = EXCLUDED.overall_grade,
            attendance = EXCLUDED.attendance, conduct = EXCLUDED.conduct,
            class_teacher_remarks = EXCLUDED.class_teacher_remarks, head_teacher_remarks = EXCLUDED.head_teacher_remarks,
            class_teacher_signature = EXCLUDED.class_teacher_signature, head_teacher_signature = EXCLUDED.head_teacher_signature,
            updated_at = EXCLUDED.updated_at
        RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query,
		report.ID, report.StudentID, report.Term, report.AcademicYear, report.TotalScore, report.OverallGrade,
		report.Attendance, report.Conduct, report.ClassTeacherRemarks, report.HeadTeacherRemarks,
		report.ClassTeacherSignature, report.HeadTeacherSignature, now)
	if err := row.Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt); err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	return nil
}
