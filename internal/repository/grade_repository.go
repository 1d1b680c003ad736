package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-report-card-api/internal/models"
)

// GradeRepository persists student_grades rows.
type GradeRepository struct {
	db    *sqlx.DB
	timer queryTimer
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB, observer QueryObserver) *GradeRepository {
	return &GradeRepository{db: db, timer: queryTimer{observer: observer}}
}

// ListByReport returns every grade of the report ordered by subject id.
func (r *GradeRepository) ListByReport(ctx context.Context, reportID string) ([]models.Grade, error) {
	defer r.timer.start("student_grades.list_by_report")()

	const query = `SELECT id, report_id, subject_id, class_score, exam_score, total_score, grade, remark, position,
        teacher_remark, teacher_signature, created_at, updated_at
        FROM student_grades WHERE report_id = $1 ORDER BY subject_id ASC`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, reportID); err != nil {
		return nil, fmt.Errorf("list grades by report: %w", err)
	}
	return grades, nil
}

// Upsert inserts or replaces the grade for (report, subject). The stored id and timestamps are written back.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	defer r.timer.start("student_grades.upsert")()

	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	const query = `INSERT INTO student_grades (id, report_id, subject_id, class_score, exam_score, total_score, grade, remark,
        position, teacher_remark, teacher_signature, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
        ON CONFLICT (report_id, subject_id)
        DO UPDATE SET class_score = EXCLUDED.class_score, exam_score = EXCLUDED.exam_score, total_score = EXCLUDED.total_score,
            grade = EXCLUDED.grade, remark = EXCLUDED.remark, position = EXCLUDED.position,
            teacher_remark = EXCLUDED.teacher_remark, teacher_signature = EXCLUDED.teacher_signature,
            updated_at = EXCLUDED.updated_at
        RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query,
		grade.ID, grade.ReportID, grade.SubjectID, grade.ClassScore, grade.ExamScore, grade.TotalScore,
		grade.Grade, grade.Remark, grade.Position, grade.TeacherRemark, grade.TeacherSignature, now)
	if err := row.Scan(&grade.ID, &grade.CreatedAt, &grade.UpdatedAt); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}

// Delete removes the grade for (report, subject). sql.ErrNoRows is returned when nothing matched.
func (r *GradeRepository) Delete(ctx context.Context, reportID, subjectID string) error {
	defer r.timer.start("student_grades.delete")()

	res, err := r.db.ExecContext(ctx, `DELETE FROM student_grades WHERE report_id = $1 AND subject_id = $2`, reportID, subjectID)
	if err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete grade rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListScoresForTerm returns score projections for the given subjects across all reports of the term.
func (r *GradeRepository) ListScoresForTerm(ctx context.Context, term, academicYear string, subjectIDs []string) ([]models.GradeScore, error) {
	if len(subjectIDs) == 0 {
		return []models.GradeScore{}, nil
	}
	defer r.timer.start("student_grades.list_scores_for_term")()

	const query = `SELECT sr.student_id, sg.subject_id, sg.class_score, sg.exam_score, sg.total_score
        FROM student_grades sg
        JOIN student_reports sr ON sr.id = sg.report_id
        WHERE sr.term = $1 AND sr.academic_year = $2 AND sg.subject_id = ANY($3)`
	var scores []models.GradeScore
	if err := r.db.SelectContext(ctx, &scores, query, term, academicYear, pq.Array(subjectIDs)); err != nil {
		return nil, fmt.Errorf("list scores for term: %w", err)
	}
	return scores, nil
}
