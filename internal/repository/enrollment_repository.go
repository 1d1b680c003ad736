package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-report-card-api/internal/models"
)

// EnrollmentRepository reads student_courses joined with courses and student profiles.
type EnrollmentRepository struct {
	db    *sqlx.DB
	timer queryTimer
}

// NewEnrollmentRepository constructs the repository. observer may be nil.
func NewEnrollmentRepository(db *sqlx.DB, observer QueryObserver) *EnrollmentRepository {
	return &EnrollmentRepository{db: db, timer: queryTimer{observer: observer}}
}

// ListEnrolledByStudent returns the student's enrolled courses ordered by course name then id.
func (r *EnrollmentRepository) ListEnrolledByStudent(ctx context.Context, studentID string) ([]models.StudentCourse, error) {
	defer r.timer.start("student_courses.list_by_student")()

	const query = `SELECT sc.id, sc.student_id, sc.course_id, sc.status, c.code AS course_code, c.name AS course_name
        FROM student_courses sc
        JOIN courses c ON c.id = sc.course_id
        WHERE sc.student_id = $1 AND sc.status = $2
        ORDER BY c.name ASC, c.id ASC`
	var rows []models.StudentCourse
	if err := r.db.SelectContext(ctx, &rows, query, studentID, models.EnrollmentStatusEnrolled); err != nil {
		return nil, fmt.Errorf("list enrollments for student: %w", err)
	}
	return rows, nil
}

// ListRostersByCourses returns enrolled students of every given course in one round trip,
// ordered by course, then student name, then student id.
func (r *EnrollmentRepository) ListRostersByCourses(ctx context.Context, courseIDs []string) ([]models.RosterEntry, error) {
	if len(courseIDs) == 0 {
		return []models.RosterEntry{}, nil
	}
	defer r.timer.start("student_courses.list_rosters")()

	const query = `SELECT sc.course_id, s.id AS student_id, p.full_name AS student_name, COALESCE(s.class_year, '') AS class_year
        FROM student_courses sc
        JOIN students s ON s.id = sc.student_id
        JOIN profiles p ON p.id = s.id
        WHERE sc.course_id = ANY($1) AND sc.status = $2
        ORDER BY sc.course_id ASC, p.full_name ASC, s.id ASC`
	var rows []models.RosterEntry
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(courseIDs), models.EnrollmentStatusEnrolled); err != nil {
		return nil, fmt.Errorf("list course rosters: %w", err)
	}
	return rows, nil
}
