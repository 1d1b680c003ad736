package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-report-card-api/internal/models"
)

// StudentRepository reads student profiles.
type StudentRepository struct {
	db    *sqlx.DB
	timer queryTimer
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB, observer QueryObserver) *StudentRepository {
	return &StudentRepository{db: db, timer: queryTimer{observer: observer}}
}

// FindByID returns the student joined with its profile. sql.ErrNoRows is wrapped when absent.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	defer r.timer.start("students.find")()

	const query = `SELECT s.id, p.full_name, COALESCE(s.class_year, '') AS class_year, s.student_number, p.email
        FROM students s
        JOIN profiles p ON p.id = s.id
        WHERE s.id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}
