package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-report-card-api/internal/models"
)

// OwnershipRepository resolves which courses a faculty member teaches.
type OwnershipRepository struct {
	db    *sqlx.DB
	timer queryTimer
}

// NewOwnershipRepository constructs the repository.
func NewOwnershipRepository(db *sqlx.DB, observer QueryObserver) *OwnershipRepository {
	return &OwnershipRepository{db: db, timer: queryTimer{observer: observer}}
}

// ListOwnedCourses returns the courses taught by the faculty member in a stable order.
func (r *OwnershipRepository) ListOwnedCourses(ctx context.Context, facultyID string) ([]models.Course, error) {
	defer r.timer.start("faculty_courses.list_owned")()

	const query = `SELECT DISTINCT c.id, c.code, c.name
        FROM faculty_courses fc
        JOIN courses c ON c.id = fc.course_id
        WHERE fc.faculty_id = $1
        ORDER BY c.name ASC, c.id ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, facultyID); err != nil {
		return nil, fmt.Errorf("list owned courses: %w", err)
	}
	return courses, nil
}
