package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-report-card-api/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestGradeRepositoryListByReport(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db, nil)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "report_id", "subject_id", "class_score", "exam_score", "total_score", "grade", "remark", "position",
		"teacher_remark", "teacher_signature", "created_at", "updated_at"}).
		AddRow("g-1", "rep-1", "course-a", 25.0, 60.0, 85.0, "B2", "Very Good", nil, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM student_grades WHERE report_id = $1")).
		WithArgs("rep-1").
		WillReturnRows(rows)

	grades, err := repo.ListByReport(context.Background(), "rep-1")
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, 85.0, *grades[0].TotalScore)
	assert.Nil(t, grades[0].Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db, nil)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (report_id, subject_id)")).
		WithArgs(sqlmock.AnyArg(), "rep-1", "course-a", 55.0, 30.0, 85.0, "B2", "Very Good", nil, nil, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("g-existing", now, now))

	grade := &models.Grade{
		ReportID:   "rep-1",
		SubjectID:  "course-a",
		ClassScore: floatPtr(55),
		ExamScore:  floatPtr(30),
		TotalScore: floatPtr(85),
		Grade:      strPtr("B2"),
		Remark:     strPtr("Very Good"),
	}
	require.NoError(t, repo.Upsert(context.Background(), grade))
	assert.Equal(t, "g-existing", grade.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db, nil)

	query := regexp.QuoteMeta("DELETE FROM student_grades WHERE report_id = $1 AND subject_id = $2")
	mock.ExpectExec(query).WithArgs("rep-1", "course-a").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("rep-1", "course-z").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "rep-1", "course-a"))
	err := repo.Delete(context.Background(), "rep-1", "course-z")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryListScoresForTerm(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db, nil)

	rows := sqlmock.NewRows([]string{"student_id", "subject_id", "class_score", "exam_score", "total_score"}).
		AddRow("stu-1", "course-a", 70.0, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE sr.term = $1 AND sr.academic_year = $2 AND sg.subject_id = ANY($3)")).
		WithArgs("Term 1", "2024-2025", pq.Array([]string{"course-a", "course-b"})).
		WillReturnRows(rows)

	scores, err := repo.ListScoresForTerm(context.Background(), "Term 1", "2024-2025", []string{"course-a", "course-b"})
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.True(t, scores[0].Entered())
	assert.NoError(t, mock.ExpectationsWereMet())
}
