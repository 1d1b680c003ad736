package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-card-api/internal/models"
	appErrors "github.com/noah-isme/sma-report-card-api/pkg/errors"
)

type enrollmentReader interface {
	ListEnrolledByStudent(ctx context.Context, studentID string) ([]models.StudentCourse, error)
}

// EnrollmentService resolves a student's enrolled courses with the acting teacher's edit permission.
type EnrollmentService struct {
	enrollments enrollmentReader
	logger      *zap.Logger
}

// NewEnrollmentService constructs the resolver.
func NewEnrollmentService(enrollments enrollmentReader, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{enrollments: enrollments, logger: logger}
}

// ResolveEnrollments returns every enrolled course of the student in store order. A course is
// editable iff it is one of ownedCourseIDs; courses owned by other teachers stay read-only.
func (s *EnrollmentService) ResolveEnrollments(ctx context.Context, studentID string, ownedCourseIDs []string) ([]models.EnrolledCourse, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}

	rows, err := s.enrollments.ListEnrolledByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("fetch enrollments failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, appErrors.DataFetch(err, "student_courses", "student_id="+studentID)
	}

	owned := make(map[string]struct{}, len(ownedCourseIDs))
	for _, id := range ownedCourseIDs {
		owned[id] = struct{}{}
	}

	courses := make([]models.EnrolledCourse, 0, len(rows))
	for _, row := range rows {
		_, editable := owned[row.CourseID]
		courses = append(courses, models.EnrolledCourse{
			CourseID:   row.CourseID,
			CourseName: row.CourseName,
			CourseCode: row.CourseCode,
			Editable:   editable,
		})
	}
	return courses, nil
}

// MergeGrades pairs every enrolled course with its stored grade or a placeholder.
// The result has one row per enrollment, in enrollment order. Grades for subjects
// the student is not enrolled in are dropped.
func MergeGrades(enrollments []models.EnrolledCourse, grades []models.Grade) []models.SubjectRow {
	bySubject := make(map[string]models.Grade, len(grades))
	for _, g := range grades {
		bySubject[g.SubjectID] = g
	}

	rows := make([]models.SubjectRow, 0, len(enrollments))
	for _, course := range enrollments {
		if g, ok := bySubject[course.CourseID]; ok {
			rows = append(rows, models.ExistingRow{Course: course, Grade: g})
			continue
		}
		rows = append(rows, models.PlaceholderRow{Course: course, RowKey: uuid.NewString()})
	}
	return rows
}
