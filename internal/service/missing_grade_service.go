package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-card-api/internal/models"
	appErrors "github.com/noah-isme/sma-report-card-api/pkg/errors"
)

type ownershipReader interface {
	ListOwnedCourses(ctx context.Context, facultyID string) ([]models.Course, error)
}

type rosterReader interface {
	ListRostersByCourses(ctx context.Context, courseIDs []string) ([]models.RosterEntry, error)
}

type scoreReader interface {
	ListScoresForTerm(ctx context.Context, term, academicYear string, subjectIDs []string) ([]models.GradeScore, error)
}

// MissingGradeQuery scopes a missing-grade lookup to one teacher and term.
type MissingGradeQuery struct {
	TeacherID    string
	Term         string
	AcademicYear string
}

// MissingGradeService finds students lacking an entered grade in the courses a teacher owns.
type MissingGradeService struct {
	owners   ownershipReader
	rosters  rosterReader
	scores   scoreReader
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewMissingGradeService constructs the detector service. cache may be nil.
func NewMissingGradeService(owners ownershipReader, rosters rosterReader, scores scoreReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *MissingGradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MissingGradeService{owners: owners, rosters: rosters, scores: scores, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Find returns one entry per student with at least one missing course and reports whether the cache served it.
func (s *MissingGradeService) Find(ctx context.Context, q MissingGradeQuery) ([]models.MissingGradeEntry, bool, error) {
	if strings.TrimSpace(q.TeacherID) == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "teacherId is required")
	}
	if strings.TrimSpace(q.Term) == "" || strings.TrimSpace(q.AcademicYear) == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "term and academicYear are required")
	}

	key := MissingGradesKey(q.TeacherID, q.Term, q.AcademicYear)
	var cached []models.MissingGradeEntry
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}

	courses, err := s.owners.ListOwnedCourses(ctx, q.TeacherID)
	if err != nil {
		return nil, false, appErrors.DataFetch(err, "faculty_courses", "faculty_id="+q.TeacherID)
	}
	if len(courses) == 0 {
		return []models.MissingGradeEntry{}, false, nil
	}

	ids := courseIDs(courses)
	rosters, err := s.rosters.ListRostersByCourses(ctx, ids)
	if err != nil {
		return nil, false, appErrors.DataFetch(err, "student_courses", "course_ids="+strings.Join(ids, ","))
	}
	scores, err := s.scores.ListScoresForTerm(ctx, q.Term, q.AcademicYear, ids)
	if err != nil {
		return nil, false, appErrors.DataFetch(err, "student_grades", "term="+q.Term, "academic_year="+q.AcademicYear)
	}

	entries := DetectMissingGrades(courses, rosters, scores)
	if err := s.cache.Set(ctx, key, entries, s.cacheTTL); err != nil {
		s.logger.Warn("missing grades cache write failed", zap.String("key", key), zap.Error(err))
	}
	return entries, false, nil
}

// DetectMissingGrades groups (student, course) pairs without an entered grade by student.
// Courses are visited in the given order and students in roster order; each student's
// course list keeps first-seen order.
func DetectMissingGrades(courses []models.Course, rosters []models.RosterEntry, scores []models.GradeScore) []models.MissingGradeEntry {
	type pair struct{ student, course string }
	entered := make(map[pair]struct{}, len(scores))
	for _, sc := range scores {
		if sc.Entered() {
			entered[pair{sc.StudentID, sc.SubjectID}] = struct{}{}
		}
	}

	byCourse := make(map[string][]models.RosterEntry, len(courses))
	for _, r := range rosters {
		byCourse[r.CourseID] = append(byCourse[r.CourseID], r)
	}

	index := make(map[string]int)
	entries := make([]models.MissingGradeEntry, 0)
	for _, course := range courses {
		for _, student := range byCourse[course.ID] {
			if _, ok := entered[pair{student.StudentID, course.ID}]; ok {
				continue
			}
			i, seen := index[student.StudentID]
			if !seen {
				i = len(entries)
				index[student.StudentID] = i
				entries = append(entries, models.MissingGradeEntry{
					StudentID:   student.StudentID,
					StudentName: student.StudentName,
					ClassYear:   student.ClassYear,
				})
			}
			entries[i].Courses = append(entries[i].Courses, course)
		}
	}
	return entries
}

func courseIDs(courses []models.Course) []string {
	ids := make([]string, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	return ids
}
