package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-card-api/internal/models"
	appErrors "github.com/noah-isme/sma-report-card-api/pkg/errors"
	"github.com/noah-isme/sma-report-card-api/pkg/jobs"
)

// JobTypeMissingGrades labels missing-grade notification jobs.
const JobTypeMissingGrades = "missing_grades_notification"

type notificationWriter interface {
	Create(ctx context.Context, n *models.Notification) error
}

type missingGradeFinder interface {
	Find(ctx context.Context, q MissingGradeQuery) ([]models.MissingGradeEntry, bool, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotificationService turns missing-grade results into dashboard notifications off the request path.
type NotificationService struct {
	finder  missingGradeFinder
	writer  notificationWriter
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the service. Call SetQueue before NotifyMissingGrades.
func NewNotificationService(finder missingGradeFinder, writer notificationWriter, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{finder: finder, writer: writer, metrics: metrics, logger: logger}
}

// SetQueue wires the queue whose handler is HandleJob.
func (s *NotificationService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// NotifyMissingGrades schedules a notification for the teacher and returns the job id.
func (s *NotificationService) NotifyMissingGrades(ctx context.Context, q MissingGradeQuery) (string, error) {
	if strings.TrimSpace(q.TeacherID) == "" || strings.TrimSpace(q.Term) == "" || strings.TrimSpace(q.AcademicYear) == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "teacherId, term and academicYear are required")
	}
	if s.queue == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "notifications are disabled")
	}
	job := jobs.Job{ID: uuid.NewString(), Type: JobTypeMissingGrades, Payload: q}
	if err := s.queue.Enqueue(job); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule notification")
	}
	s.logger.Info("missing grades notification scheduled", zap.String("job_id", job.ID), zap.String("teacher_id", q.TeacherID))
	return job.ID, nil
}

// HandleJob is the queue handler. It writes one notification when anything is missing.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	q, ok := job.Payload.(MissingGradeQuery)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	entries, _, err := s.finder.Find(ctx, q)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	return s.writer.Create(ctx, &models.Notification{
		UserID:  q.TeacherID,
		Title:   "Missing grades",
		Message: summarizeMissing(entries, q),
		Type:    models.NotificationTypeMissingGrades,
	})
}

// JobDone records the final outcome of a notification job.
func (s *NotificationService) JobDone(job jobs.Job, err error) {
	s.metrics.RecordNotification(err == nil)
	if err != nil {
		s.logger.Error("missing grades notification failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func summarizeMissing(entries []models.MissingGradeEntry, q MissingGradeQuery) string {
	pairs := 0
	for _, e := range entries {
		pairs += len(e.Courses)
	}
	subject := "students have"
	if len(entries) == 1 {
		subject = "student has"
	}
	return fmt.Sprintf("%d %s %d missing grades for %s %s.", len(entries), subject, pairs, q.Term, q.AcademicYear)
}
