package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-report-card-api/internal/models"
	appErrors "github.com/noah-isme/sma-report-card-api/pkg/errors"
	"github.com/noah-isme/sma-report-card-api/pkg/jobs"
)

type stubFinder struct {
	entries []models.MissingGradeEntry
	err     error
}

func (s *stubFinder) Find(ctx context.Context, q MissingGradeQuery) ([]models.MissingGradeEntry, bool, error) {
	return s.entries, false, s.err
}

type recordingWriter struct {
	created []*models.Notification
}

func (w *recordingWriter) Create(ctx context.Context, n *models.Notification) error {
	w.created = append(w.created, n)
	return nil
}

type recordingQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

var termQuery = MissingGradeQuery{TeacherID: "teacher-1", Term: "Term 1", AcademicYear: "2024-2025"}

func TestNotifyMissingGradesEnqueuesJob(t *testing.T) {
	queue := &recordingQueue{}
	svc := NewNotificationService(&stubFinder{}, &recordingWriter{}, nil, nil)
	svc.SetQueue(queue)

	id, err := svc.NotifyMissingGrades(context.Background(), termQuery)
	require.NoError(t, err)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, id, queue.jobs[0].ID)
	assert.Equal(t, JobTypeMissingGrades, queue.jobs[0].Type)
	assert.Equal(t, termQuery, queue.jobs[0].Payload)
}

func TestNotifyMissingGradesErrors(t *testing.T) {
	svc := NewNotificationService(&stubFinder{}, &recordingWriter{}, nil, nil)

	_, err := svc.NotifyMissingGrades(context.Background(), termQuery)
	assert.True(t, errors.Is(err, appErrors.ErrInternal), "no queue configured")

	svc.SetQueue(&recordingQueue{err: jobs.ErrQueueStopped})
	_, err = svc.NotifyMissingGrades(context.Background(), termQuery)
	assert.ErrorIs(t, err, jobs.ErrQueueStopped)

	_, err = svc.NotifyMissingGrades(context.Background(), MissingGradeQuery{TeacherID: "teacher-1"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestHandleJobWritesNotification(t *testing.T) {
	writer := &recordingWriter{}
	finder := &stubFinder{entries: []models.MissingGradeEntry{
		{StudentID: "S1", Courses: []models.Course{{ID: "A"}, {ID: "B"}}},
		{StudentID: "S2", Courses: []models.Course{{ID: "B"}}},
	}}
	svc := NewNotificationService(finder, writer, NewMetricsService(), nil)

	require.NoError(t, svc.HandleJob(context.Background(), jobs.Job{ID: "j1", Payload: termQuery}))
	require.Len(t, writer.created, 1)
	n := writer.created[0]
	assert.Equal(t, "teacher-1", n.UserID)
	assert.Equal(t, models.NotificationTypeMissingGrades, n.Type)
	assert.Equal(t, "2 students have 3 missing grades for Term 1 2024-2025.", n.Message)
}

func TestHandleJobSkipsWhenNothingMissing(t *testing.T) {
	writer := &recordingWriter{}
	svc := NewNotificationService(&stubFinder{}, writer, nil, nil)

	require.NoError(t, svc.HandleJob(context.Background(), jobs.Job{ID: "j1", Payload: termQuery}))
	assert.Empty(t, writer.created)
}

func TestHandleJobPropagatesFailures(t *testing.T) {
	svc := NewNotificationService(&stubFinder{err: errors.New("db down")}, &recordingWriter{}, nil, nil)

	assert.Error(t, svc.HandleJob(context.Background(), jobs.Job{ID: "j1", Payload: termQuery}))
	assert.Error(t, svc.HandleJob(context.Background(), jobs.Job{ID: "j2", Payload: "bogus"}))
}
