package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/report-cards/:studentId", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/report-cards/:studentId", http.StatusOK, 40*time.Millisecond)
	m.ObserveDBQuery("student_courses.list_enrolled", 4*time.Millisecond)
	m.RecordGradeWrites(3, 0)
	m.RecordGradeWrites(1, 2)
	m.RecordExport("pdf")
	m.RecordNotification(true)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 30.0, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(1), snap.DBQueryCount)
	assert.Equal(t, uint64(4), snap.GradeWrites)
	assert.Equal(t, uint64(1), snap.PartialWrites)
	assert.Equal(t, uint64(1), snap.Exports)
	assert.False(t, snap.GeneratedAt.IsZero())
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveDBQuery("x", time.Millisecond)
	m.RecordGradeWrites(1, 1)
	m.RecordExport("csv")
	assert.Zero(t, m.Snapshot().RequestsTotal)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsServiceExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordGradeWrites(2, 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `report_card_grade_writes_total{outcome="ok"} 2`)
	assert.Contains(t, body, `report_card_grade_writes_total{outcome="partial"} 1`)
}
