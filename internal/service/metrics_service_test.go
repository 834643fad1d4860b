package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-signal-board/internal/models"
)

func TestMetricsServiceBoardCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordRaised("urgent")
	m.RecordRaised("urgent")
	m.RecordResolved(models.StatusAccepted)
	m.RecordWithdrawn()
	m.RecordMalformedStore()
	m.SetPending(3)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/teacher/board", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `board_requests_raised_total{type="urgent"} 2`)
	assert.Contains(t, body, `board_requests_resolved_total{status="accepted"} 1`)
	assert.Contains(t, body, "board_store_load_failures_total 1")
	assert.Contains(t, body, "board_pending_requests 3")

	snapshot := m.Snapshot()
	assert.Equal(t, 3, snapshot.Pending)
	assert.Equal(t, uint64(2), snapshot.Raised)
	assert.Equal(t, uint64(1), snapshot.Resolved)
	assert.Equal(t, uint64(1), snapshot.Withdrawn)
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)
	assert.InDelta(t, 20, snapshot.AverageRequestDurationMs, 0.01)
}

func TestMetricsServiceHandlerExposesBoardMetrics(t *testing.T) {
	m := NewMetricsService()
	m.RecordRaised("restroom")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `board_requests_raised_total{type="restroom"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordRaised("urgent")
	m.SetPending(1)
	m.RecordAlert(AlertOutcomeSent)
	assert.Equal(t, models.BoardStats{}, m.Snapshot())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
