package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/classroom-signal-board/internal/models"
	"github.com/noah-isme/classroom-signal-board/internal/service"
)

type probeStub struct {
	err error
}

func (p probeStub) Snapshot(ctx context.Context) ([]models.RequestRecord, error) {
	return nil, p.err
}

func serveGET(handler gin.HandlerFunc, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, path, nil)
	handler(c)
	return w
}

func TestMetricsHandlerReady(t *testing.T) {
	ok := NewMetricsHandler(nil, probeStub{}, nil)
	assert.Equal(t, http.StatusOK, serveGET(ok.Ready, "/ready").Code)

	down := NewMetricsHandler(nil, probeStub{err: errors.New("dial tcp 10.0.0.7:6379: connection refused")}, nil)
	w := serveGET(down.Ready, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "10.0.0.7")
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	disabled := serveGET(NewMetricsHandler(nil, nil, nil).Prometheus, "/metrics")
	assert.Equal(t, http.StatusServiceUnavailable, disabled.Code)
	assert.Empty(t, disabled.Body.String())

	metrics := service.NewMetricsService()
	metrics.SetPending(2)
	w := serveGET(NewMetricsHandler(metrics, nil, nil).Prometheus, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "board_pending_requests 2")
}

func TestCatalogHandlerList(t *testing.T) {
	handler := NewCatalogHandler(service.NewCatalogService(nil, true))
	w := serveGET(handler.List, "/catalog")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"urgent"`)
}
