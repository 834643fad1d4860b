package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-signal-board/internal/models"
	"github.com/noah-isme/classroom-signal-board/internal/service"
)

type readinessProbe interface {
	Snapshot(ctx context.Context) ([]models.RequestRecord, error)
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	probe   readinessProbe
	logger  *zap.Logger
}

// NewMetricsHandler constructs a metrics handler. probe may be nil.
func NewMetricsHandler(metrics *service.MetricsService, probe readinessProbe, logger *zap.Logger) *MetricsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsHandler{metrics: metrics, probe: probe, logger: logger}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the request store can be read.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.probe != nil {
		if _, err := h.probe.Snapshot(c.Request.Context()); err != nil {
			h.logger.Warn("readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
