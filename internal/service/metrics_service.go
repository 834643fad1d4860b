package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/classroom-signal-board/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	raised          *prometheus.CounterVec
	resolved        *prometheus.CounterVec
	withdrawn       prometheus.Counter
	loadFailures    prometheus.Counter
	alerts          *prometheus.CounterVec
	pending         prometheus.Gauge

	requestCount         uint64
	requestDurationTotal uint64
	raisedCount          uint64
	resolvedCount        uint64
	withdrawnCount       uint64
	pendingCount         int64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	raised := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "board_requests_raised_total",
		Help: "Requests raised by students",
	}, []string{"type"})

	resolved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "board_requests_resolved_total",
		Help: "Requests resolved by the teacher",
	}, []string{"status"})

	withdrawn := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "board_requests_withdrawn_total",
		Help: "Requests withdrawn by students",
	})

	loadFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "board_store_load_failures_total",
		Help: "Stored collections or records discarded as malformed",
	})

	alerts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "board_alerts_total",
		Help: "Urgent request alerts by outcome",
	}, []string{"outcome"})

	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "board_pending_requests",
		Help: "Requests currently awaiting the teacher",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, raised, resolved, withdrawn, loadFailures, alerts, pending, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		raised:          raised,
		resolved:        resolved,
		withdrawn:       withdrawn,
		loadFailures:    loadFailures,
		alerts:          alerts,
		pending:         pending,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordRaised counts a newly raised request.
func (m *MetricsService) RecordRaised(requestType string) {
	if m == nil {
		return
	}
	m.raised.WithLabelValues(requestType).Inc()
	atomic.AddUint64(&m.raisedCount, 1)
}

// RecordResolved counts a teacher decision.
func (m *MetricsService) RecordResolved(status models.RequestStatus) {
	if m == nil {
		return
	}
	m.resolved.WithLabelValues(string(status)).Inc()
	atomic.AddUint64(&m.resolvedCount, 1)
}

// RecordWithdrawn counts a student withdrawal.
func (m *MetricsService) RecordWithdrawn() {
	if m == nil {
		return
	}
	m.withdrawn.Inc()
	atomic.AddUint64(&m.withdrawnCount, 1)
}

// RecordMalformedStore counts stored data discarded while loading.
func (m *MetricsService) RecordMalformedStore() {
	if m == nil {
		return
	}
	m.loadFailures.Inc()
}

// RecordAlert counts alert outcomes: sent, failed, dropped.
func (m *MetricsService) RecordAlert(outcome string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(outcome).Inc()
}

// SetPending publishes the number of pending requests.
func (m *MetricsService) SetPending(count int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(count))
	atomic.StoreInt64(&m.pendingCount, int64(count))
}

// Snapshot returns aggregated metrics suitable for the teacher stats endpoint.
func (m *MetricsService) Snapshot() models.BoardStats {
	if m == nil {
		return models.BoardStats{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.BoardStats{
		Pending:                  int(atomic.LoadInt64(&m.pendingCount)),
		Raised:                   atomic.LoadUint64(&m.raisedCount),
		Resolved:                 atomic.LoadUint64(&m.resolvedCount),
		Withdrawn:                atomic.LoadUint64(&m.withdrawnCount),
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
