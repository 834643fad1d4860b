package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classroom-signal-board/internal/dto"
	"github.com/noah-isme/classroom-signal-board/internal/models"
)

// Topics and event types pushed to websocket subscribers.
const (
	TopicTeacher       = "teacher"
	studentTopicPrefix = "student:"

	EventTeacherBoard    = "teacher.board"
	EventStudentRequests = "student.requests"
)

// StudentTopic is the topic carrying one student's own requests.
func StudentTopic(name string) string {
	return studentTopicPrefix + name
}

type boardPublisher interface {
	Publish(topic string, payload []byte) int
	Topics() []string
}

type pendingGauge interface {
	SetPending(count int)
}

// WatcherService polls the shared store and pushes fresh views to subscribers
// whenever the collection changes, whoever changed it.
type WatcherService struct {
	store     *BoardStore
	teacher   *TeacherService
	publisher boardPublisher
	metrics   pendingGauge
	interval  time.Duration
	logger    *zap.Logger

	touch chan struct{}

	mu   sync.Mutex
	last []byte
}

// NewWatcherService constructs a watcher. publisher and metrics may be nil.
func NewWatcherService(store *BoardStore, teacher *TeacherService, publisher boardPublisher, metrics pendingGauge, interval time.Duration, logger *zap.Logger) *WatcherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &WatcherService{
		store:     store,
		teacher:   teacher,
		publisher: publisher,
		metrics:   metrics,
		interval:  interval,
		logger:    logger,
		touch:     make(chan struct{}, 1),
	}
}

// Touch asks for an immediate poll after a local mutation.
func (w *WatcherService) Touch() {
	select {
	case w.touch <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled.
func (w *WatcherService) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("board watcher started", zap.Duration("interval", w.interval))
	w.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("board watcher stopped")
			return
		case <-ticker.C:
			w.Poll(ctx)
		case <-w.touch:
			w.Poll(ctx)
		}
	}
}

// Poll loads the collection once and publishes it when it differs from the
// previous poll. It reports whether anything was published.
func (w *WatcherService) Poll(ctx context.Context) bool {
	records, err := w.store.Snapshot(ctx)
	if err != nil {
		w.logger.Warn("board watcher poll failed", zap.Error(err))
		return false
	}
	fingerprint, err := json.Marshal(records)
	if err != nil {
		w.logger.Error("board watcher fingerprint failed", zap.Error(err))
		return false
	}

	w.mu.Lock()
	changed := w.last == nil || !bytes.Equal(fingerprint, w.last)
	w.last = fingerprint
	w.mu.Unlock()
	if !changed {
		return false
	}

	if w.metrics != nil {
		w.metrics.SetPending(countPending(records))
	}
	w.broadcast(records)
	return true
}

func (w *WatcherService) broadcast(records []models.RequestRecord) {
	if w.publisher == nil {
		return
	}
	for _, topic := range w.publisher.Topics() {
		var (
			payload []byte
			err     error
		)
		switch {
		case topic == TopicTeacher:
			payload, err = TeacherEvent(w.teacher.BuildBoard(records))
		case strings.HasPrefix(topic, studentTopicPrefix):
			name := strings.TrimPrefix(topic, studentTopicPrefix)
			payload, err = StudentEvent(SortRecords(FilterByStudent(records, name)))
		default:
			continue
		}
		if err != nil {
			w.logger.Error("failed to encode board event", zap.String("topic", topic), zap.Error(err))
			continue
		}
		w.publisher.Publish(topic, payload)
	}
}

// TeacherEvent encodes a teacher board push.
func TeacherEvent(board *dto.TeacherBoard) ([]byte, error) {
	return json.Marshal(dto.BoardEvent{Type: EventTeacherBoard, Data: board})
}

// StudentEvent encodes a push of one student's own requests.
func StudentEvent(records []models.RequestRecord) ([]byte, error) {
	return json.Marshal(dto.BoardEvent{Type: EventStudentRequests, Data: records})
}
