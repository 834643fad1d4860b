package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-signal-board/internal/models"
	"github.com/noah-isme/classroom-signal-board/pkg/jobs"
)

const alertJobType = "board.alert"

// Alert outcomes reported to metrics.
const (
	AlertOutcomeSent    = "sent"
	AlertOutcomeFailed  = "failed"
	AlertOutcomeDropped = "dropped"
)

// AlertSender delivers a rendered alert.
type AlertSender interface {
	SendAlert(ctx context.Context, text string) error
}

type alertMetrics interface {
	RecordAlert(outcome string)
}

// TelegramSender posts alerts to one Telegram chat.
type TelegramSender struct {
	bot    *bot.Bot
	chatID int64
}

// NewTelegramSender builds a sender without contacting Telegram.
func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &TelegramSender{bot: b, chatID: chatID}, nil
}

// SendAlert implements AlertSender.
func (t *TelegramSender) SendAlert(ctx context.Context, text string) error {
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   text,
	})
	return err
}

// NotificationConfig tunes alerting.
type NotificationConfig struct {
	MaxPriority int
	Workers     int
	Retries     int
	RetryDelay  time.Duration
}

// NotificationService alerts the teacher out of band when an urgent request is
// raised. Delivery runs on a background queue so raising never waits on it.
type NotificationService struct {
	sender  AlertSender
	queue   *jobs.Queue
	metrics alertMetrics
	logger  *zap.Logger
	cfg     NotificationConfig
}

// NewNotificationService constructs the service. A nil sender disables alerts.
func NewNotificationService(sender AlertSender, cfg NotificationConfig, metrics alertMetrics, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxPriority <= 0 {
		cfg.MaxPriority = 1
	}
	svc := &NotificationService{sender: sender, metrics: metrics, logger: logger, cfg: cfg}
	if sender != nil {
		svc.queue = jobs.NewQueue("alerts", svc.handle, jobs.QueueConfig{
			Workers:    cfg.Workers,
			MaxRetries: cfg.Retries,
			RetryDelay: cfg.RetryDelay,
			OnDrop:     svc.dropped,
			Logger:     logger,
		})
	}
	return svc
}

// Enabled reports whether alerts are delivered at all.
func (s *NotificationService) Enabled() bool {
	return s != nil && s.queue != nil
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	if s.Enabled() {
		s.queue.Start(ctx)
	}
}

// Stop waits for the delivery workers to exit.
func (s *NotificationService) Stop() {
	if s.Enabled() {
		s.queue.Stop()
	}
}

// NotifyRaised queues an alert for records urgent enough to warrant one.
func (s *NotificationService) NotifyRaised(ctx context.Context, record models.RequestRecord) {
	if !s.Enabled() || record.Priority > s.cfg.MaxPriority {
		return
	}
	job := jobs.Job{ID: record.ID, Type: alertJobType, Payload: record}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("alert not queued", zap.String("id", record.ID), zap.Error(err))
		s.record(AlertOutcomeDropped)
	}
}

// FormatAlert renders the alert text for a record.
func FormatAlert(record models.RequestRecord) string {
	return fmt.Sprintf("%s %s: %s", record.Icon, record.StudentName, record.Message)
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	record, ok := job.Payload.(models.RequestRecord)
	if !ok {
		s.logger.Error("unexpected alert payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.sender.SendAlert(ctx, FormatAlert(record)); err != nil {
		return fmt.Errorf("send alert %s: %w", record.ID, err)
	}
	s.logger.Info("alert sent", zap.String("id", record.ID), zap.String("student", record.StudentName))
	s.record(AlertOutcomeSent)
	return nil
}

func (s *NotificationService) dropped(job jobs.Job, err error) {
	s.logger.Error("alert delivery failed", zap.String("job_id", job.ID), zap.Error(err))
	s.record(AlertOutcomeFailed)
}

func (s *NotificationService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAlert(outcome)
	}
}
