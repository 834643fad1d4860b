package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-signal-board/internal/dto"
	"github.com/noah-isme/classroom-signal-board/internal/models"
	appErrors "github.com/noah-isme/classroom-signal-board/pkg/errors"
)

// DisplayTimeLayout renders the clock time shown next to a request.
const DisplayTimeLayout = "3:04 PM"

const defaultAckMessage = "Request sent!"

type raiseAlerter interface {
	NotifyRaised(ctx context.Context, record models.RequestRecord)
}

type studentMetrics interface {
	RecordRaised(requestType string)
	RecordWithdrawn()
}

// StudentConfig tunes the student view.
type StudentConfig struct {
	AckDuration time.Duration
	AckMessage  string
	Location    *time.Location
}

// StudentService implements the student board: raising, listing and
// withdrawing one's own requests.
type StudentService struct {
	store     *BoardStore
	catalog   *CatalogService
	validator *validator.Validate
	alerts    raiseAlerter
	metrics   studentMetrics
	logger    *zap.Logger
	cfg       StudentConfig
	now       func() time.Time
}

// StudentServiceOption customises the service.
type StudentServiceOption func(*StudentService)

// WithStudentClock overrides the time source.
func WithStudentClock(now func() time.Time) StudentServiceOption {
	return func(s *StudentService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRaiseAlerter forwards newly raised requests to an alert channel.
func WithRaiseAlerter(alerts raiseAlerter) StudentServiceOption {
	return func(s *StudentService) {
		s.alerts = alerts
	}
}

// WithStudentMetrics attaches counters.
func WithStudentMetrics(metrics studentMetrics) StudentServiceOption {
	return func(s *StudentService) {
		s.metrics = metrics
	}
}

// NewStudentService constructs the service.
func NewStudentService(store *BoardStore, catalog *CatalogService, validate *validator.Validate, cfg StudentConfig, logger *zap.Logger, opts ...StudentServiceOption) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.AckDuration <= 0 {
		cfg.AckDuration = 3 * time.Second
	}
	if cfg.AckMessage == "" {
		cfg.AckMessage = defaultAckMessage
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	svc := &StudentService{
		store:     store,
		catalog:   catalog,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Board returns the catalog buttons and the student's own requests.
func (s *StudentService) Board(ctx context.Context, student string) (*dto.StudentBoard, error) {
	if student == "" {
		return nil, appErrors.ErrStudentNameRequired
	}
	records, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.StudentBoard{
		StudentName: student,
		Buttons:     s.catalog.List(),
		Requests:    SortRecords(FilterByStudent(records, student)),
	}, nil
}

// Raise appends a new pending request for student.
func (s *StudentService) Raise(ctx context.Context, student string, req dto.RaiseRequest) (*dto.RaiseResult, error) {
	if student == "" {
		return nil, appErrors.ErrStudentNameRequired
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}
	def, ok := s.catalog.Lookup(req.Type)
	if !ok {
		return nil, appErrors.ErrUnknownRequestType
	}

	var created models.RequestRecord
	records, err := s.store.Update(ctx, func(records []models.RequestRecord) ([]models.RequestRecord, error) {
		now := s.now()
		created = models.RequestRecord{
			ID:          uuid.NewString(),
			StudentName: student,
			Type:        def.Type,
			Icon:        def.Icon,
			Message:     def.Message,
			Category:    def.Category,
			Priority:    def.Priority,
			Status:      models.StatusPending,
			DisplayTime: now.In(s.cfg.Location).Format(DisplayTimeLayout),
			Timestamp:   nextTimestamp(records, now),
		}
		return append(records, created), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("request raised",
		zap.String("id", created.ID),
		zap.String("student", student),
		zap.String("type", created.Type),
	)
	if s.metrics != nil {
		s.metrics.RecordRaised(created.Type)
	}
	if s.alerts != nil {
		s.alerts.NotifyRaised(ctx, created)
	}

	return &dto.RaiseResult{
		Request:  created,
		Requests: SortRecords(FilterByStudent(records, student)),
		Ack: dto.Acknowledgment{
			Message:     s.cfg.AckMessage,
			HideAfterMs: s.cfg.AckDuration.Milliseconds(),
		},
	}, nil
}

// Withdraw removes one of the student's own requests. The caller must have
// confirmed the removal.
func (s *StudentService) Withdraw(ctx context.Context, student, id string, confirmed bool) ([]models.RequestRecord, error) {
	if student == "" {
		return nil, appErrors.ErrStudentNameRequired
	}
	if !confirmed {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "withdrawal must be confirmed")
	}

	records, err := s.store.Update(ctx, func(records []models.RequestRecord) ([]models.RequestRecord, error) {
		idx := indexByID(records, id)
		if idx < 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		if records[idx].StudentName != student {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "request belongs to another student")
		}
		return append(records[:idx:idx], records[idx+1:]...), nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("request withdrawn", zap.String("id", id), zap.String("student", student))
	if s.metrics != nil {
		s.metrics.RecordWithdrawn()
	}
	return SortRecords(FilterByStudent(records, student)), nil
}

// nextTimestamp returns now in unix milliseconds, bumped past every stored
// timestamp so the newest request always sorts first within its priority.
func nextTimestamp(records []models.RequestRecord, now time.Time) int64 {
	ts := now.UnixMilli()
	for _, record := range records {
		if record.Timestamp >= ts {
			ts = record.Timestamp + 1
		}
	}
	return ts
}
