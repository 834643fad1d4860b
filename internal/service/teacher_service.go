package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/classroom-signal-board/internal/dto"
	"github.com/noah-isme/classroom-signal-board/internal/models"
	appErrors "github.com/noah-isme/classroom-signal-board/pkg/errors"
)

type teacherMetrics interface {
	RecordResolved(status models.RequestStatus)
}

// TeacherService implements the teacher board.
type TeacherService struct {
	store   *BoardStore
	catalog *CatalogService
	metrics teacherMetrics
	logger  *zap.Logger
}

// NewTeacherService constructs the service. metrics may be nil.
func NewTeacherService(store *BoardStore, catalog *CatalogService, metrics teacherMetrics, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{store: store, catalog: catalog, metrics: metrics, logger: logger}
}

// Board returns every request, sorted, with the controls or indicator each row shows.
func (s *TeacherService) Board(ctx context.Context) (*dto.TeacherBoard, error) {
	records, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.BuildBoard(records), nil
}

// BuildBoard renders a teacher board from an already loaded collection.
func (s *TeacherService) BuildBoard(records []models.RequestRecord) *dto.TeacherBoard {
	sorted := SortRecords(records)
	board := &dto.TeacherBoard{Items: make([]dto.TeacherBoardItem, 0, len(sorted))}
	for _, record := range sorted {
		item := dto.TeacherBoardItem{RequestRecord: record}
		if record.Status == models.StatusPending {
			item.Actions = s.catalog.ActionsFor(record)
			board.PendingCount++
		} else {
			item.Indicator = record.Status.Label()
		}
		board.Items = append(board.Items, item)
	}
	return board
}

// Resolve applies a teacher control to a pending request and returns the
// refreshed board.
func (s *TeacherService) Resolve(ctx context.Context, id, action string) (*dto.TeacherBoard, error) {
	status, ok := StatusForAction(action)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be seen, accept or reject")
	}
	return s.SetStatus(ctx, id, status)
}

// SetStatus forces a terminal status on a pending request regardless of the
// controls its category offers.
func (s *TeacherService) SetStatus(ctx context.Context, id string, status models.RequestStatus) (*dto.TeacherBoard, error) {
	records, err := s.store.Update(ctx, func(records []models.RequestRecord) ([]models.RequestRecord, error) {
		idx := indexByID(records, id)
		if idx < 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		if err := Transition(&records[idx], status); err != nil {
			return nil, err
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("request resolved", zap.String("id", id), zap.String("status", string(status)))
	if s.metrics != nil {
		s.metrics.RecordResolved(status)
	}
	return s.BuildBoard(records), nil
}
