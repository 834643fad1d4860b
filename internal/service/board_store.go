package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/classroom-signal-board/internal/models"
	appErrors "github.com/noah-isme/classroom-signal-board/pkg/errors"
)

type requestRepository interface {
	LoadAll(ctx context.Context) ([]models.RequestRecord, error)
	SaveAll(ctx context.Context, records []models.RequestRecord) error
}

type changeNotifier interface {
	Touch()
}

// MutateFunc edits the loaded collection and returns the collection to save.
type MutateFunc func(records []models.RequestRecord) ([]models.RequestRecord, error)

// BoardStore serializes load-modify-save cycles of this process. Writers in
// other processes sharing the same backend still race as last write wins.
type BoardStore struct {
	repo   requestRepository
	logger *zap.Logger

	mu       sync.Mutex
	notifier changeNotifier
}

// NewBoardStore wraps a request repository.
func NewBoardStore(repo requestRepository, logger *zap.Logger) *BoardStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BoardStore{repo: repo, logger: logger}
}

// SetNotifier registers who is told after every successful save.
func (b *BoardStore) SetNotifier(n changeNotifier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifier = n
}

// Snapshot loads the current collection.
func (b *BoardStore) Snapshot(ctx context.Context) ([]models.RequestRecord, error) {
	records, err := b.repo.LoadAll(ctx)
	if err != nil {
		b.logger.Error("failed to load requests", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, appErrors.ErrStoreUnavailable.Message)
	}
	return records, nil
}

// Update runs fn on a fresh load and saves what it returns. Nothing is saved
// when fn or the load fails.
func (b *BoardStore) Update(ctx context.Context, fn MutateFunc) ([]models.RequestRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	records, err := b.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := fn(records)
	if err != nil {
		return nil, err
	}
	if err := b.repo.SaveAll(ctx, updated); err != nil {
		b.logger.Error("failed to save requests", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, appErrors.ErrStoreUnavailable.Message)
	}
	if b.notifier != nil {
		b.notifier.Touch()
	}
	return updated, nil
}
