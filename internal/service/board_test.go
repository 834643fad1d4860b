package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-signal-board/internal/models"
	"github.com/noah-isme/classroom-signal-board/internal/repository"
	appErrors "github.com/noah-isme/classroom-signal-board/pkg/errors"
)

func newTestStore(t *testing.T, records ...models.RequestRecord) (*BoardStore, *repository.RequestRepository) {
	t.Helper()
	repo := repository.NewRequestRepository(repository.NewMemoryStore(), nil)
	if len(records) > 0 {
		require.NoError(t, repo.SaveAll(context.Background(), records))
	}
	return NewBoardStore(repo, nil), repo
}

func record(id, student, requestType string, priority int, ts int64) models.RequestRecord {
	return models.RequestRecord{
		ID:          id,
		StudentName: student,
		Type:        requestType,
		Category:    models.CategoryRequest,
		Priority:    priority,
		Status:      models.StatusPending,
		Timestamp:   ts,
	}
}

func ids(records []models.RequestRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestSortRecordsPriorityThenNewestFirst(t *testing.T) {
	records := []models.RequestRecord{
		record("old-help", "A", "needHelp", 2, 100),
		record("status", "A", "understood", 6, 999),
		record("urgent", "B", "urgent", 1, 50),
		record("new-help", "B", "needHelp", 2, 300),
	}

	sorted := SortRecords(records)
	assert.Equal(t, []string{"urgent", "new-help", "old-help", "status"}, ids(sorted))
	assert.Equal(t, "old-help", records[0].ID, "input is left untouched")
}

func TestSortRecordsStableOnTies(t *testing.T) {
	records := []models.RequestRecord{
		record("first", "A", "restroom", 4, 10),
		record("second", "B", "restroom", 4, 10),
		record("third", "C", "restroom", 4, 10),
	}
	assert.Equal(t, []string{"first", "second", "third"}, ids(SortRecords(records)))
}

func TestSortRecordsPriorityBeatsTimestamp(t *testing.T) {
	records := []models.RequestRecord{
		record("didnt", "A", "didntUnderstand", 5, 1000),
		record("help", "A", "needHelp", 2, 1),
	}
	assert.Equal(t, []string{"help", "didnt"}, ids(SortRecords(records)))
}

func TestSortRecordsEmpty(t *testing.T) {
	sorted := SortRecords(nil)
	assert.NotNil(t, sorted)
	assert.Empty(t, sorted)
}

func TestFilterByStudentIsExactAndCaseSensitive(t *testing.T) {
	records := []models.RequestRecord{
		record("1", "Alice", "urgent", 1, 1),
		record("2", "alice", "urgent", 1, 2),
		record("3", "Alice ", "urgent", 1, 3),
		record("4", "Alice", "restroom", 4, 4),
	}
	assert.Equal(t, []string{"1", "4"}, ids(FilterByStudent(records, "Alice")))
	assert.Equal(t, []string{"2"}, ids(FilterByStudent(records, "alice")))
	assert.Empty(t, FilterByStudent(records, "Bob"))
}

func TestTransitionFromPending(t *testing.T) {
	for _, status := range []models.RequestStatus{models.StatusSeen, models.StatusAccepted, models.StatusRejected} {
		r := record("1", "A", "urgent", 1, 1)
		require.NoError(t, Transition(&r, status))
		assert.Equal(t, status, r.Status)
	}
}

func TestTransitionTerminalIsFinal(t *testing.T) {
	r := record("1", "A", "urgent", 1, 1)
	require.NoError(t, Transition(&r, models.StatusAccepted))

	err := Transition(&r, models.StatusRejected)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrAlreadyResolved.Code, appErr.Code)
	assert.Equal(t, models.StatusAccepted, r.Status)
}

func TestTransitionRejectsNonTerminalTarget(t *testing.T) {
	r := record("1", "A", "urgent", 1, 1)
	err := Transition(&r, models.StatusPending)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStatusForAction(t *testing.T) {
	status, ok := StatusForAction("accept")
	require.True(t, ok)
	assert.Equal(t, models.StatusAccepted, status)

	status, ok = StatusForAction("seen")
	require.True(t, ok)
	assert.Equal(t, models.StatusSeen, status)

	_, ok = StatusForAction("approve")
	assert.False(t, ok)
}

type touchCounter struct {
	touches int
}

func (c *touchCounter) Touch() { c.touches++ }

func TestBoardStoreUpdateSavesAndNotifies(t *testing.T) {
	store, repo := newTestStore(t)
	notifier := &touchCounter{}
	store.SetNotifier(notifier)

	_, err := store.Update(context.Background(), func(records []models.RequestRecord) ([]models.RequestRecord, error) {
		return append(records, record("1", "A", "urgent", 1, 1)), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.touches)

	loaded, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestBoardStoreUpdateAbortsOnError(t *testing.T) {
	store, repo := newTestStore(t, record("1", "A", "urgent", 1, 1))
	notifier := &touchCounter{}
	store.SetNotifier(notifier)

	_, err := store.Update(context.Background(), func(records []models.RequestRecord) ([]models.RequestRecord, error) {
		return nil, appErrors.ErrNotFound
	})
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Zero(t, notifier.touches)

	loaded, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

type brokenKV struct{}

func (brokenKV) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("dial tcp: connection refused")
}

func (brokenKV) Set(ctx context.Context, key, value string) error {
	return errors.New("dial tcp: connection refused")
}

func TestBoardStoreLoadFailureNeverOverwrites(t *testing.T) {
	store := NewBoardStore(repository.NewRequestRepository(brokenKV{}, nil), nil)
	called := false
	_, err := store.Update(context.Background(), func(records []models.RequestRecord) ([]models.RequestRecord, error) {
		called = true
		return records, nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, appErrors.ErrStoreUnavailable.Code, appErrors.FromError(err).Code)
}
