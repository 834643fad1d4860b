package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-signal-board/internal/models"
)

// DefaultCollectionKey is the key the request collection is stored under.
const DefaultCollectionKey = "allStudentRequests"

// LegacyDefaultPriority is assigned to records written before priorities existed.
const LegacyDefaultPriority = 4

// legacyIDNamespace seeds the stable ids given to records stored without one.
var legacyIDNamespace = uuid.MustParse("6f1c2b8e-7f43-4d3a-9a55-2d0f5b7c9e10")

type requestTypeLookup interface {
	Lookup(requestType string) (models.RequestType, bool)
}

type malformedRecorder interface {
	RecordMalformedStore()
}

// storedRecord accepts the legacy "time" field that displayTime replaced.
type storedRecord struct {
	models.RequestRecord
	LegacyTime string `json:"time,omitempty"`
}

// RequestRepository loads and saves the whole request collection.
type RequestRepository struct {
	store   KeyValueStore
	key     string
	catalog requestTypeLookup
	metrics malformedRecorder
	logger  *zap.Logger
}

// RequestRepositoryOption configures the repository.
type RequestRepositoryOption func(*RequestRepository)

// WithCollectionKey overrides the store key.
func WithCollectionKey(key string) RequestRepositoryOption {
	return func(r *RequestRepository) {
		if key != "" {
			r.key = key
		}
	}
}

// WithCatalog lets the repository fill in the category of older records.
func WithCatalog(catalog requestTypeLookup) RequestRepositoryOption {
	return func(r *RequestRepository) {
		r.catalog = catalog
	}
}

// WithMalformedRecorder reports collections that had to be discarded.
func WithMalformedRecorder(m malformedRecorder) RequestRepositoryOption {
	return func(r *RequestRepository) {
		r.metrics = m
	}
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(store KeyValueStore, logger *zap.Logger, opts ...RequestRepositoryOption) *RequestRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	repo := &RequestRepository{store: store, key: DefaultCollectionKey, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo
}

// LoadAll returns every stored record. An absent or malformed collection is an
// empty one; only a failing backend is reported as an error.
func (r *RequestRepository) LoadAll(ctx context.Context) ([]models.RequestRecord, error) {
	raw, found, err := r.store.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", r.key, err)
	}
	if !found || raw == "" {
		return []models.RequestRecord{}, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		r.logger.Warn("discarding malformed request collection", zap.String("key", r.key), zap.Error(err))
		r.recordMalformed()
		return []models.RequestRecord{}, nil
	}

	records := make([]models.RequestRecord, 0, len(elements))
	seen := make(map[string]struct{}, len(elements))
	for i, element := range elements {
		if bytes.Equal(bytes.TrimSpace(element), []byte("null")) {
			r.logger.Warn("skipping null request record", zap.Int("index", i))
			r.recordMalformed()
			continue
		}
		var stored storedRecord
		if err := json.Unmarshal(element, &stored); err != nil {
			r.logger.Warn("skipping malformed request record", zap.Int("index", i), zap.Error(err))
			r.recordMalformed()
			continue
		}
		record := r.normalize(stored)
		if _, dup := seen[record.ID]; dup {
			record.ID = uuid.NewSHA1(legacyIDNamespace, []byte(record.ID+"#"+strconv.Itoa(i))).String()
		}
		seen[record.ID] = struct{}{}
		records = append(records, record)
	}
	return records, nil
}

// SaveAll overwrites the stored collection with records.
func (r *RequestRepository) SaveAll(ctx context.Context, records []models.RequestRecord) error {
	if records == nil {
		records = []models.RequestRecord{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", r.key, err)
	}
	if err := r.store.Set(ctx, r.key, string(payload)); err != nil {
		return fmt.Errorf("save %s: %w", r.key, err)
	}
	return nil
}

// normalize applies the default-value policy for records stored by older
// versions of the board, which lacked ids, priorities, categories and statuses.
func (r *RequestRepository) normalize(stored storedRecord) models.RequestRecord {
	record := stored.RequestRecord
	if record.Priority <= 0 {
		record.Priority = LegacyDefaultPriority
	}
	if record.Category == "" {
		record.Category = models.CategoryRequest
		if r.catalog != nil {
			if def, ok := r.catalog.Lookup(record.Type); ok {
				record.Category = def.Category
			}
		}
	}
	if record.Status == "" {
		record.Status = models.StatusPending
	}
	if record.DisplayTime == "" {
		record.DisplayTime = stored.LegacyTime
	}
	if record.ID == "" {
		seed := record.StudentName + "|" + record.Type + "|" + strconv.FormatInt(record.Timestamp, 10)
		record.ID = uuid.NewSHA1(legacyIDNamespace, []byte(seed)).String()
	}
	return record
}

func (r *RequestRepository) recordMalformed() {
	if r.metrics != nil {
		r.metrics.RecordMalformedStore()
	}
}
