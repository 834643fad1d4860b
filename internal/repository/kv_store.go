package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/noah-isme/classroom-signal-board/pkg/storage"
)

// KeyValueStore is the shared store the board lives in. Values are whole
// documents: there is no partial update, no versioning and no locking, so
// concurrent writers from different processes resolve as last write wins.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get implements KeyValueStore.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set implements KeyValueStore.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// FileStore keeps values as files on local disk so several processes on one
// machine can share a board.
type FileStore struct {
	files *storage.LocalStorage
}

// NewFileStore wraps a LocalStorage.
func NewFileStore(files *storage.LocalStorage) *FileStore {
	return &FileStore{files: files}
}

// Get implements KeyValueStore.
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	data, err := s.files.Read(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Set implements KeyValueStore.
func (s *FileStore) Set(_ context.Context, key, value string) error {
	return s.files.Write(key, []byte(value))
}
