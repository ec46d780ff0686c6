package persistence

import (
	"context"
	"sync"

	"telemetry-server/internal/telemetry/domain"
	"telemetry-server/internal/telemetry/usecases"
)

var _ usecases.ReadingStore = (*MemoryReadingStore)(nil)

// MemoryReadingStore keeps the snapshot in process memory. The whole struct
// is replaced under the write lock, so readers never see a torn snapshot.
type MemoryReadingStore struct {
	snapshot domain.SensorSnapshot
	mutex    sync.RWMutex
}

func NewMemoryReadingStore() *MemoryReadingStore {
	return &MemoryReadingStore{}
}

func (s *MemoryReadingStore) Get(_ context.Context) (domain.SensorSnapshot, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.snapshot, nil
}

func (s *MemoryReadingStore) Set(_ context.Context, snapshot domain.SensorSnapshot) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.snapshot = snapshot
	return nil
}
