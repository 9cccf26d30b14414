package job

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps job records in process memory. Records vanish on
// restart; use the Postgres store for anything durable.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[uuid.UUID]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[uuid.UUID]Record)}
}

func (s *MemoryStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recs[rec.ID] = rec

	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recs[id]

	return rec, ok, nil
}
