package cart

import (
	"context"
	"encoding/json"
	"sync"

	"hayase/internal/domain"
)

type memoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory keeps serialized snapshots in process memory.
func NewMemory() SnapshotStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (s *memoryStore) Save(_ context.Context, key string, snapshot domain.CartSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = data
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Load(_ context.Context, key string) (domain.CartSnapshot, error) {
	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return domain.CartSnapshot{}, ErrNoSnapshot
	}
	var snapshot domain.CartSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return domain.CartSnapshot{}, err
	}
	return snapshot, nil
}
