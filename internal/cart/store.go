package cart

import (
	"context"
	"sync"
)

// Store persists a cart snapshot across sessions. Load returns nil bytes
// when no snapshot exists; any shape mismatch in the stored bytes is the
// caller's problem to degrade on, not the store's.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, snapshot []byte) error
}

// MemoryStore is an in-process Store. Used when the service runs without
// a snapshot database and by tests.
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, nil
	}
	out := make([]byte, len(s.snapshot))
	copy(out, s.snapshot)
	return out, nil
}

func (s *MemoryStore) Save(ctx context.Context, snapshot []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = make([]byte, len(snapshot))
	copy(s.snapshot, snapshot)
	return nil
}
