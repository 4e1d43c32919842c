package activity

import (
	"context"
	"sync"

	"github.com/viefmoon/bite-sub001/internal/models"
)

// MemoryStore keeps the newest capacity events in a ring buffer.
type MemoryStore struct {
	mu    sync.RWMutex
	ring  []models.SyncActivity
	next  int
	count int
}

func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{ring: make([]models.SyncActivity, normalizeCapacity(capacity))}
}

func (s *MemoryStore) Append(_ context.Context, item models.SyncActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring[s.next] = item
	s.next = (s.next + 1) % len(s.ring)
	if s.count < len(s.ring) {
		s.count++
	}
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]models.SyncActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := clampLimit(limit, len(s.ring))
	if n > s.count {
		n = s.count
	}
	out := make([]models.SyncActivity, 0, n)
	for i := 1; i <= n; i++ {
		idx := (s.next - i + len(s.ring)) % len(s.ring)
		out = append(out, s.ring[idx])
	}
	return out, nil
}
