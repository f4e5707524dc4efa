package archive

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps records in process. It backs the history endpoint when
// no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID][]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID][]*Record)}
}

func (s *MemoryStore) SaveDecision(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.records[rec.RoomUID]
	if slices.ContainsFunc(existing, func(r *Record) bool { return r.Round == rec.Round }) {
		return nil
	}
	stored := *rec
	s.records[rec.RoomUID] = append(existing, &stored)
	return nil
}

func (s *MemoryStore) ListDecisions(_ context.Context, roomUID uuid.UUID, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.records[roomUID]))
	for _, r := range s.records[roomUID] {
		c := *r
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *Record) int { return cmp.Compare(b.Round, a.Round) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
