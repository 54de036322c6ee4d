package journal

import (
	"sort"
	"sync"

	"github.com/tohenk/go-work/pkg/api"
)

// MemoryStore is a simple, goroutine-safe Store backed by a map.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*api.RunRecord
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string]*api.RunRecord),
	}
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) SaveRun(rec *api.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *rec
	s.runs[rec.ID] = &c
	return nil
}

func (s *MemoryStore) UpdateRun(rec *api.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[rec.ID]; !ok {
		return ErrRunNotFound
	}

	c := *rec
	s.runs[rec.ID] = &c
	return nil
}

func (s *MemoryStore) GetRun(id string) (*api.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}

	c := *rec
	return &c, nil
}

func (s *MemoryStore) ListRuns(filter Filter) ([]*api.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*api.RunRecord
	for _, rec := range s.runs {
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		c := *rec
		result = append(result, &c)
	}

	// Map iteration order is random; present history oldest-first.
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.Before(result[j].StartedAt)
	})

	return result, nil
}
