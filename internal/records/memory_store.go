package records

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu   sync.RWMutex
	recs []*IPRecord
}

// NewMemoryStore creates an in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(ctx context.Context, rec *IPRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.recs = append(s.recs, &cp)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]*IPRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	// Newest first by timestamp, same as the Postgres store's
	// ORDER BY tracked_at DESC. Saves arrive from detached goroutines, so
	// insertion order alone is not reliable; it only breaks timestamp ties
	// (later insert wins).
	ordered := make([]*IPRecord, 0, len(s.recs))
	for i := len(s.recs) - 1; i >= 0; i-- {
		ordered = append(ordered, s.recs[i])
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TrackedAt.After(ordered[j].TrackedAt)
	})

	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	result := make([]*IPRecord, 0, len(ordered))
	for _, rec := range ordered {
		cp := *rec
		result = append(result, &cp)
	}
	return result, nil
}

func (s *MemoryStore) CountByLabel(ctx context.Context, label string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, rec := range s.recs {
		if rec.SuspicionLevel == label {
			count++
		}
	}
	return count, nil
}
