package ledger

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory, thread-safe Store implementation.
// A single RWMutex guards the whole mapping so concurrent HTTP callers
// cannot lose appends.
type MemoryStore struct {
	mu       sync.RWMutex
	patients map[string][]*VisitRecord
	visits   int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{patients: make(map[string][]*VisitRecord)}
}

// AddVisit implements Store.
func (s *MemoryStore) AddVisit(_ context.Context, v Visit) (*AddResult, error) {
	rec := newRecord(v)

	s.mu.Lock()
	defer s.mu.Unlock()

	status := StatusAppended
	if _, ok := s.patients[rec.PatientKey]; !ok {
		status = StatusCreated
	}
	s.patients[rec.PatientKey] = append(s.patients[rec.PatientKey], rec)
	s.visits++

	cp := *rec
	return &AddResult{Record: &cp, Status: status}, nil
}

// FindVisits implements Store.
func (s *MemoryStore) FindVisits(_ context.Context, name string) ([]*VisitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs, ok := s.patients[PatientKey(name)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]*VisitRecord, len(recs))
	for i, r := range recs {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}

// Stats implements Store.
func (s *MemoryStore) Stats(_ context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.patients), s.visits, nil
}
