package repository

import (
	"container/list"
	"context"
	"sync"

	"github.com/okian/dyscreen/internal/domain/model"
	"github.com/okian/dyscreen/pkg/metrics"
)

// MemoryStore is a bounded in-memory Store. When full, the assessment stored
// first is evicted.
type MemoryStore struct {
	mu      sync.RWMutex
	maxSize int
	order   *list.List
	byID    map[string]*list.Element
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		maxSize: defaultMaxSize,
		order:   list.New(),
		byID:    make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateResultsStored(0)
	return s
}

// Put stores a. A replaced assessment keeps its original eviction position.
func (s *MemoryStore) Put(_ context.Context, a model.Assessment) error { //nolint:gocritic // hugeParam: stored by value
	if a.SubmissionID == "" {
		metrics.RecordErrorByComponent("repository", "invalid_id")
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.byID[a.SubmissionID]; ok {
		el.Value = a
		return nil
	}

	for s.order.Len() >= s.maxSize {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.byID, oldest.Value.(model.Assessment).SubmissionID)
		metrics.RecordResultEvicted()
	}
	s.byID[a.SubmissionID] = s.order.PushBack(a)
	metrics.UpdateResultsStored(s.order.Len())
	return nil
}

// Get returns the stored assessment for submissionID.
func (s *MemoryStore) Get(_ context.Context, submissionID string) (model.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	el, ok := s.byID[submissionID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Assessment{}, ErrNotFound
	}
	return el.Value.(model.Assessment), nil
}

// Len returns the number of stored assessments.
func (s *MemoryStore) Len(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Len()
}
