package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/okian/hirepulse/internal/domain/model"
	"github.com/okian/hirepulse/pkg/metrics"
)

const driverMemory = "memory"

// MemoryStore keeps datasets in a map guarded by a RWMutex.
type MemoryStore struct {
	opts options

	mu       sync.RWMutex
	datasets map[string]*model.Dataset
	closed   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		opts:     o,
		datasets: make(map[string]*model.Dataset),
	}
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, ds *model.Dataset) error {
	defer observe(driverMemory, "put", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.opts.stamp(ds)
	stored := *ds
	s.datasets[ds.ID] = &stored
	metrics.UpdateDatasetCount(len(s.datasets))
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Dataset, error) {
	defer observe(driverMemory, "get", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	ds, ok := s.datasets[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *ds
	return &out, nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]model.DatasetSummary, error) {
	defer observe(driverMemory, "list", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.DatasetSummary, 0, len(s.datasets))
	for _, ds := range s.datasets {
		out = append(out, ds.Summary())
	}
	sortSummaries(out)
	return out, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	defer observe(driverMemory, "delete", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.datasets[id]; !ok {
		return ErrNotFound
	}
	delete(s.datasets, id)
	metrics.UpdateDatasetCount(len(s.datasets))
	return nil
}

// Count implements Store.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}

// Close drops every dataset. Further calls return ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.datasets = nil
	return nil
}

func sortSummaries(out []model.DatasetSummary) {
	slices.SortFunc(out, func(a, b model.DatasetSummary) int {
		if c := a.ImportedAt.Compare(b.ImportedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func observe(driver, op string, start time.Time) {
	metrics.RecordRepositoryLatency(driver, op, float64(time.Since(start).Microseconds())/1000)
}
