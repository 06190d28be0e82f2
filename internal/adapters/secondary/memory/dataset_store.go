package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/lorrc/dispatch-analytics/internal/core/domain"
	"github.com/lorrc/dispatch-analytics/internal/core/ports"
)

// DatasetStore keeps the loaded datasets in process memory. Nothing is
// persisted; a restart starts from an empty dashboard.
type DatasetStore struct {
	mu        sync.RWMutex
	casesInfo *domain.DatasetInfo
	cases     []domain.CaseRecord
	opsInfo   *domain.DatasetInfo
	ops       domain.OpsSummary
}

var _ ports.DatasetStore = (*DatasetStore)(nil)

// NewDatasetStore creates an empty store.
func NewDatasetStore() *DatasetStore {
	return &DatasetStore{cases: []domain.CaseRecord{}}
}

// ReplaceCases swaps the whole case list.
func (s *DatasetStore) ReplaceCases(ctx context.Context, info domain.DatasetInfo, cases []domain.CaseRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cloned := slices.Clone(cases)
	if cloned == nil {
		cloned = []domain.CaseRecord{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.casesInfo = &info
	s.cases = cloned
	return nil
}

// ReplaceOperations swaps the operations summary.
func (s *DatasetStore) ReplaceOperations(ctx context.Context, info domain.DatasetInfo, ops domain.OpsSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.opsInfo = &info
	s.ops = ops
	return nil
}

// Snapshot returns a copy of both datasets taken under one read lock, so the
// case list and summary always belong together.
func (s *DatasetStore) Snapshot(ctx context.Context) (ports.Datasets, error) {
	if err := ctx.Err(); err != nil {
		return ports.Datasets{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := ports.Datasets{
		Cases: slices.Clone(s.cases),
		Ops:   s.ops,
	}
	if s.casesInfo != nil {
		info := *s.casesInfo
		out.CasesInfo = &info
	}
	if s.opsInfo != nil {
		info := *s.opsInfo
		out.OpsInfo = &info
	}
	return out, nil
}

// Ping reports whether the store can be read. It implements the health
// checker used by the readiness probe.
func (s *DatasetStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nil
}
