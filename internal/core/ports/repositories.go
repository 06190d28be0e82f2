package ports

import (
	"context"

	"github.com/lorrc/dispatch-analytics/internal/core/domain"
)

// Datasets is a consistent view of both loaded datasets.
type Datasets struct {
	CasesInfo *domain.DatasetInfo
	Cases     []domain.CaseRecord
	OpsInfo   *domain.DatasetInfo
	Ops       domain.OpsSummary
}

// DatasetStore holds the two replaceable datasets. Each replace swaps the
// whole dataset; there is no merging.
type DatasetStore interface {
	ReplaceCases(ctx context.Context, info domain.DatasetInfo, cases []domain.CaseRecord) error
	ReplaceOperations(ctx context.Context, info domain.DatasetInfo, ops domain.OpsSummary) error
	Snapshot(ctx context.Context) (Datasets, error)
}
