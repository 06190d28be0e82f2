package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/lorrc/dispatch-analytics/internal/adapters/secondary/memory"
	"github.com/lorrc/dispatch-analytics/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetStore_StartsEmpty(t *testing.T) {
	store := memory.NewDatasetStore()

	data, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data.CasesInfo)
	assert.Nil(t, data.OpsInfo)
	assert.Empty(t, data.Cases)
	assert.Equal(t, domain.OpsSummary{}, data.Ops)
}

func TestDatasetStore_ReplaceCases(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDatasetStore()

	first := []domain.CaseRecord{{ID: "A"}, {ID: "B"}}
	info := domain.NewDatasetInfo(domain.KindCases, "week1.csv", domain.FormatDelimited, "", len(first))
	require.NoError(t, store.ReplaceCases(ctx, info, first))

	second := []domain.CaseRecord{{ID: "C"}}
	info2 := domain.NewDatasetInfo(domain.KindCases, "week2.csv", domain.FormatDelimited, "", len(second))
	require.NoError(t, store.ReplaceCases(ctx, info2, second))

	data, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, data.Cases, 1)
	assert.Equal(t, "C", data.Cases[0].ID)
	require.NotNil(t, data.CasesInfo)
	assert.Equal(t, "week2.csv", data.CasesInfo.FileName)
}

func TestDatasetStore_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDatasetStore()

	cases := []domain.CaseRecord{{ID: "A"}}
	info := domain.NewDatasetInfo(domain.KindCases, "cases.csv", domain.FormatDelimited, "", 1)
	require.NoError(t, store.ReplaceCases(ctx, info, cases))
	cases[0].ID = "mutated"

	data, err := store.Snapshot(ctx)
	require.NoError(t, err)
	data.Cases[0].ID = "also mutated"

	again, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Cases[0].ID)
}

func TestDatasetStore_ReplaceOperationsKeepsCases(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDatasetStore()

	info := domain.NewDatasetInfo(domain.KindCases, "cases.csv", domain.FormatDelimited, "", 1)
	require.NoError(t, store.ReplaceCases(ctx, info, []domain.CaseRecord{{ID: "A"}}))

	ops := domain.OpsSummary{TotalCalls: 100, AnsweredCalls: 90, OperationalAmb: 12}
	opsInfo := domain.NewDatasetInfo(domain.KindOperations, "ops.csv", domain.FormatDelimited, "", 3)
	require.NoError(t, store.ReplaceOperations(ctx, opsInfo, ops))

	data, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, data.Cases, 1)
	assert.Equal(t, ops, data.Ops)
	require.NotNil(t, data.OpsInfo)
	assert.Equal(t, 3, data.OpsInfo.RecordCount)
}

func TestDatasetStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := memory.NewDatasetStore()

	err := store.ReplaceCases(ctx, domain.DatasetInfo{}, nil)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDatasetStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDatasetStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			info := domain.NewDatasetInfo(domain.KindCases, "cases.csv", domain.FormatDelimited, "", 1)
			_ = store.ReplaceCases(ctx, info, []domain.CaseRecord{{ID: "A"}})
		}()
		go func() {
			defer wg.Done()
			_, _ = store.Snapshot(ctx)
		}()
	}
	wg.Wait()

	data, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, data.Cases, 1)
}
