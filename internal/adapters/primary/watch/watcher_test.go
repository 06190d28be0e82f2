package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lorrc/dispatch-analytics/internal/config"
	"github.com/lorrc/dispatch-analytics/internal/core/domain"
	apperrors "github.com/lorrc/dispatch-analytics/internal/core/errors"
	"github.com/lorrc/dispatch-analytics/internal/core/mocks"
	"github.com/lorrc/dispatch-analytics/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const opsCSV = "Date,Total Incoming,Calls Answered,Operational Vehicles\n2024-01-01,100,90,12\n"

func newTestWatcher(t *testing.T, dir string, svc ports.DashboardService) *Watcher {
	t.Helper()
	w := New(config.WatchConfig{
		Enabled:    true,
		Dir:        dir,
		Debounce:   20 * time.Millisecond,
		MaxRetries: 3,
	}, svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.initialInterval = time.Millisecond
	return w
}

func opsResult() *ports.IngestResult {
	return &ports.IngestResult{
		Dataset: domain.NewDatasetInfo(domain.KindOperations, "ops.csv", domain.FormatDelimited, "", 1),
	}
}

func TestIsDatasetFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/drop/cases.csv", true},
		{"/drop/CASES.XLSX", true},
		{"/drop/ops.txt", true},
		{"/drop/notes.pdf", false},
		{"/drop/~$cases.xlsx", false},
		{"/drop/.cases.csv.swp", false},
		{"/drop/legacy.xls", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDatasetFile(tt.path))
		})
	}
}

func TestWatcher_IngestsDroppedFile(t *testing.T) {
	dir := t.TempDir()
	svc := mocks.NewMockDashboardService()
	done := make(chan struct{})
	var once sync.Once
	svc.On("IngestDetected", mock.Anything, ports.DetectParams{FileName: "ops.csv", Content: []byte(opsCSV)}).
		Run(func(mock.Arguments) { once.Do(func() { close(done) }) }).
		Return(opsResult(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := newTestWatcher(t, dir, svc)
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Ping(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ops.csv"), []byte(opsCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("ignored"), 0o644))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dropped file was not ingested")
	}
}

func TestWatcher_Backfill(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ops.csv"), []byte(opsCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.png"), []byte("png"), 0o644))

	svc := mocks.NewMockDashboardService()
	svc.On("IngestDetected", mock.Anything, mock.AnythingOfType("ports.DetectParams")).Return(opsResult(), nil)

	w := newTestWatcher(t, dir, svc)
	require.NoError(t, w.Backfill(context.Background()))

	svc.AssertNumberOfCalls(t, "IngestDetected", 1)
}

func TestWatcher_RetriesWhileUploadInProgress(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ops.csv")
	require.NoError(t, os.WriteFile(path, []byte(opsCSV), 0o644))

	svc := mocks.NewMockDashboardService()
	svc.On("IngestDetected", mock.Anything, mock.Anything).Return(nil, apperrors.ErrUploadInProgress).Once()
	svc.On("IngestDetected", mock.Anything, mock.Anything).Return(opsResult(), nil).Once()

	newTestWatcher(t, dir, svc).process(context.Background(), path)

	svc.AssertNumberOfCalls(t, "IngestDetected", 2)
}

func TestWatcher_ContentErrorsAreNotRetried(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cases.csv")
	require.NoError(t, os.WriteFile(path, []byte("Reference,Date\n"), 0o644))

	svc := mocks.NewMockDashboardService()
	svc.On("IngestDetected", mock.Anything, mock.Anything).Return(nil, apperrors.ErrNoValidRows)

	newTestWatcher(t, dir, svc).process(context.Background(), path)

	svc.AssertNumberOfCalls(t, "IngestDetected", 1)
}

func TestWatcher_MissingFileIsNotRetried(t *testing.T) {
	svc := mocks.NewMockDashboardService()

	newTestWatcher(t, t.TempDir(), svc).process(context.Background(), "/does/not/exist.csv")

	svc.AssertNotCalled(t, "IngestDetected", mock.Anything, mock.Anything)
}

func TestWatcher_Disabled(t *testing.T) {
	svc := mocks.NewMockDashboardService()
	w := New(config.WatchConfig{}, svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Backfill(context.Background()))
	assert.NoError(t, w.Ping(context.Background()))
}
