package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lorrc/dispatch-analytics/internal/adapters/secondary/memory"
	"github.com/lorrc/dispatch-analytics/internal/core/domain"
	apperrors "github.com/lorrc/dispatch-analytics/internal/core/errors"
	"github.com/lorrc/dispatch-analytics/internal/core/mocks"
	"github.com/lorrc/dispatch-analytics/internal/core/ports"
	"github.com/lorrc/dispatch-analytics/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const casesCSV = "Reference,Date,Ambulance No,Case Category,Call Time,Answer Time,Time Dispatched,Time Arrived Scene,Time Job Closed\n" +
	"R1,2024-01-01,AMB1,Transfer,08:00:00,08:00:30,08:05:00,08:15:00,09:05:00\n" +
	"R2,2024-01-02,,Ambulance Unavailable,09:00:00,09:01:00,,,\n"

const opsCSV = "Date,Total Incoming,Calls Answered,Operational Vehicles\n" +
	"2024-01-01,60,50,10\n" +
	"2024-01-02,40,40,14\n"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store       *memory.DatasetStore
	decoder     *mocks.MockWorkbookDecoder
	broadcaster *mocks.MockEventBroadcaster
	recorder    *mocks.MockIngestRecorder
	svc         *services.DashboardService
}

func newFixture() *fixture {
	f := &fixture{
		store:       memory.NewDatasetStore(),
		decoder:     mocks.NewMockWorkbookDecoder(),
		broadcaster: mocks.NewMockEventBroadcaster(),
		recorder:    mocks.NewMockIngestRecorder(),
	}
	f.broadcaster.On("Broadcast", mock.Anything).Return(nil).Maybe()
	f.recorder.On("RecordIngest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()
	f.svc = services.NewDashboardService(f.store, f.decoder, f.broadcaster, f.recorder, quietLogger())
	return f
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		name    string
		want    domain.FileFormat
		wantErr error
	}{
		{"cases.csv", domain.FormatDelimited, nil},
		{"Cases.TXT", domain.FormatDelimited, nil},
		{"ops.xlsx", domain.FormatWorkbook, nil},
		{"ops.xlsm", domain.FormatWorkbook, nil},
		{"legacy.xls", "", apperrors.ErrUnsupportedFormat},
		{"report.pdf", "", apperrors.ErrUnsupportedFormat},
		{"noext", "", apperrors.ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := services.FormatFor(tt.name)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDashboardService_IngestCases(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newFixture()

		result, err := f.svc.Ingest(ctx, ports.UploadParams{
			Kind:     domain.KindCases,
			FileName: "cases.csv",
			Content:  []byte(casesCSV),
		})

		require.NoError(t, err)
		assert.Equal(t, domain.KindCases, result.Dataset.Kind)
		assert.Equal(t, domain.FormatDelimited, result.Dataset.Format)
		assert.Equal(t, 2, result.Dataset.RecordCount)
		assert.Nil(t, result.OpsSummary)

		m := result.Metrics
		assert.Equal(t, 2, m.TotalCases)
		assert.Equal(t, 1, m.TotalSuccessful)
		assert.Equal(t, 1, m.RefusedUnavailable)
		assert.Equal(t, 2, m.UniqueDays)
		assert.Equal(t, 45, m.AvgWaitTime)
		assert.Equal(t, 10, m.AvgResponseTime)
		assert.Equal(t, 60, m.AvgCycleTime)

		f.broadcaster.AssertCalled(t, "Broadcast", mock.MatchedBy(func(e domain.Event) bool {
			return e.Type == domain.EventDatasetReplaced && e.Kind == domain.KindCases
		}))
		f.broadcaster.AssertCalled(t, "Broadcast", mock.MatchedBy(func(e domain.Event) bool {
			return e.Type == domain.EventMetricsUpdated && e.Kind == ""
		}))
		f.recorder.AssertCalled(t, "RecordIngest", domain.KindCases, domain.FormatDelimited, services.OutcomeAccepted, 2, 0, mock.AnythingOfType("time.Duration"))
	})

	t.Run("replaces rather than merges", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Ingest(ctx, ports.UploadParams{Kind: domain.KindCases, FileName: "a.csv", Content: []byte(casesCSV)})
		require.NoError(t, err)

		second := "Reference,Date,Case Category\nR9,2024-02-01,Successful\n"
		_, err = f.svc.Ingest(ctx, ports.UploadParams{Kind: domain.KindCases, FileName: "b.csv", Content: []byte(second)})
		require.NoError(t, err)

		list, err := f.svc.ListCases(ctx, ports.ListCasesParams{})
		require.NoError(t, err)
		require.Len(t, list.Cases, 1)
		assert.Equal(t, "R9", list.Cases[0].ID)
	})

	t.Run("no valid rows keeps the previous dataset", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Ingest(ctx, ports.UploadParams{Kind: domain.KindCases, FileName: "a.csv", Content: []byte(casesCSV)})
		require.NoError(t, err)

		result, err := f.svc.Ingest(ctx, ports.UploadParams{Kind: domain.KindCases, FileName: "empty.csv", Content: []byte("Reference,Date\n,\n")})

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrNoValidRows)
		m, err := f.svc.Metrics(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, m.TotalCases)
		f.recorder.AssertCalled(t, "RecordIngest", domain.KindCases, domain.FormatDelimited, services.OutcomeRejected, 0, 0, mock.AnythingOfType("time.Duration"))
	})

	t.Run("workbook picks the case sheet", func(t *testing.T) {
		f := newFixture()
		content := []byte("PK-workbook")
		f.decoder.On("Decode", ctx, content).Return([]domain.Sheet{
			{Name: "Cover", Rows: domain.Grid{domain.TextRow("Monthly export")}},
			{Name: "Cases", Rows: domain.Grid{
				domain.TextRow("Reference", "Date", "Case Category"),
				{domain.TextCell("R1"), domain.NumberCell(45292), domain.TextCell("Successful")},
			}},
		}, nil)

		result, err := f.svc.Ingest(ctx, ports.UploadParams{Kind: domain.KindCases, FileName: "export.xlsx", Content: content})

		require.NoError(t, err)
		assert.Equal(t, "Cases", result.Dataset.Sheet)
		assert.Equal(t, domain.FormatWorkbook, result.Dataset.Format)

		list, err := f.svc.ListCases(ctx, ports.ListCasesParams{View: "success"})
		require.NoError(t, err)
		require.Len(t, list.Cases, 1)
		assert.Equal(t, "2024-01-01", list.Cases[0].Date)
		f.decoder.AssertExpectations(t)
	})

	t.Run("decoder failure", func(t *testing.T) {
		f := newFixture()
		f.decoder.On("Decode", ctx, mock.Anything).Return(nil, apperrors.ErrDecodeFailed)

		_, err := f.svc.Ingest(ctx, ports.UploadParams{Kind: domain.KindCases, FileName: "broken.xlsx", Content: []byte("x")})

		assert.ErrorIs(t, err, apperrors.ErrDecodeFailed)
		f.broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.Ingest(ctx, ports.UploadParams{Kind: "tickets", FileName: "a.csv", Content: []byte("x")})
		assert.ErrorIs(t, err, apperrors.ErrInvalidDatasetKind)

		_, err = f.svc.Ingest(ctx, ports.UploadParams{Kind: domain.KindCases, FileName: "a.csv"})
		assert.ErrorIs(t, err, apperrors.ErrNoFile)

		_, err = f.svc.Ingest(ctx, ports.UploadParams{Kind: domain.KindCases, FileName: "a.pdf", Content: []byte("x")})
		assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
	})
}

func TestDashboardService_IngestOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	result, err := f.svc.Ingest(ctx, ports.UploadParams{Kind: domain.KindOperations, FileName: "ops.csv", Content: []byte(opsCSV)})

	require.NoError(t, err)
	require.NotNil(t, result.OpsSummary)
	assert.Equal(t, domain.OpsSummary{TotalCalls: 100, AnsweredCalls: 90, OperationalAmb: 12}, *result.OpsSummary)
	assert.Equal(t, 2, result.Dataset.RecordCount)
	assert.Equal(t, 90.0, result.Metrics.ResponseRate)

	state, err := f.svc.State(ctx)
	require.NoError(t, err)
	assert.Nil(t, state.Cases)
	require.NotNil(t, state.Operations)
	assert.Equal(t, "ops.csv", state.Operations.FileName)
	assert.Equal(t, 12, state.Metrics.OperationalAmbulances)
}

func TestDashboardService_IngestDetected(t *testing.T) {
	ctx := context.Background()

	t.Run("operations text", func(t *testing.T) {
		f := newFixture()
		result, err := f.svc.IngestDetected(ctx, ports.DetectParams{FileName: "daily.csv", Content: []byte(opsCSV)})
		require.NoError(t, err)
		assert.Equal(t, domain.KindOperations, result.Dataset.Kind)
	})

	t.Run("case text", func(t *testing.T) {
		f := newFixture()
		result, err := f.svc.IngestDetected(ctx, ports.DetectParams{FileName: "log.csv", Content: []byte(casesCSV)})
		require.NoError(t, err)
		assert.Equal(t, domain.KindCases, result.Dataset.Kind)
	})

	t.Run("unknown content", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.IngestDetected(ctx, ports.DetectParams{FileName: "notes.txt", Content: []byte("hello\nworld\n")})
		assert.ErrorIs(t, err, apperrors.ErrUnknownKind)
		f.recorder.AssertCalled(t, "RecordIngest", domain.DatasetKind(""), domain.FormatDelimited, services.OutcomeRejected, 0, 0, mock.AnythingOfType("time.Duration"))
	})

	t.Run("decoder failure is recorded", func(t *testing.T) {
		f := newFixture()
		f.decoder.On("Decode", ctx, mock.Anything).Return(nil, apperrors.ErrDecodeFailed)

		_, err := f.svc.IngestDetected(ctx, ports.DetectParams{FileName: "broken.xlsx", Content: []byte("x")})

		assert.ErrorIs(t, err, apperrors.ErrDecodeFailed)
		f.recorder.AssertCalled(t, "RecordIngest", domain.DatasetKind(""), domain.FileFormat(""), services.OutcomeFailed, 0, 0, mock.AnythingOfType("time.Duration"))
	})

	t.Run("unsupported format is recorded", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.IngestDetected(ctx, ports.DetectParams{FileName: "report.pdf", Content: []byte("x")})

		assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
		f.recorder.AssertNumberOfCalls(t, "RecordIngest", 1)
	})
}

func TestDashboardService_UploadInProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	started := make(chan struct{})
	release := make(chan struct{})
	f.decoder.On("Decode", mock.Anything, []byte("slow")).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return([]domain.Sheet{{Name: "Ops", Rows: domain.Grid{domain.TextRow("Total Incoming", "10")}}}, nil)

	errCh := make(chan error, 1)
	go func() {
		_, err := f.svc.Ingest(ctx, ports.UploadParams{Kind: domain.KindOperations, FileName: "slow.xlsx", Content: []byte("slow")})
		errCh <- err
	}()
	<-started

	_, err := f.svc.Ingest(ctx, ports.UploadParams{Kind: domain.KindOperations, FileName: "ops.csv", Content: []byte(opsCSV)})
	assert.ErrorIs(t, err, apperrors.ErrUploadInProgress)

	// The other dataset kind is not blocked.
	_, err = f.svc.Ingest(ctx, ports.UploadParams{Kind: domain.KindCases, FileName: "cases.csv", Content: []byte(casesCSV)})
	assert.NoError(t, err)

	close(release)
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("slow ingest did not finish")
	}

	// Once released the kind accepts uploads again.
	_, err = f.svc.Ingest(ctx, ports.UploadParams{Kind: domain.KindOperations, FileName: "ops.csv", Content: []byte(opsCSV)})
	assert.NoError(t, err)
}

func TestDashboardService_ListCases(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, err := f.svc.Ingest(ctx, ports.UploadParams{Kind: domain.KindCases, FileName: "cases.csv", Content: []byte(casesCSV)})
	require.NoError(t, err)

	t.Run("ranked by wait", func(t *testing.T) {
		list, err := f.svc.ListCases(ctx, ports.ListCasesParams{View: "wait"})
		require.NoError(t, err)
		assert.Equal(t, "Cases Ranked by Wait Time", list.Title)
		require.Len(t, list.Cases, 2)
		assert.Equal(t, "R2", list.Cases[0].ID)
		assert.Equal(t, 60, list.Cases[0].AgentWaitTime)
	})

	t.Run("empty view is the overview", func(t *testing.T) {
		list, err := f.svc.ListCases(ctx, ports.ListCasesParams{})
		require.NoError(t, err)
		assert.Equal(t, "overview", list.View)
		assert.Len(t, list.Cases, 2)
	})

	t.Run("unknown view", func(t *testing.T) {
		_, err := f.svc.ListCases(ctx, ports.ListCasesParams{View: "bogus"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidView)
	})
}

func TestDashboardService_StoreFailure(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockDatasetStore()
	broadcaster := mocks.NewMockEventBroadcaster()
	store.On("ReplaceCases", ctx, mock.AnythingOfType("domain.DatasetInfo"), mock.Anything).Return(assert.AnError)

	svc := services.NewDashboardService(store, mocks.NewMockWorkbookDecoder(), broadcaster, nil, quietLogger())
	_, err := svc.Ingest(ctx, ports.UploadParams{Kind: domain.KindCases, FileName: "cases.csv", Content: []byte(casesCSV)})

	assert.ErrorIs(t, err, assert.AnError)
	broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	store.AssertExpectations(t)
}

func TestDashboardService_BroadcastFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	broadcaster := mocks.NewMockEventBroadcaster()
	broadcaster.On("Broadcast", mock.Anything).Return(assert.AnError)

	svc := services.NewDashboardService(memory.NewDatasetStore(), nil, broadcaster, nil, quietLogger())
	result, err := svc.Ingest(ctx, ports.UploadParams{Kind: domain.KindCases, FileName: "cases.csv", Content: []byte(casesCSV)})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Dataset.RecordCount)
	broadcaster.AssertNumberOfCalls(t, "Broadcast", 2)
}
