package mocks

import (
	"context"
	"time"

	"github.com/lorrc/dispatch-analytics/internal/core/domain"
	"github.com/lorrc/dispatch-analytics/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockDatasetStore is a mock implementation of ports.DatasetStore
type MockDatasetStore struct {
	mock.Mock
}

func NewMockDatasetStore() *MockDatasetStore {
	return &MockDatasetStore{}
}

func (m *MockDatasetStore) ReplaceCases(ctx context.Context, info domain.DatasetInfo, cases []domain.CaseRecord) error {
	args := m.Called(ctx, info, cases)
	return args.Error(0)
}

func (m *MockDatasetStore) ReplaceOperations(ctx context.Context, info domain.DatasetInfo, ops domain.OpsSummary) error {
	args := m.Called(ctx, info, ops)
	return args.Error(0)
}

func (m *MockDatasetStore) Snapshot(ctx context.Context) (ports.Datasets, error) {
	args := m.Called(ctx)
	return args.Get(0).(ports.Datasets), args.Error(1)
}

// MockWorkbookDecoder is a mock implementation of ports.WorkbookDecoder
type MockWorkbookDecoder struct {
	mock.Mock
}

func NewMockWorkbookDecoder() *MockWorkbookDecoder {
	return &MockWorkbookDecoder{}
}

func (m *MockWorkbookDecoder) Decode(ctx context.Context, content []byte) ([]domain.Sheet, error) {
	args := m.Called(ctx, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Sheet), args.Error(1)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockIngestRecorder is a mock implementation of ports.IngestRecorder
type MockIngestRecorder struct {
	mock.Mock
}

func NewMockIngestRecorder() *MockIngestRecorder {
	return &MockIngestRecorder{}
}

func (m *MockIngestRecorder) RecordIngest(kind domain.DatasetKind, format domain.FileFormat, outcome string, records, dropped int, elapsed time.Duration) {
	m.Called(kind, format, outcome, records, dropped, elapsed)
}

// MockDashboardService is a mock implementation of ports.DashboardService
type MockDashboardService struct {
	mock.Mock
}

func NewMockDashboardService() *MockDashboardService {
	return &MockDashboardService{}
}

func (m *MockDashboardService) Ingest(ctx context.Context, params ports.UploadParams) (*ports.IngestResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.IngestResult), args.Error(1)
}

func (m *MockDashboardService) IngestDetected(ctx context.Context, params ports.DetectParams) (*ports.IngestResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.IngestResult), args.Error(1)
}

func (m *MockDashboardService) State(ctx context.Context) (*domain.DashboardState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardState), args.Error(1)
}

func (m *MockDashboardService) Metrics(ctx context.Context) (domain.MetricsSnapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.MetricsSnapshot), args.Error(1)
}

func (m *MockDashboardService) ListCases(ctx context.Context, params ports.ListCasesParams) (*ports.CaseList, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.CaseList), args.Error(1)
}
