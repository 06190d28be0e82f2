package ports

import (
	"context"
	"time"

	"github.com/lorrc/dispatch-analytics/internal/core/domain"
)

// UploadParams defines the input for ingesting one uploaded file.
type UploadParams struct {
	Kind     domain.DatasetKind
	FileName string
	Content  []byte
}

// DetectParams defines the input for ingesting a file whose kind is not
// known up front, such as one dropped into the watch folder.
type DetectParams struct {
	FileName string
	Content  []byte
}

// IngestResult describes a dataset that replaced the previous one.
type IngestResult struct {
	Dataset    domain.DatasetInfo     `json:"dataset"`
	OpsSummary *domain.OpsSummary     `json:"opsSummary,omitempty"`
	Metrics    domain.MetricsSnapshot `json:"metrics"`
	// Dropped counts rows that were skipped as not being cases.
	Dropped int `json:"droppedRows"`
}

// ListCasesParams defines the input for a drill-down case listing.
type ListCasesParams struct {
	View string
}

// CaseList is a drill-down listing with its heading.
type CaseList struct {
	View  string              `json:"view"`
	Title string              `json:"title"`
	Cases []domain.CaseRecord `json:"cases"`
}

// DashboardService defines the core operations behind the KPI dashboard.
type DashboardService interface {
	Ingest(ctx context.Context, params UploadParams) (*IngestResult, error)
	IngestDetected(ctx context.Context, params DetectParams) (*IngestResult, error)
	State(ctx context.Context) (*domain.DashboardState, error)
	Metrics(ctx context.Context) (domain.MetricsSnapshot, error)
	ListCases(ctx context.Context, params ListCasesParams) (*CaseList, error)
}

// WorkbookDecoder turns a spreadsheet container into per-sheet grids.
type WorkbookDecoder interface {
	Decode(ctx context.Context, content []byte) ([]domain.Sheet, error)
}

// EventBroadcaster defines the port for pushing real-time events to dashboards.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}

// IngestRecorder defines the port for recording ingestion telemetry.
type IngestRecorder interface {
	RecordIngest(kind domain.DatasetKind, format domain.FileFormat, outcome string, records, dropped int, elapsed time.Duration)
}
