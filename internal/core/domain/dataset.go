package domain

import (
	"time"

	"github.com/google/uuid"
)

// DatasetKind identifies which of the two replaceable datasets a file feeds.
type DatasetKind string

const (
	KindCases      DatasetKind = "cases"
	KindOperations DatasetKind = "operations"
)

// IsValid checks if the kind is one of the known values
func (k DatasetKind) IsValid() bool {
	return k == KindCases || k == KindOperations
}

// FileFormat is the container format of an uploaded file.
type FileFormat string

const (
	FormatDelimited FileFormat = "delimited"
	FormatWorkbook  FileFormat = "workbook"
)

// DatasetInfo describes the dataset currently loaded for one kind.
type DatasetInfo struct {
	ID          uuid.UUID   `json:"id"`
	Kind        DatasetKind `json:"kind"`
	FileName    string      `json:"fileName"`
	Format      FileFormat  `json:"format"`
	Sheet       string      `json:"sheet,omitempty"`
	RecordCount int         `json:"recordCount"`
	LoadedAt    time.Time   `json:"loadedAt"`
}

// NewDatasetInfo stamps a freshly ingested dataset with an ID and load time.
func NewDatasetInfo(kind DatasetKind, fileName string, format FileFormat, sheet string, count int) DatasetInfo {
	return DatasetInfo{
		ID:          uuid.New(),
		Kind:        kind,
		FileName:    fileName,
		Format:      format,
		Sheet:       sheet,
		RecordCount: count,
		LoadedAt:    time.Now().UTC(),
	}
}

// DashboardState is everything the presentation layer needs in one read.
type DashboardState struct {
	Cases      *DatasetInfo    `json:"cases"`
	Operations *DatasetInfo    `json:"operations"`
	OpsSummary OpsSummary      `json:"opsSummary"`
	Metrics    MetricsSnapshot `json:"metrics"`
}
