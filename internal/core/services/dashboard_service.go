package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lorrc/dispatch-analytics/internal/core/analytics"
	"github.com/lorrc/dispatch-analytics/internal/core/domain"
	apperrors "github.com/lorrc/dispatch-analytics/internal/core/errors"
	"github.com/lorrc/dispatch-analytics/internal/core/ingest"
	"github.com/lorrc/dispatch-analytics/internal/core/ports"
)

// Ingest outcomes reported to the IngestRecorder.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

var formatsByExt = map[string]domain.FileFormat{
	".csv":  domain.FormatDelimited,
	".txt":  domain.FormatDelimited,
	".xlsx": domain.FormatWorkbook,
	".xlsm": domain.FormatWorkbook,
}

// FormatFor picks the decoder for a file from its extension.
func FormatFor(fileName string) (domain.FileFormat, error) {
	format, ok := formatsByExt[strings.ToLower(filepath.Ext(fileName))]
	if !ok {
		return "", apperrors.ErrUnsupportedFormat
	}
	return format, nil
}

// SupportedExtensions lists the file extensions accepted for upload.
func SupportedExtensions() []string {
	return []string{".csv", ".txt", ".xlsx", ".xlsm"}
}

// DashboardService owns the two replaceable datasets and derives the KPI
// snapshot from them.
type DashboardService struct {
	store       ports.DatasetStore
	decoder     ports.WorkbookDecoder
	broadcaster ports.EventBroadcaster
	recorder    ports.IngestRecorder
	logger      *slog.Logger

	mu       sync.Mutex
	inFlight map[domain.DatasetKind]bool
}

var _ ports.DashboardService = (*DashboardService)(nil)

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	store ports.DatasetStore,
	decoder ports.WorkbookDecoder,
	broadcaster ports.EventBroadcaster,
	recorder ports.IngestRecorder,
	logger *slog.Logger,
) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		store:       store,
		decoder:     decoder,
		broadcaster: broadcaster,
		recorder:    recorder,
		logger:      logger,
		inFlight:    make(map[domain.DatasetKind]bool),
	}
}

// decodedFile is an upload after container decoding and before parsing.
type decodedFile struct {
	name   string
	format domain.FileFormat
	text   string
	sheets []domain.Sheet
}

// Ingest parses an uploaded file as the given dataset kind and replaces the
// loaded dataset of that kind.
func (s *DashboardService) Ingest(ctx context.Context, params ports.UploadParams) (*ports.IngestResult, error) {
	if !params.Kind.IsValid() {
		return nil, apperrors.ErrInvalidDatasetKind
	}
	if len(params.Content) == 0 {
		return nil, apperrors.ErrNoFile
	}

	release, err := s.acquire(params.Kind)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	file, err := s.decode(ctx, params.FileName, params.Content)
	if err != nil {
		s.record(params.Kind, "", OutcomeFailed, 0, 0, start)
		return nil, err
	}
	return s.ingestDecoded(ctx, params.Kind, file, start)
}

// IngestDetected decodes a file, works out which dataset it holds from its
// content and ingests it as that kind.
func (s *DashboardService) IngestDetected(ctx context.Context, params ports.DetectParams) (*ports.IngestResult, error) {
	if len(params.Content) == 0 {
		return nil, apperrors.ErrNoFile
	}

	start := time.Now()
	file, err := s.decode(ctx, params.FileName, params.Content)
	if err != nil {
		s.record("", "", OutcomeFailed, 0, 0, start)
		return nil, err
	}

	kind, ok := detectKind(file)
	if !ok {
		s.record("", file.format, OutcomeRejected, 0, 0, start)
		s.logger.WarnContext(ctx, "dataset kind not recognised", "file_name", file.name, "format", file.format)
		return nil, apperrors.ErrUnknownKind
	}

	release, err := s.acquire(kind)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.ingestDecoded(ctx, kind, file, start)
}

func (s *DashboardService) ingestDecoded(ctx context.Context, kind domain.DatasetKind, file decodedFile, start time.Time) (*ports.IngestResult, error) {
	var (
		result *ports.IngestResult
		err    error
	)
	switch kind {
	case domain.KindCases:
		result, err = s.replaceCases(ctx, file)
	default:
		result, err = s.replaceOperations(ctx, file)
	}

	if err != nil {
		outcome := OutcomeFailed
		if errors.Is(err, apperrors.ErrNoValidRows) {
			outcome = OutcomeRejected
		}
		s.record(kind, file.format, outcome, 0, 0, start)
		s.logger.WarnContext(ctx, "dataset rejected",
			"dataset_kind", kind,
			"file_name", file.name,
			"error", err,
		)
		return nil, err
	}

	s.record(kind, file.format, OutcomeAccepted, result.Dataset.RecordCount, result.Dropped, start)
	s.logger.InfoContext(ctx, "dataset replaced",
		"dataset_kind", kind,
		"dataset_id", result.Dataset.ID,
		"file_name", file.name,
		"format", file.format,
		"sheet", result.Dataset.Sheet,
		"records", result.Dataset.RecordCount,
		"dropped_rows", result.Dropped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	s.publish(ctx, result)
	return result, nil
}

func (s *DashboardService) replaceCases(ctx context.Context, file decodedFile) (*ports.IngestResult, error) {
	var (
		parsed    ingest.CaseParse
		sheetName string
	)
	if file.format == domain.FormatWorkbook {
		sheet, ok := ingest.SelectCaseSheet(file.sheets)
		if !ok {
			return nil, apperrors.ErrNoSheets
		}
		sheetName = sheet.Name
		parsed = ingest.ScanCasesGrid(sheet.Rows)
	} else {
		parsed = ingest.ScanCasesText(file.text)
	}

	// The previous dataset stays in place when nothing usable was found.
	if len(parsed.Records) == 0 {
		return nil, apperrors.ErrNoValidRows
	}

	info := domain.NewDatasetInfo(domain.KindCases, file.name, file.format, sheetName, len(parsed.Records))
	if err := s.store.ReplaceCases(ctx, info, parsed.Records); err != nil {
		return nil, fmt.Errorf("failed to store cases: %w", err)
	}

	metrics, err := s.Metrics(ctx)
	if err != nil {
		return nil, err
	}
	return &ports.IngestResult{Dataset: info, Metrics: metrics, Dropped: parsed.Dropped}, nil
}

func (s *DashboardService) replaceOperations(ctx context.Context, file decodedFile) (*ports.IngestResult, error) {
	var (
		src       ingest.Source
		sheetName string
	)
	if file.format == domain.FormatWorkbook {
		sheet, ok := ingest.SelectOpsSheet(file.sheets)
		if !ok {
			return nil, apperrors.ErrNoSheets
		}
		sheetName = sheet.Name
		src = ingest.GridSource(sheet.Rows)
	} else {
		src = ingest.TextSource(file.text)
	}

	parsed := ingest.ScanOperations(src)
	info := domain.NewDatasetInfo(domain.KindOperations, file.name, file.format, sheetName, parsed.Days)
	if err := s.store.ReplaceOperations(ctx, info, parsed.Summary); err != nil {
		return nil, fmt.Errorf("failed to store operations summary: %w", err)
	}

	metrics, err := s.Metrics(ctx)
	if err != nil {
		return nil, err
	}
	summary := parsed.Summary
	return &ports.IngestResult{Dataset: info, OpsSummary: &summary, Metrics: metrics}, nil
}

// State returns both dataset descriptors together with the current KPIs.
func (s *DashboardService) State(ctx context.Context) (*domain.DashboardState, error) {
	data, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.DashboardState{
		Cases:      data.CasesInfo,
		Operations: data.OpsInfo,
		OpsSummary: data.Ops,
		Metrics:    analytics.Compute(data.Cases, data.Ops),
	}, nil
}

// Metrics recomputes the KPI snapshot from the loaded datasets.
func (s *DashboardService) Metrics(ctx context.Context) (domain.MetricsSnapshot, error) {
	data, err := s.store.Snapshot(ctx)
	if err != nil {
		return domain.MetricsSnapshot{}, err
	}
	return analytics.Compute(data.Cases, data.Ops), nil
}

// ListCases returns the drill-down listing for a view.
func (s *DashboardService) ListCases(ctx context.Context, params ports.ListCasesParams) (*ports.CaseList, error) {
	view, err := analytics.ParseView(params.View)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	cases := analytics.Select(data.Cases, view)
	if cases == nil {
		cases = []domain.CaseRecord{}
	}
	return &ports.CaseList{View: string(view), Title: view.Title(), Cases: cases}, nil
}

func (s *DashboardService) decode(ctx context.Context, fileName string, content []byte) (decodedFile, error) {
	format, err := FormatFor(fileName)
	if err != nil {
		return decodedFile{}, err
	}
	file := decodedFile{name: filepath.Base(fileName), format: format}
	if format == domain.FormatDelimited {
		file.text = string(content)
		return file, nil
	}

	sheets, err := s.decoder.Decode(ctx, content)
	if err != nil {
		return decodedFile{}, err
	}
	if len(sheets) == 0 {
		return decodedFile{}, apperrors.ErrNoSheets
	}
	file.sheets = sheets
	return file, nil
}

func detectKind(file decodedFile) (domain.DatasetKind, bool) {
	if file.format == domain.FormatDelimited {
		return ingest.DetectTextKind(file.text)
	}
	for _, sheet := range file.sheets {
		if kind, ok := ingest.DetectKind(sheet.Rows); ok {
			return kind, true
		}
	}
	return "", false
}

// acquire marks an ingest of kind as running. Uploads of the same kind are
// rejected until the returned release func is called.
func (s *DashboardService) acquire(kind domain.DatasetKind) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[kind] {
		return nil, apperrors.ErrUploadInProgress
	}
	s.inFlight[kind] = true
	return func() {
		s.mu.Lock()
		delete(s.inFlight, kind)
		s.mu.Unlock()
	}, nil
}

func (s *DashboardService) record(kind domain.DatasetKind, format domain.FileFormat, outcome string, records, dropped int, start time.Time) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordIngest(kind, format, outcome, records, dropped, time.Since(start))
}

// publish sends the replacement to subscribers of the dataset kind and the
// new KPIs to every connected dashboard.
func (s *DashboardService) publish(ctx context.Context, result *ports.IngestResult) {
	if s.broadcaster == nil {
		return
	}
	event := domain.Event{
		Type: domain.EventDatasetReplaced,
		Kind: result.Dataset.Kind,
		Payload: domain.DatasetReplacedPayload{
			Dataset: result.Dataset,
			Metrics: result.Metrics,
		},
	}
	metrics := domain.Event{Type: domain.EventMetricsUpdated, Payload: result.Metrics}

	for _, e := range []domain.Event{event, metrics} {
		if err := s.broadcaster.Broadcast(e); err != nil {
			s.logger.WarnContext(ctx, "failed to broadcast event",
				"event_type", e.Type,
				"dataset_kind", result.Dataset.Kind,
				"error", err,
			)
		}
	}
}
