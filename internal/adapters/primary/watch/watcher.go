package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/lorrc/dispatch-analytics/internal/config"
	apperrors "github.com/lorrc/dispatch-analytics/internal/core/errors"
	"github.com/lorrc/dispatch-analytics/internal/core/ports"
	"github.com/lorrc/dispatch-analytics/internal/core/services"
	"github.com/lorrc/dispatch-analytics/internal/infrastructure/logging"
)

// Watcher monitors the drop folder for exported files and ingests each one
// as whichever dataset its content matches.
type Watcher struct {
	cfg     config.WatchConfig
	service ports.DashboardService
	logger  *slog.Logger

	running atomic.Bool

	mu      sync.Mutex
	pending map[string]*time.Timer

	// initialInterval is the first retry delay; tests shorten it.
	initialInterval time.Duration
}

func New(cfg config.WatchConfig, service ports.DashboardService, logger *slog.Logger) *Watcher {
	return &Watcher{
		cfg:             cfg,
		service:         service,
		logger:          logger.With("component", "watcher"),
		pending:         make(map[string]*time.Timer),
		initialInterval: 500 * time.Millisecond,
	}
}

// Start begins watching the configured directory. It returns once the watch
// is registered; events are handled until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if !w.cfg.Enabled {
		w.logger.Info("watcher disabled")
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.cfg.Dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}

	w.running.Store(true)
	w.logger.Info("watching drop folder", "dir", w.cfg.Dir)

	go func() {
		defer func() {
			w.running.Store(false)
			_ = watcher.Close()
			w.stopPending()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 && IsDatasetFile(evt.Name) {
					w.schedule(ctx, evt.Name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watcher error", "error", err)
			}
		}
	}()
	return nil
}

// Backfill ingests files already sitting in the drop folder, oldest name first.
func (w *Watcher) Backfill(ctx context.Context) error {
	if !w.cfg.Enabled {
		return nil
	}
	entries, err := filepath.Glob(filepath.Join(w.cfg.Dir, "*"))
	if err != nil {
		return err
	}
	for _, e := range entries {
		if IsDatasetFile(e) {
			w.process(ctx, e)
		}
	}
	return nil
}

// Ping reports whether the watch loop is running. Disabled watchers are healthy.
func (w *Watcher) Ping(ctx context.Context) error {
	if !w.cfg.Enabled || w.running.Load() {
		return nil
	}
	return errors.New("watcher is not running")
}

// IsDatasetFile reports whether path has an ingestible extension. Editor
// lock files such as "~$cases.xlsx" are ignored.
func IsDatasetFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") {
		return false
	}
	_, err := services.FormatFor(base)
	return err == nil
}

// schedule coalesces the burst of events a single copy produces into one
// ingest, run once the file has been quiet for the debounce period.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.cfg.Debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.process(ctx, path)
	})
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// process reads and ingests one file. Reads that come back empty and
// uploads racing another ingest of the same kind are retried with backoff;
// content errors are not.
func (w *Watcher) process(ctx context.Context, path string) {
	ctx = logging.WithSource(ctx, "watch")
	name := filepath.Base(path)

	operation := func() error {
		content, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return backoff.Permanent(err)
			}
			return err
		}
		if len(content) == 0 {
			return apperrors.ErrNoFile
		}

		result, err := w.service.IngestDetected(ctx, ports.DetectParams{FileName: name, Content: content})
		if err != nil {
			if errors.Is(err, apperrors.ErrUploadInProgress) {
				return err
			}
			return backoff.Permanent(err)
		}

		w.logger.InfoContext(ctx, "ingested dropped file",
			"file_name", name,
			"dataset_kind", result.Dataset.Kind,
			"records", result.Dataset.RecordCount,
		)
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = w.initialInterval
	bo.MaxElapsedTime = 2 * time.Minute
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(w.cfg.MaxRetries)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		w.logger.WarnContext(ctx, "failed to ingest dropped file",
			"file_name", name,
			"error", err,
		)
	}
}
