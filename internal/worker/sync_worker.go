// Package worker runs the periodic background jobs of a long-lived
// process: refreshing reference data from the backend and re-exporting
// analytics when the cached data changed.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/finance"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// Source is the part of the finance cache the worker reads and refreshes.
type Source interface {
	LoadAccounts(ctx context.Context) error
	LoadCategories(ctx context.Context) error
	LoadTags(ctx context.Context) error
	LoadAll(ctx context.Context, maxPages int) error
	Snapshot() finance.Snapshot
}

// Config holds configuration for the sync worker
type Config struct {
	// RefreshInterval is how often reference data is reloaded (default: 10m)
	RefreshInterval time.Duration

	// TopN is the ranking length written on export (default: analytics.DefaultTopN)
	TopN int

	Locale analytics.Locale

	// FullReload also refetches every transaction page on each cycle,
	// bounded by MaxPages (0 = all).
	FullReload bool
	MaxPages   int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RefreshInterval: 10 * time.Minute,
		TopN:            analytics.DefaultTopN,
		Locale:          analytics.PortugueseBR,
	}
}

// SyncWorker refreshes reference data and keeps an optional analytics
// export in step with the cache.
type SyncWorker struct {
	source Source
	writer sheets.AnalyticsWriter
	config Config
	logger *log.Logger

	exportMu     sync.Mutex
	exported     bool
	lastExported uint64

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncWorker creates a new sync worker. writer may be nil, in which
// case only the refresh runs.
func NewSyncWorker(source Source, writer sheets.AnalyticsWriter, config Config, logger *log.Logger) *SyncWorker {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = DefaultConfig().RefreshInterval
	}
	if config.TopN <= 0 {
		config.TopN = analytics.DefaultTopN
	}
	if config.Locale.Months[0] == "" {
		config.Locale = analytics.PortugueseBR
	}
	if logger == nil {
		logger = log.NewSilent()
	}
	return &SyncWorker{
		source: source,
		writer: writer,
		config: config,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// RefreshReferenceData reloads accounts, categories and tags. Every
// collection is attempted; failures are joined.
func (w *SyncWorker) RefreshReferenceData(ctx context.Context) error {
	err := errors.Join(
		w.source.LoadAccounts(ctx),
		w.source.LoadCategories(ctx),
		w.source.LoadTags(ctx),
	)
	if err != nil {
		return fmt.Errorf("refresh reference data: %w", err)
	}
	w.logger.DebugContext(ctx, "Reference data refreshed", log.FieldOperation, log.OpLoad)
	return nil
}

// ExportIfChanged exports when the cached dataset differs from what was
// last exported. It reports whether a write happened.
func (w *SyncWorker) ExportIfChanged(ctx context.Context) (bool, error) {
	if w.writer == nil {
		return false, nil
	}
	w.exportMu.Lock()
	defer w.exportMu.Unlock()

	ds := w.dataset()
	sum, err := fingerprint(ds)
	if err != nil {
		return false, err
	}
	if w.exported && sum == w.lastExported {
		w.logger.DebugContext(ctx, "Export skipped, data unchanged", log.FieldOperation, log.OpExport)
		return false, nil
	}
	if err := w.export(ctx, ds); err != nil {
		return false, err
	}
	w.exported, w.lastExported = true, sum
	return true, nil
}

// ForceExport exports regardless of what was exported before.
func (w *SyncWorker) ForceExport(ctx context.Context) error {
	if w.writer == nil {
		return errors.New("no analytics writer configured")
	}
	w.exportMu.Lock()
	defer w.exportMu.Unlock()

	ds := w.dataset()
	if err := w.export(ctx, ds); err != nil {
		return err
	}
	if sum, err := fingerprint(ds); err == nil {
		w.exported, w.lastExported = true, sum
	}
	return nil
}

func (w *SyncWorker) export(ctx context.Context, ds sheets.Dataset) error {
	start := time.Now()
	if err := sheets.Export(ctx, w.writer, ds, w.config.Locale, w.config.TopN); err != nil {
		w.logger.ErrorContext(ctx, "Analytics export failed", log.NewFields().WithOperation(log.OpExport).WithError(err).ToSlice()...)
		return err
	}
	fields := log.NewFields().WithOperation(log.OpExport).WithDuration(time.Since(start))
	fields["transactions"] = len(ds.Transactions)
	w.logger.InfoContext(ctx, "Analytics exported", fields.ToSlice()...)
	return nil
}

func (w *SyncWorker) dataset() sheets.Dataset {
	snap := w.source.Snapshot()
	return sheets.Dataset{
		Transactions: snap.Transactions,
		Categories:   snap.Categories,
		Accounts:     snap.Accounts,
	}
}

func fingerprint(ds sheets.Dataset) (uint64, error) {
	h := fnv.New64a()
	if err := json.NewEncoder(h).Encode(ds); err != nil {
		return 0, fmt.Errorf("fingerprint dataset: %w", err)
	}
	return h.Sum64(), nil
}

// Start begins the refresh loop. Returns an error if already running.
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("sync worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	w.logger.InfoContext(ctx, "Sync worker started",
		"refresh_interval", w.config.RefreshInterval,
		"export", w.writer != nil)
	return nil
}

// Stop gracefully stops the worker and waits for the current cycle.
func (w *SyncWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		w.logger.InfoContext(ctx, "Sync worker stopped gracefully")
		return nil
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Sync worker stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the worker loop is active
func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *SyncWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.cycle(ctx)
		}
	}
}

func (w *SyncWorker) cycle(ctx context.Context) {
	if err := w.RefreshReferenceData(ctx); err != nil {
		w.logger.WarnContext(ctx, "Reference refresh failed", log.FieldError, err)
	}
	if w.config.FullReload {
		if err := w.source.LoadAll(ctx, w.config.MaxPages); err != nil {
			// Exporting a partial window would overwrite a complete one.
			w.logger.WarnContext(ctx, "Transaction reload failed", log.FieldError, err)
			return
		}
	}
	if _, err := w.ExportIfChanged(ctx); err != nil {
		w.logger.WarnContext(ctx, "Scheduled export failed", log.FieldError, err)
	}
}
