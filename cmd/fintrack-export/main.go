package main

import (
	"context"
	"flag"
	"os"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/cli"
	"fintrack/internal/finance"
	"fintrack/internal/log"
	"fintrack/internal/session"
	ports "fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	mem "fintrack/internal/sheets/memory"
	"fintrack/internal/worker"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "compute the export without writing to Google Sheets")
	topN := flag.Int("top", analytics.DefaultTopN, "entries per ranking table")
	maxPages := flag.Int("max-pages", 0, "stop after this many transaction pages (0 = all)")
	timeout := flag.Duration("timeout", 5*time.Minute, "timeout of the initial load and export")
	watch := flag.Bool("watch", false, "keep running and re-export whenever the data changes")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if !cfg.ExportEnabled() && !*dryRun {
		logger.Error("GOOGLE_SPREADSHEET_ID is required unless -dry-run is set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	gw := cli.NewGateway(cfg, logger)
	kv, kvCloser, err := cli.OpenSessionKV(cfg, logger)
	if err != nil {
		logger.Error("Failed to open session store", log.FieldError, err)
		os.Exit(1)
	}
	defer kvCloser.Close()

	sessions := session.New(kv, cfg.SessionKey, gw,
		session.WithLogger(logger),
		session.WithTokenSink(gw))
	if err := sessions.Restore(ctx); err != nil || !sessions.IsAuthenticated() {
		logger.Error("No active session, sign in with fintrack-login first", log.FieldError, err)
		os.Exit(1)
	}

	var writer ports.AnalyticsWriter
	var dry *mem.Store
	if *dryRun {
		dry = mem.New()
		writer = dry
	} else {
		client, err := gsheet.NewFromEnv(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer = client
	}

	fc := finance.New(gw,
		finance.WithLogger(logger),
		finance.WithPageSize(cfg.PageSize),
		finance.WithOnUnauthorized(func(ctx context.Context) { _ = sessions.SignOut(ctx) }))

	start := time.Now()
	if err := fc.LoadInitial(ctx); err != nil {
		logger.Error("Failed to load reference data", log.FieldError, err)
		os.Exit(1)
	}
	if err := fc.LoadAll(ctx, *maxPages); err != nil {
		logger.Error("Failed to load transactions", log.FieldError, err)
		os.Exit(1)
	}

	locale := analytics.LocaleByName(cfg.Locale)
	syncWorker := worker.NewSyncWorker(fc, writer, worker.Config{
		RefreshInterval: cfg.RefreshInterval,
		TopN:            *topN,
		Locale:          locale,
		FullReload:      true,
		MaxPages:        *maxPages,
	}, logger)
	if err := syncWorker.ForceExport(ctx); err != nil {
		logger.Error("Export failed", log.FieldOperation, log.OpExport, log.FieldError, err)
		os.Exit(1)
	}

	snap := fc.Snapshot()
	fields := log.NewFields().WithOperation(log.OpExport).WithDuration(time.Since(start))
	fields["transactions"] = len(snap.Transactions)
	fields["dry_run"] = *dryRun
	if dry != nil {
		m, _ := dry.Monthly()
		fields["months"] = m.Len()
		fields["rankings"] = len(dry.Titles())
	}
	logger.Info("Export complete", fields.ToSlice()...)

	if !*watch {
		return
	}

	watchCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := syncWorker.Stop(ctx); err != nil {
			logger.Warn("Sync worker stop error", log.FieldError, err)
		}
	})
	if err := syncWorker.Start(watchCtx); err != nil {
		logger.Error("Failed to start sync worker", log.FieldError, err)
		os.Exit(1)
	}
	cli.WaitForShutdown(watchCtx, done)
}
