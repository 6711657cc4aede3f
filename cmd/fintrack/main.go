package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/cli"
	"fintrack/internal/finance"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/session"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting fintrack", log.FieldOperation, log.OpStartup, "api_base_url", cfg.APIBaseURL, "port", cfg.Port)

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

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), cfg.APITimeout*2)
	defer cancelStartup()

	if err := sessions.Restore(startupCtx); err != nil {
		logger.Error("Failed to restore session", log.FieldError, err)
		os.Exit(1)
	}
	if !sessions.IsAuthenticated() {
		logger.Error("No active session, sign in with fintrack-login first")
		os.Exit(1)
	}

	opts := []finance.Option{
		finance.WithLogger(logger),
		finance.WithPageSize(cfg.PageSize),
		finance.WithOnUnauthorized(func(ctx context.Context) {
			if err := sessions.SignOut(ctx); err != nil {
				logger.WarnContext(ctx, "Failed to clear rejected session", log.FieldError, err)
			}
		}),
	}

	// Event publishing is optional
	var publisher *amqp.Client
	if cfg.AMQPURL != "" {
		publisher, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, mutation events disabled", log.FieldError, err)
		} else {
			opts = append(opts, finance.WithPublisher(publisher))
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
		}
	}

	fc := finance.New(gw, opts...)
	if err := fc.LoadInitial(startupCtx); err != nil {
		// Partial data is still served; failed collections stay empty.
		logger.Warn("Initial load incomplete", log.FieldError, err)
	}

	var writer sheets.AnalyticsWriter
	if cfg.AutoExport {
		client, err := gsheet.NewFromEnv(startupCtx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
		if err != nil {
			logger.Warn("Google Sheets unavailable, automatic export disabled", log.FieldError, err)
		} else {
			writer = client
		}
	}
	locale := analytics.LocaleByName(cfg.Locale)
	syncWorker := worker.NewSyncWorker(fc, writer, worker.Config{
		RefreshInterval: cfg.RefreshInterval,
		Locale:          locale,
	}, logger)

	srv := apphttp.NewServer(cfg.Addr(), fc, apphttp.Options{
		Logger:       logger,
		AnalyticsTTL: cfg.AnalyticsCacheTTL,
		Locale:       locale,
		Ready: func() bool {
			return sessions.IsAuthenticated() && !fc.Loading()
		},
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 2 * cfg.APITimeout
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := syncWorker.Stop(ctx); err != nil {
			logger.Warn("Sync worker stop error", log.FieldError, err)
		}
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
	})

	if err := syncWorker.Start(ctx); err != nil {
		logger.Error("Failed to start sync worker", log.FieldError, err)
	}

	go func() {
		logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
