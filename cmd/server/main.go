package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/dgallion1/docredact/internal/api"
	"github.com/dgallion1/docredact/internal/config"
	"github.com/dgallion1/docredact/internal/detector"
	"github.com/dgallion1/docredact/internal/observability"
	"github.com/dgallion1/docredact/internal/parser"
	"github.com/dgallion1/docredact/internal/pipeline"
	"github.com/dgallion1/docredact/internal/redaction"
	"github.com/dgallion1/docredact/internal/storage"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reporter api.ErrorReporter
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.SentryEnvironment,
		}); err != nil {
			log.Error("sentry init failed", "error", err)
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
		reporter = api.SentryReporter{}
	}

	store, err := storage.New(ctx, storage.Config{
		Backend:     cfg.StorageBackend,
		DataDir:     cfg.DataDir,
		DatabaseURL: cfg.DatabaseURL,
		KVURL:       cfg.KVURL,
		KVAPIKey:    cfg.KVAPIKey,
	})
	if err != nil {
		log.Error("failed to open storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	stats := observability.NewLatencyStats(5 * time.Minute)

	engine := detector.New(
		detector.WithLogger(log),
		detector.WithPhoneRegion(cfg.PhoneRegion),
	)
	svc := redaction.NewService(store,
		redaction.WithEngine(engine),
		redaction.WithParserOptions(parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}),
		redaction.WithMetrics(metrics),
		redaction.WithStats(stats),
		redaction.WithLogger(log),
	)

	janitor, err := storage.NewJanitor(store, cfg.RetentionSchedule, cfg.RetentionTTL, log, func(n int) {
		metrics.RetentionRemoved.Add(float64(n))
	})
	if err != nil {
		log.Error("invalid retention schedule", "schedule", cfg.RetentionSchedule, "error", err)
		os.Exit(1)
	}
	janitor.Start()

	orch := pipeline.NewOrchestrator(cfg, svc, metrics, log)
	orch.Start(ctx)

	srv := api.NewServer(api.Deps{
		Service:      svc,
		Orchestrator: orch,
		Metrics:      metrics,
		Stats:        stats,
		Reporter:     reporter,
	}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		janitor.Stop()
	}()

	log.Info("starting docredact",
		"port", cfg.Port,
		"storage_backend", cfg.StorageBackend,
		"workers", cfg.WorkerCount,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
}
