package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pharmacy/analytics/internal/application/forecast"
	"github.com/pharmacy/analytics/internal/application/report"
	"github.com/pharmacy/analytics/internal/infrastructure/cache"
	"github.com/pharmacy/analytics/internal/infrastructure/config"
	"github.com/pharmacy/analytics/internal/infrastructure/export"
	"github.com/pharmacy/analytics/internal/infrastructure/logger"
	"github.com/pharmacy/analytics/internal/infrastructure/scheduler"
	"github.com/pharmacy/analytics/internal/infrastructure/storage"
	"github.com/pharmacy/analytics/internal/infrastructure/workbook"
	"github.com/pharmacy/analytics/internal/interfaces/http/handler"
	"github.com/pharmacy/analytics/internal/interfaces/http/middleware"
	"github.com/pharmacy/analytics/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.FromAppConfig(cfg))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting pharmacy analytics",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("workbook", cfg.Workbook.Path),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Workbook snapshot
	loader := workbook.NewLoader(cfg.Workbook.Path,
		workbook.WithLogger(log.Named("workbook")),
		workbook.WithStrictDates(cfg.Workbook.StrictDates),
	)
	snapshots := cache.NewSnapshotCache(loader, cfg.Workbook.CacheTTL,
		cache.WithSnapshotLogger(log.Named("snapshot")),
	)
	// A bad workbook at startup is not fatal: requests answer LOAD_ERROR until a reload succeeds
	if _, err := snapshots.Snapshot(ctx); err != nil {
		log.Error("Initial workbook load failed", zap.Error(err))
	}

	// Forecast result store
	store, err := cache.NewResultStoreFactory(cfg.Redis, cache.WithLogger(log.Named("cache"))).CreateStore()
	if err != nil {
		log.Fatal("Failed to create result store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing result store", zap.Error(err))
		}
	}()

	// Report archive
	archive, err := storage.NewArchive(ctx, cfg.Archive, log.Named("archive"))
	if err != nil {
		log.Fatal("Failed to create report archive", zap.Error(err))
	}

	// Application services
	engine := forecast.NewEngine(log.Named("forecast"))
	dashboardService := report.NewDashboardService(snapshots, engine,
		report.WithResultStore(store, cfg.Forecast.CacheTTL),
		report.WithDashboardLogger(log.Named("dashboard")),
	)
	exportOpts := []report.ExportOption{report.WithExportLogger(log.Named("export"))}
	if archive != nil {
		exportOpts = append(exportOpts, report.WithArchive(archive))
	}
	exportService := report.NewExportService(snapshots, export.NewWriter(export.WithCreator(cfg.App.Name)), exportOpts...)

	// Scheduled refresh
	refreshScheduler := scheduler.NewRefreshScheduler(scheduler.RefreshSchedulerConfig{
		Enabled:    cfg.Workbook.RefreshEnabled,
		Schedule:   cfg.Workbook.RefreshSchedule,
		JobTimeout: scheduler.DefaultRefreshSchedulerConfig().JobTimeout,
	}, snapshots, log.Named("scheduler"))
	if err := refreshScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start refresh scheduler", zap.Error(err))
	}

	// HTTP
	var exportLimiter *middleware.RateLimiter
	if cfg.HTTP.ExportRateLimit > 0 {
		exportLimiter = middleware.NewRateLimiter(cfg.HTTP.ExportRateLimit, time.Minute)
		go exportLimiter.Run(ctx)
	}

	defaults := forecast.DefaultParams()
	defaults.Horizon = cfg.Forecast.DefaultHorizon
	defaults.Confidence = cfg.Forecast.DefaultConfidence
	defaults.ChangepointPriorScale = cfg.Forecast.ChangepointPriorScale

	ginEngine := router.NewEngine(router.EngineConfig{
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RequestTimeout: cfg.HTTP.WriteTimeout,
		ExportLimiter:  exportLimiter,
	}, log, router.Handlers{
		System:    handler.NewSystemHandler(cfg.App.Name, snapshots, refreshScheduler),
		Dataset:   handler.NewDatasetHandler(dashboardService, refreshScheduler),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Forecast:  handler.NewForecastHandler(dashboardService, defaults),
		Export:    handler.NewExportHandler(exportService),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      ginEngine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := refreshScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping refresh scheduler", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
