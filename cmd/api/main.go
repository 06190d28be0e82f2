package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpAdapter "github.com/lorrc/dispatch-analytics/internal/adapters/primary/http"
	mw "github.com/lorrc/dispatch-analytics/internal/adapters/primary/http/middleware"
	"github.com/lorrc/dispatch-analytics/internal/adapters/primary/watch"
	"github.com/lorrc/dispatch-analytics/internal/adapters/primary/websocket"
	"github.com/lorrc/dispatch-analytics/internal/adapters/secondary/memory"
	"github.com/lorrc/dispatch-analytics/internal/adapters/secondary/workbook"
	"github.com/lorrc/dispatch-analytics/internal/config"
	"github.com/lorrc/dispatch-analytics/internal/core/services"
	"github.com/lorrc/dispatch-analytics/internal/infrastructure/logging"
	"github.com/lorrc/dispatch-analytics/internal/infrastructure/metrics"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.ServiceName = cfg.App.Name
	logCfg.Environment = cfg.App.Environment
	// Production logs are always shipped as JSON
	if !cfg.IsProduction() {
		logCfg.Format = cfg.Logging.Format
	}
	logger := logging.NewLogger(logCfg)

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. Storage, decoding and real-time fan-out
	store := memory.NewDatasetStore()
	decoder := workbook.NewDecoder()
	hub := websocket.NewHub(logger)
	go hub.Run()

	// 4. Initialize Rate Limiters
	var generalRateLimiter, uploadRateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		generalCfg := mw.DefaultRateLimiterConfig()
		generalCfg.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		generalCfg.BurstSize = cfg.RateLimit.BurstSize
		generalRateLimiter = mw.NewRateLimiter(generalCfg)

		uploadCfg := mw.UploadRateLimiterConfig()
		uploadCfg.RequestsPerSecond = cfg.RateLimit.UploadRPS
		uploadCfg.BurstSize = cfg.RateLimit.UploadBurst
		uploadRateLimiter = mw.NewRateLimiter(uploadCfg)
	}

	// 5. Dependency Injection (Wiring the Hexagon)
	dashboardService := services.NewDashboardService(store, decoder, hub, metrics.Recorder{}, logger)
	watcher := watch.New(cfg.Watch, dashboardService, logger)

	errorHandler := httpAdapter.NewErrorHandler(logger)

	var uploadMiddleware func(http.Handler) http.Handler
	if uploadRateLimiter != nil {
		uploadMiddleware = uploadRateLimiter.Middleware
	}
	dashboardHandler := httpAdapter.NewDashboardHandler(dashboardService, errorHandler, logger, cfg.Upload.MaxBytes, uploadMiddleware)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, dashboardService, cfg, logger)
	healthHandler := httpAdapter.NewHealthHandler(cfg.App.Version, map[string]httpAdapter.HealthChecker{
		"datasets": store,
		"watcher":  watcher,
	})

	// 6. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders:   []string{mw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Apply general rate limiting if enabled
	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Health and metrics endpoints (outside /api/v1 for standard probe paths)
	healthHandler.RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		dashboardHandler.RegisterRoutes(r)

		// WebSocket route (subscriptions are parsed inside the handler)
		r.Get("/ws", wsHandler.ServeHTTP)
	})

	// 7. Drop folder watcher
	if err := watcher.Start(ctx); err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}
	go func() {
		if err := watcher.Backfill(ctx); err != nil {
			logger.Warn("watcher backfill failed", "error", err)
		}
	}()

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())
	stop()

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	if generalRateLimiter != nil {
		generalRateLimiter.Stop()
		uploadRateLimiter.Stop()
	}

	logger.Info("server shutdown complete")
}
