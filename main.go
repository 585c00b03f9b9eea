package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	database "github.com/FACorreiaa/go-family-journey/app/db"
	appLogger "github.com/FACorreiaa/go-family-journey/app/logger"
	appMiddleware "github.com/FACorreiaa/go-family-journey/app/middleware"
	"github.com/FACorreiaa/go-family-journey/app/observability/metrics"
	"github.com/FACorreiaa/go-family-journey/app/tracer"
	"github.com/FACorreiaa/go-family-journey/config"
	"github.com/FACorreiaa/go-family-journey/internal/api/dialogue"
	"github.com/FACorreiaa/go-family-journey/internal/api/evaluation"
	"github.com/FACorreiaa/go-family-journey/internal/api/family"
	"github.com/FACorreiaa/go-family-journey/internal/api/geofence"
	"github.com/FACorreiaa/go-family-journey/internal/api/journey"
	"github.com/FACorreiaa/go-family-journey/internal/api/memory"
	"github.com/FACorreiaa/go-family-journey/internal/api/route"
	api "github.com/FACorreiaa/go-family-journey/internal/router"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger(cfg.Mode)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	if err := tracer.InitTracingAndMetrics(); err != nil {
		logger.Error("Failed to initialize tracing and metrics", slog.Any("error", err))
		os.Exit(1)
	}
	metrics.InitAppMetrics()

	// --- Database Setup ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	// Run migrations *before* initializing the main pool
	err = database.RunMigrations(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Route & Journey Components ---
	catalog, err := route.NewCatalog(cfg.Route.POIs, cfg.Journey.DefaultArrivalRadius)
	if err != nil {
		logger.Error("Failed to load route catalog", slog.Any("error", err))
		os.Exit(1)
	}
	detector := geofence.NewDetector()
	progression := route.NewProgression(catalog, detector, cfg.Journey.WalkingSpeedKmh, logger)
	evaluator := evaluation.NewEvaluator(catalog, evaluation.NewKeywordClassifier(), evaluation.Config{
		ArrivalPoints:    cfg.Journey.ArrivalPoints,
		EngagementPoints: cfg.Journey.EngagementPoints,
		QuestionPoints:   cfg.Journey.QuestionPoints,
	}, logger)
	ledger := evaluation.NewLedger(logger)
	buffer := memory.NewBuffer(cfg.Journey.MemoryCap)

	generator, err := dialogue.NewGeminiGenerator(ctx, os.Getenv("GEMINI_API_KEY"), cfg.Journey.GeminiModel, logger)
	if err != nil {
		logger.Error("Failed to initialize dialogue generator", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Dependency Injection ---
	familyRepo := family.NewRepositoryImpl(pool, logger)
	familyService := family.NewServiceImpl(familyRepo, &cfg, logger)
	familyHandler := family.NewHandlerImpl(familyService, logger)

	journeyRepo := journey.NewRepositoryImpl(pool, logger)
	progressStore := journey.NewProgressStore(journeyRepo, cfg.Journey.CacheTTL, logger)
	journeyService := journey.NewServiceImpl(progressStore, catalog, detector, progression, evaluator, ledger, buffer, generator, logger)
	journeyHandler := journey.NewHandlerImpl(journeyService, logger)

	// --- Router Setup ---
	routerConfig := &api.Config{
		FamilyHandler:          familyHandler,
		JourneyHandler:         journeyHandler,
		AuthenticateMiddleware: appMiddleware.Authenticate([]byte(cfg.Auth.JWTSecretKey)),
	}
	mainRouter := api.SetupRouter(routerConfig)

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(appLogger.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middleware.Compress(5, "application/json"))
	router.Mount("/", mainRouter)

	// --- HTTP Servers ---
	srv := &http.Server{
		Addr:         cfg.Server.HTTPPort,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:        cfg.Handlers.Prometheus.Port,
		Handler:     metricsMux,
		ReadTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("Starting metrics server", slog.String("address", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutdown signal received, starting graceful shutdown...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
		}
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server graceful shutdown failed", slog.Any("error", err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger(mode string) *slog.Logger {
	var logger *slog.Logger

	if mode == "development" || mode == "" {
		// Colored logs for development
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		// JSON logs for production or other environments
		jsonOpts := &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
