package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hallgrim/verdandi/internal"
	"github.com/hallgrim/verdandi/internal/billing"
	"github.com/hallgrim/verdandi/internal/handler/api"
	"github.com/hallgrim/verdandi/internal/handler/webhook"
	"github.com/hallgrim/verdandi/internal/middleware"
	"github.com/hallgrim/verdandi/internal/postgres"
	"github.com/hallgrim/verdandi/internal/router"
	"github.com/hallgrim/verdandi/internal/routes"
	"github.com/hallgrim/verdandi/internal/scheduler"
	"github.com/hallgrim/verdandi/internal/service"
	"github.com/hallgrim/verdandi/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	dailyMetricsJob = "daily_metrics"
	monthlyChurnJob = "monthly_churn"

	shutdownTimeout = 10 * time.Second
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	// Verify database connection
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize store
	store := postgres.NewStore(pool)

	// Initialize business telemetry
	telemetry.InitBusinessMetrics("verdandi")

	// Initialize Razorpay billing provider
	logger.Info("Initializing Razorpay billing provider...")
	razorpayConfig := billing.RazorpayConfig{
		KeyID:         cfg.Razorpay.KeyID,
		KeySecret:     cfg.Razorpay.KeySecret,
		WebhookSecret: cfg.Razorpay.WebhookSecret,
	}
	billingProvider, err := billing.NewRazorpayProvider(razorpayConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize Razorpay provider: %w", err)
	}
	logger.Info("Razorpay billing provider initialized", "test_mode", razorpayConfig.IsTestMode())

	// Initialize services
	subscriptionService := service.NewSubscriptionService(store, store, store, billingProvider, logger)
	metricsService := service.NewMetricsService(store, logger)

	// ==========================================================================
	// Build route dependencies
	// ==========================================================================

	apiDeps := routes.APIDeps{
		CreateSubscriptionHandler: api.NewCreateSubscriptionHandler(subscriptionService),
		LatestMetricsHandler:      api.NewLatestMetricsHandler(metricsService),
		HistoricalMetricsHandler:  api.NewHistoricalMetricsHandler(metricsService),
	}

	razorpayWebhookHandler := webhook.NewRazorpayHandler(billingProvider, subscriptionService, webhook.RazorpayConfig{
		WebhookSecret: cfg.Razorpay.WebhookSecret,
	}, logger)
	webhookDeps := routes.WebhookDeps{
		RazorpayHandler: razorpayWebhookHandler.HandleWebhook,
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	// Initialize Prometheus HTTP metrics
	metrics := middleware.NewMetrics("verdandi")

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		router.CORS(cfg.CORS.AllowedOrigins),
		router.Logger(logger),
	)

	// Static dashboard
	r.Static("/static/", "./web/static")
	r.Get("/{$}", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, "./web/static/index.html")
	})

	// Metrics endpoint (should be protected in production via firewall)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.Handler().ServeHTTP(w, req)
	})

	routes.RegisterAPIRoutes(r, apiDeps)
	routes.RegisterWebhookRoutes(r, webhookDeps)

	// ==========================================================================
	// Schedule aggregation jobs
	// ==========================================================================

	sched := scheduler.New(logger)
	if err := sched.Schedule(dailyMetricsJob, cfg.Jobs.DailyMetricsSchedule, metricsService.CalculateDailyMetrics); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", dailyMetricsJob, err)
	}
	if err := sched.Schedule(monthlyChurnJob, cfg.Jobs.MonthlyChurnSchedule, metricsService.CalculateMonthlyChurn); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", monthlyChurnJob, err)
	}
	sched.Start()

	// Seed today's metric row so the dashboard has data before the first tick.
	sched.RunNow(dailyMetricsJob, metricsService.CalculateDailyMetrics)

	// ==========================================================================
	// Start server
	// ==========================================================================

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Wait for in-flight jobs before closing the pool.
	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("Timed out waiting for running jobs")
	}

	logger.Info("Shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
