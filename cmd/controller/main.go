// Package main is the entry point for the pogopipe controller.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"pogopipe/internal/config"
	"pogopipe/internal/controller"
	"pogopipe/internal/logger"
	"pogopipe/internal/observability"
	"pogopipe/internal/pipeline"
	"pogopipe/internal/store/postgres"
)

func main() {
	// Parse flags
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	envFile := flag.String("env-file", "", "Path to an env file loaded before reading the environment")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("Failed to load env file: %v", err)
		}
	} else {
		// Best effort: a local .env is optional
		_ = godotenv.Load()
	}

	// Load Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.AdminSecret == "" {
		log.Fatal("ADMIN_SECRET is required for the controller")
	}

	slogger := logger.New(cfg.LogLevel)

	// Setup Database
	ctx := context.Background()
	st, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer st.Close()

	// Run migrations if requested
	if *migrateFlag {
		slogger.Info("running database migrations")
		if err := postgres.Migrate(st.DB()); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		slogger.Info("migrations completed")
	}

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "pogopipe-controller", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slogger.Warn("failed to shutdown tracer", "error", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			slogger.Warn("failed to shutdown metrics", "error", err)
		}
	}()

	// Use an Observable Gauge (Async) that queries the DB only when scraped.
	meter := otel.Meter("pogopipe-controller")
	_, err = meter.Int64ObservableGauge("pogopipe.queue.depth",
		metric.WithDescription("Current number of jobs in the queue"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			count, err := st.Count(ctx)
			if err != nil {
				slogger.Warn("failed to count queue depth", "error", err)
				return nil // Don't crash metrics scrape on DB error
			}
			obs.Observe(count)
			return nil
		}),
	)
	if err != nil {
		slogger.Warn("failed to register queue depth metric", "error", err)
	}

	// Pipeline services backing the HTTP API
	svc := pipeline.NewService(st, slogger)
	coord := pipeline.NewCoordinator(st, svc, slogger)

	// Start Server
	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := controller.New(controller.Config{
		Addr:        addr,
		AdminSecret: cfg.AdminSecret,
		Metrics:     metricsHandler,
	}, st, svc, coord)

	go func() {
		slogger.Info("controller starting", "addr", addr)
		if err := srv.Run(ctx); err != nil {
			slogger.Error("server stopped", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slogger.Info("shutting down controller")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	slogger.Info("server exited properly")
}
