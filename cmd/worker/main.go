// Package main is the entry point for the pogopipe worker.
// The worker pulls queued jobs and runs artifact analysis in-process:
// blob reads, inference calls, update log appends and vector indexing.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"pogopipe/internal/analyzer"
	"pogopipe/internal/config"
	"pogopipe/internal/logger"
	"pogopipe/internal/observability"
	"pogopipe/internal/pipeline"
	"pogopipe/internal/storage"
	"pogopipe/internal/store"
	"pogopipe/internal/store/postgres"
	"pogopipe/internal/vector"
	"pogopipe/internal/worker"
)

func main() {
	// Parse flags
	envFile := flag.String("env-file", "", "Path to an env file loaded before reading the environment")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("Failed to load env file: %v", err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer st.Close()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "pogopipe-worker", cfg.OTELEndpoint)
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

	pipelineMetrics, err := observability.NewPipelineMetrics("pogopipe-worker")
	if err != nil {
		log.Fatalf("Failed to register pipeline metrics: %v", err)
	}

	// Analyzer stack: one OpenAI-compatible client shared by all types
	client := analyzer.NewClient(cfg.InferenceBaseURL, cfg.InferenceAPIKey)
	analyzers := map[store.CaptureType]analyzer.Analyzer{
		store.CaptureAudio:      analyzer.NewAudioAnalyzer(client, analyzer.DefaultAudioModel),
		store.CaptureImage:      analyzer.NewImageAnalyzer(client, analyzer.DefaultImageModel),
		store.CaptureScreenshot: analyzer.NewImageAnalyzer(client, analyzer.DefaultImageModel),
	}

	blobs := storage.NewFilesystemStore(cfg.StoragePath)
	indexer := vector.New(client, st, analyzer.DefaultEmbeddingModel)

	orchestrator := pipeline.NewOrchestrator(st, st, blobs, analyzers, indexer, slogger)
	svc := pipeline.NewService(st, slogger)
	coordinator := pipeline.NewCoordinator(st, svc, slogger)

	hostname, _ := os.Hostname()
	agent := worker.New(st, orchestrator, coordinator, pipelineMetrics, worker.AgentConfig{
		ID:           hostname,
		Concurrency:  cfg.WorkerConcurrency,
		PollInterval: cfg.WorkerPollInterval,
		Queues:       cfg.WorkerQueues,
	}, slogger)

	slogger.Info("worker started",
		"concurrency", cfg.WorkerConcurrency,
		"queues", cfg.WorkerQueues,
	)
	go agent.Run(ctx)

	// Start a dedicated metrics server on port 6162
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		slogger.Info("worker metrics listening on :6162")
		if err := http.ListenAndServe(":6162", mux); err != nil {
			slogger.Error("metrics server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slogger.Info("shutting down worker")
	cancel()

	<-agent.Done()
}
