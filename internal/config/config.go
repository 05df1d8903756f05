// Package config handles environment variable loading for ports, database strings, etc.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"pogopipe/internal/store"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database connection string
	DatabaseURL string

	// HTTP server port for the controller
	HTTPPort int

	// Worker-specific configuration
	WorkerConcurrency  int
	WorkerPollInterval time.Duration
	WorkerQueues       []string

	// Root directory artifact URLs resolve under
	StoragePath string

	// Inference endpoint (OpenAI-compatible)
	InferenceAPIKey  string
	InferenceBaseURL string

	// Bearer secret guarding tenant provisioning
	AdminSecret string

	// OTLP collector endpoint for tracing
	OTELEndpoint string

	// Structured log level: debug, info, warn, error
	LogLevel string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dbUrl := os.Getenv("DATABASE_URL")
	if dbUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	portStr := os.Getenv("PORT")
	port := 7070 // Default
	if portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		port = p
	}

	// Worker Concurrency
	concurrencyStr := os.Getenv("WORKER_CONCURRENCY")
	concurrency := 2 // Default matches the free-tier cap
	if concurrencyStr != "" {
		c, err := strconv.Atoi(concurrencyStr)
		if err != nil {
			return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
		}
		concurrency = c
	}

	// Worker Poll Interval
	pollIntervalStr := os.Getenv("WORKER_POLL_INTERVAL")
	pollInterval := 1 * time.Second
	if pollIntervalStr != "" {
		pi, err := time.ParseDuration(pollIntervalStr)
		if err != nil {
			return nil, fmt.Errorf("invalid WORKER_POLL_INTERVAL: %w", err)
		}
		pollInterval = pi
	}

	// Named queues this worker pulls from
	queues := []string{store.QueueAudio, store.QueueImage, store.QueueSession}
	if queuesStr := os.Getenv("WORKER_QUEUES"); queuesStr != "" {
		queues = nil
		for _, q := range strings.Split(queuesStr, ",") {
			if q = strings.TrimSpace(q); q != "" {
				queues = append(queues, q)
			}
		}
		if len(queues) == 0 {
			return nil, fmt.Errorf("invalid WORKER_QUEUES: no queue names")
		}
	}

	storagePath := os.Getenv("STORAGE_PATH")
	if storagePath == "" {
		storagePath = "storage"
	}

	baseURL := os.Getenv("INFERENCE_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "localhost:4317"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		DatabaseURL:        dbUrl,
		HTTPPort:           port,
		WorkerConcurrency:  concurrency,
		WorkerPollInterval: pollInterval,
		WorkerQueues:       queues,
		StoragePath:        storagePath,
		InferenceAPIKey:    os.Getenv("INFERENCE_API_KEY"),
		InferenceBaseURL:   baseURL,
		AdminSecret:        os.Getenv("ADMIN_SECRET"),
		OTELEndpoint:       otelEndpoint,
		LogLevel:           logLevel,
	}, nil
}
