package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics initializes the OpenTelemetry metrics provider with a Prometheus exporter.
// It returns the HTTP handler for the /metrics endpoint and a shutdown function.
// The shutdown function should be called on application exit for graceful cleanup.
func InitMetrics() (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	otel.SetMeterProvider(provider)

	return promhttp.Handler(), provider.Shutdown, nil
}

// PipelineMetrics holds the counters the worker records per processing
// attempt.
type PipelineMetrics struct {
	Processed metric.Int64Counter
	Failed    metric.Int64Counter
	Skipped   metric.Int64Counter
}

// NewPipelineMetrics registers the pipeline counters on the global meter.
func NewPipelineMetrics(meterName string) (*PipelineMetrics, error) {
	meter := otel.Meter(meterName)

	processed, err := meter.Int64Counter("pogopipe.artifacts.processed",
		metric.WithDescription("Artifacts that reached a processed state"))
	if err != nil {
		return nil, err
	}

	failed, err := meter.Int64Counter("pogopipe.artifacts.failed",
		metric.WithDescription("Artifact processing attempts that failed"))
	if err != nil {
		return nil, err
	}

	skipped, err := meter.Int64Counter("pogopipe.artifacts.skipped",
		metric.WithDescription("Attempts short-circuited by the idempotency check"))
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{Processed: processed, Failed: failed, Skipped: skipped}, nil
}
