// Package worker contains the pull-loop that claims queued jobs and
// runs them through the processing pipeline.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"pogopipe/internal/observability"
	"pogopipe/internal/pipeline"
	"pogopipe/internal/store"
)

// ArtifactProcessor runs one artifact processing attempt.
type ArtifactProcessor interface {
	Process(ctx context.Context, req pipeline.ProcessRequest) (*pipeline.ProcessResult, error)
}

// SessionProcessor fans a session batch job out into artifact jobs.
type SessionProcessor interface {
	ProcessSession(ctx context.Context, sessionID uuid.UUID) (*pipeline.BatchResult, error)
}

// AgentConfig holds configuration for the worker agent.
type AgentConfig struct {
	ID                  string
	Concurrency         int
	PollInterval        time.Duration
	Queues              []string      // Named queues this worker consumes from
	MaxBackoff          time.Duration // Maximum backoff when the queues are empty (default: 30s)
	HeartbeatInterval   time.Duration // Interval between heartbeat calls (default: 2m)
	VisibilityExtension time.Duration // How long to extend visibility on heartbeat (default: 5m)
	SoftTimeLimit       time.Duration // Attempts running past this are logged (default: 25m)
	HardTimeLimit       time.Duration // Attempts running past this are cancelled (default: 30m)
}

// Agent is the worker agent that runs the pull-loop for job processing.
type Agent struct {
	queue     store.Queue
	artifacts ArtifactProcessor
	sessions  SessionProcessor
	metrics   *observability.PipelineMetrics
	config    AgentConfig
	logger    *slog.Logger
	done      chan struct{}
}

// New creates a new worker agent consuming from the configured queues.
func New(q store.Queue, artifacts ArtifactProcessor, sessions SessionProcessor, metrics *observability.PipelineMetrics, config AgentConfig, logger *slog.Logger) *Agent {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}

	if config.PollInterval <= 0 {
		config.PollInterval = 1 * time.Second
	}

	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 30 * time.Second
	}

	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = 2 * time.Minute
	}

	if config.VisibilityExtension <= 0 {
		config.VisibilityExtension = 5 * time.Minute
	}

	if config.SoftTimeLimit <= 0 {
		config.SoftTimeLimit = 25 * time.Minute
	}

	if config.HardTimeLimit <= 0 {
		config.HardTimeLimit = 30 * time.Minute
	}

	if len(config.Queues) == 0 {
		config.Queues = []string{store.QueueAudio, store.QueueImage, store.QueueSession}
	}

	if metrics == nil {
		metrics = &observability.PipelineMetrics{}
	}

	return &Agent{
		queue:     q,
		artifacts: artifacts,
		sessions:  sessions,
		metrics:   metrics,
		config:    config,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Run starts the main pull-loop. It blocks until the context is cancelled.
// On SIGTERM, it stops dequeuing new work and allows in-flight attempts to finish.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("agent starting",
		slog.String("agent_id", a.config.ID),
		slog.Int("concurrency", a.config.Concurrency),
		slog.Any("queues", a.config.Queues),
	)

	// Semaphore to limit concurrency
	sem := make(chan struct{}, a.config.Concurrency)
	var wg sync.WaitGroup

	// Channel to signal when a slot becomes available (adaptive polling)
	pollNow := make(chan struct{}, 1)

	// Current backoff duration (increases on empty queue, resets on work found)
	currentBackoff := a.config.PollInterval

	// Helper to trigger immediate non-blocking re-poll
	triggerPoll := func() {
		select {
		case pollNow <- struct{}{}:
		default:
			// Already a poll pending
		}
	}

	// Initial poll
	triggerPoll()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("context cancelled, waiting for running jobs to finish")
			wg.Wait()
			close(a.done)
			return ctx.Err()

		case <-time.After(currentBackoff):
			// Timer-based poll (with backoff)
			triggerPoll()

		case <-pollNow:
			// Count available slots
			availableSlots := a.config.Concurrency - len(sem)
			if availableSlots <= 0 {
				continue
			}

			// Batch dequeue up to available slots
			items, err := a.queue.DequeueBatch(ctx, a.config.Queues, availableSlots)
			if err != nil {
				a.logger.Error("dequeue failed", slog.String("error", err.Error()))
				continue
			}

			if len(items) == 0 {
				// Empty queue - increase backoff (exponential, capped at MaxBackoff)
				currentBackoff = currentBackoff * 2
				if currentBackoff > a.config.MaxBackoff {
					currentBackoff = a.config.MaxBackoff
				}
				continue
			}

			// Found work - reset backoff to minimum
			currentBackoff = a.config.PollInterval

			a.logger.Info("claimed jobs", slog.Int("count", len(items)))

			// Dispatch each job to a worker goroutine
			for _, item := range items {
				// Acquire semaphore slot
				sem <- struct{}{}

				wg.Add(1)
				go func(item store.QueueItem) {
					defer wg.Done()
					defer func() {
						<-sem
						// Signal that a slot is now available - trigger immediate re-poll
						triggerPoll()
					}()
					a.processItem(ctx, item)
				}(item)
			}

			// If we got jobs and there are still slots available, poll again immediately
			if len(items) < availableSlots {
				triggerPoll()
			}
		}
	}
}

// Done returns a channel that is closed when the agent has fully stopped.
func (a *Agent) Done() <-chan struct{} {
	return a.done
}

// processItem runs a single claimed job to completion.
func (a *Agent) processItem(ctx context.Context, item store.QueueItem) {
	job := item.Job
	log := a.logger.With(
		slog.String("job_id", job.ID.String()),
		slog.String("queue", job.Queue),
		slog.String("kind", string(job.Kind)),
	)

	tracer := otel.Tracer("worker-agent")
	spanCtx, span := tracer.Start(ctx, "process_job",
		trace.WithAttributes(
			attribute.String("job.id", job.ID.String()),
			attribute.String("job.kind", string(job.Kind)),
			attribute.String("job.queue", job.Queue),
			attribute.String("job.priority", string(job.Priority)),
			attribute.String("tenant.id", job.TenantID.String()),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	// The attempt runs independently of the poll context so an
	// in-flight inference call survives a SIGTERM drain, bounded by the
	// hard time limit.
	execCtx, cancel := context.WithTimeout(context.WithoutCancel(spanCtx), a.config.HardTimeLimit)
	defer cancel()

	softTimer := time.AfterFunc(a.config.SoftTimeLimit, func() {
		log.Warn("job exceeded soft time limit", slog.Duration("limit", a.config.SoftTimeLimit))
	})
	defer softTimer.Stop()

	// Refresh visibility while the attempt runs
	heartbeatCtx, cancelHeartbeat := context.WithCancel(context.Background())
	defer cancelHeartbeat()
	go a.runHeartbeat(heartbeatCtx, job.ID)

	log.Info("processing job")

	switch job.Kind {
	case store.JobKindSession:
		a.processSessionJob(execCtx, span, job, log)
	default:
		a.processArtifactJob(execCtx, span, job, log)
	}
}

func (a *Agent) processArtifactJob(ctx context.Context, span trace.Span, job *store.Job, log *slog.Logger) {
	span.SetAttributes(attribute.String("artifact.id", job.ArtifactID.String()))

	result, err := a.artifacts.Process(ctx, pipeline.ProcessRequest{
		ArtifactID: job.ArtifactID,
		SessionID:  job.SessionID,
		JobID:      job.ID,
		Priority:   job.Priority,
	})
	if err != nil {
		span.RecordError(err)
		msg := err.Error()
		if ctx.Err() == context.DeadlineExceeded {
			msg = "processing exceeded the hard time limit"
			log.Error("job timed out", slog.Duration("limit", a.config.HardTimeLimit))
		} else {
			log.Error("job failed", slog.String("error", msg))
		}
		a.fail(job.ID, msg)
		a.count(a.metrics.Failed, job)
		return
	}

	span.SetAttributes(attribute.String("outcome", string(result.Outcome)))

	switch result.Outcome {
	case pipeline.OutcomeAlreadyProcessed:
		log.Info("job skipped, artifact already processed")
		a.complete(job.ID)
		a.count(a.metrics.Skipped, job)
	case pipeline.OutcomeFailed:
		log.Error("job failed", slog.String("error", result.ErrorMessage))
		a.fail(job.ID, result.ErrorMessage)
		a.count(a.metrics.Failed, job)
	default:
		log.Info("job completed", slog.String("processor", result.Processor))
		a.complete(job.ID)
		a.count(a.metrics.Processed, job)
	}
}

func (a *Agent) processSessionJob(ctx context.Context, span trace.Span, job *store.Job, log *slog.Logger) {
	span.SetAttributes(attribute.String("session.id", job.SessionID.String()))

	result, err := a.sessions.ProcessSession(ctx, job.SessionID)
	if err != nil {
		span.RecordError(err)
		log.Error("session fan-out failed", slog.String("error", err.Error()))
		a.fail(job.ID, err.Error())
		a.count(a.metrics.Failed, job)
		return
	}

	span.SetAttributes(
		attribute.Int("session.artifacts", result.Total),
		attribute.Int("session.queued", result.Queued),
	)
	log.Info("session fan-out completed",
		slog.Int("total", result.Total),
		slog.Int("queued", result.Queued),
	)
	a.complete(job.ID)
	a.count(a.metrics.Processed, job)
}

// runHeartbeat refreshes the visibility timeout periodically while a
// job is running. This prevents long inference calls from being picked
// up by another worker.
func (a *Agent) runHeartbeat(ctx context.Context, jobID uuid.UUID) {
	ticker := time.NewTicker(a.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			visibleAfter := time.Now().Add(a.config.VisibilityExtension)
			if err := a.queue.SetVisibleAfter(context.Background(), nil, jobID, visibleAfter); err != nil {
				a.logger.Warn("heartbeat failed",
					slog.String("job_id", jobID.String()),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func (a *Agent) complete(jobID uuid.UUID) {
	if err := a.queue.Complete(context.Background(), nil, jobID); err != nil {
		a.logger.Error("failed to mark job complete",
			slog.String("job_id", jobID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (a *Agent) fail(jobID uuid.UUID, msg string) {
	if err := a.queue.Fail(context.Background(), nil, jobID, msg); err != nil {
		a.logger.Error("failed to mark job failed",
			slog.String("job_id", jobID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (a *Agent) count(counter metric.Int64Counter, job *store.Job) {
	if a.metrics == nil || counter == nil {
		return
	}
	counter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("queue", job.Queue),
			attribute.String("kind", string(job.Kind)),
		),
	)
}
