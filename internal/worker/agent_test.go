// Package worker contains the pull-loop that claims queued jobs and
// runs them through the processing pipeline.
package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"pogopipe/internal/pipeline"
	"pogopipe/internal/store"
)

// MockQueue implements store.Queue for testing.
type MockQueue struct {
	mu sync.Mutex

	// DequeueFunc allows customizing DequeueBatch behavior per test.
	DequeueFunc func(ctx context.Context, queues []string, limit int) ([]store.QueueItem, error)

	// Track method calls
	CompleteCalls []uuid.UUID
	FailCalls     []FailCall
}

type FailCall struct {
	JobID  uuid.UUID
	ErrMsg string
}

func (m *MockQueue) Enqueue(ctx context.Context, tx store.DBTransaction, jobID uuid.UUID, visibleAfter time.Time) (int64, error) {
	return 0, nil
}

func (m *MockQueue) DequeueBatch(ctx context.Context, queues []string, limit int) ([]store.QueueItem, error) {
	if m.DequeueFunc != nil {
		return m.DequeueFunc(ctx, queues, limit)
	}
	return nil, nil
}

func (m *MockQueue) Complete(ctx context.Context, tx store.DBTransaction, jobID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls = append(m.CompleteCalls, jobID)
	return nil
}

func (m *MockQueue) Fail(ctx context.Context, tx store.DBTransaction, jobID uuid.UUID, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailCalls = append(m.FailCalls, FailCall{JobID: jobID, ErrMsg: errMsg})
	return nil
}

func (m *MockQueue) SetVisibleAfter(ctx context.Context, tx store.DBTransaction, jobID uuid.UUID, visibleAfter time.Time) error {
	return nil
}

func (m *MockQueue) Count(ctx context.Context) (int64, error) { return 0, nil }

func (m *MockQueue) completed() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.CompleteCalls...)
}

func (m *MockQueue) failed() []FailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FailCall(nil), m.FailCalls...)
}

// MockProcessor implements ArtifactProcessor for testing.
type MockProcessor struct {
	ProcessFunc func(ctx context.Context, req pipeline.ProcessRequest) (*pipeline.ProcessResult, error)
}

func (m *MockProcessor) Process(ctx context.Context, req pipeline.ProcessRequest) (*pipeline.ProcessResult, error) {
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, req)
	}
	return &pipeline.ProcessResult{Outcome: pipeline.OutcomeProcessed, ArtifactID: req.ArtifactID}, nil
}

// MockSessionProcessor implements SessionProcessor for testing.
type MockSessionProcessor struct {
	ProcessSessionFunc func(ctx context.Context, sessionID uuid.UUID) (*pipeline.BatchResult, error)
}

func (m *MockSessionProcessor) ProcessSession(ctx context.Context, sessionID uuid.UUID) (*pipeline.BatchResult, error) {
	if m.ProcessSessionFunc != nil {
		return m.ProcessSessionFunc(ctx, sessionID)
	}
	return &pipeline.BatchResult{SessionID: sessionID}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAgent(q store.Queue, p ArtifactProcessor, s SessionProcessor, config AgentConfig) *Agent {
	return New(q, p, s, nil, config, testLogger())
}

func artifactItem() store.QueueItem {
	job := &store.Job{
		ID:          uuid.New(),
		ArtifactID:  uuid.New(),
		SessionID:   uuid.New(),
		TenantID:    uuid.New(),
		Queue:       store.QueueAudio,
		Kind:        store.JobKindArtifact,
		CaptureType: store.CaptureAudio,
		Priority:    store.PriorityHigh,
		Status:      store.JobRunning,
	}
	return store.QueueItem{JobID: job.ID, Job: job}
}

// Test: New() Function
func TestNew_DefaultConcurrency(t *testing.T) {
	agent := newTestAgent(&MockQueue{}, &MockProcessor{}, &MockSessionProcessor{}, AgentConfig{Concurrency: 0})

	if agent.config.Concurrency != 1 {
		t.Errorf("expected default concurrency=1, got %d", agent.config.Concurrency)
	}
}

func TestNew_DefaultTimeLimits(t *testing.T) {
	agent := newTestAgent(&MockQueue{}, &MockProcessor{}, &MockSessionProcessor{}, AgentConfig{})

	if agent.config.SoftTimeLimit != 25*time.Minute {
		t.Errorf("expected default soft limit=25m, got %v", agent.config.SoftTimeLimit)
	}
	if agent.config.HardTimeLimit != 30*time.Minute {
		t.Errorf("expected default hard limit=30m, got %v", agent.config.HardTimeLimit)
	}
}

func TestNew_DefaultQueues(t *testing.T) {
	agent := newTestAgent(&MockQueue{}, &MockProcessor{}, &MockSessionProcessor{}, AgentConfig{})

	want := []string{store.QueueAudio, store.QueueImage, store.QueueSession}
	if len(agent.config.Queues) != len(want) {
		t.Fatalf("expected queues %v, got %v", want, agent.config.Queues)
	}
	for i, q := range want {
		if agent.config.Queues[i] != q {
			t.Errorf("expected queue[%d]=%s, got %s", i, q, agent.config.Queues[i])
		}
	}
}

func TestNew_CustomConfig(t *testing.T) {
	config := AgentConfig{
		ID:           "test-agent",
		Concurrency:  5,
		PollInterval: 500 * time.Millisecond,
		Queues:       []string{store.QueueAudio},
	}

	agent := newTestAgent(&MockQueue{}, &MockProcessor{}, &MockSessionProcessor{}, config)

	if agent.config.ID != "test-agent" {
		t.Errorf("expected ID='test-agent', got '%s'", agent.config.ID)
	}
	if agent.config.Concurrency != 5 {
		t.Errorf("expected concurrency=5, got %d", agent.config.Concurrency)
	}
	if len(agent.config.Queues) != 1 || agent.config.Queues[0] != store.QueueAudio {
		t.Errorf("expected queues=[audio], got %v", agent.config.Queues)
	}
}

// Test: Run() Loop Behavior
func TestRun_GracefulShutdown(t *testing.T) {
	agent := newTestAgent(&MockQueue{}, &MockProcessor{}, &MockSessionProcessor{}, AgentConfig{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- agent.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(1 * time.Second):
		t.Error("Run() did not exit in time")
	}
}

func TestRun_DoneChannelClosed(t *testing.T) {
	agent := newTestAgent(&MockQueue{}, &MockProcessor{}, &MockSessionProcessor{}, AgentConfig{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())

	go agent.Run(ctx)

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-agent.Done():
		// Success - channel was closed
	case <-time.After(1 * time.Second):
		t.Error("Done() channel was not closed after shutdown")
	}
}

func TestRun_CompletesProcessedJob(t *testing.T) {
	item := artifactItem()
	var served bool
	var mu sync.Mutex

	queue := &MockQueue{
		DequeueFunc: func(ctx context.Context, queues []string, limit int) ([]store.QueueItem, error) {
			mu.Lock()
			defer mu.Unlock()
			if served {
				return nil, nil
			}
			served = true
			return []store.QueueItem{item}, nil
		},
	}

	processed := make(chan pipeline.ProcessRequest, 1)
	processor := &MockProcessor{
		ProcessFunc: func(ctx context.Context, req pipeline.ProcessRequest) (*pipeline.ProcessResult, error) {
			processed <- req
			return &pipeline.ProcessResult{Outcome: pipeline.OutcomeProcessed, ArtifactID: req.ArtifactID}, nil
		},
	}

	agent := newTestAgent(queue, processor, &MockSessionProcessor{}, AgentConfig{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	go agent.Run(ctx)

	select {
	case req := <-processed:
		if req.ArtifactID != item.Job.ArtifactID {
			t.Errorf("expected artifact %s, got %s", item.Job.ArtifactID, req.ArtifactID)
		}
		if req.JobID != item.JobID {
			t.Errorf("expected job %s, got %s", item.JobID, req.JobID)
		}
		if req.Priority != store.PriorityHigh {
			t.Errorf("expected priority high, got %s", req.Priority)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("job was not processed in time")
	}

	// Give the completion call a moment to land
	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) {
		if len(queue.completed()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-agent.Done()

	completed := queue.completed()
	if len(completed) != 1 || completed[0] != item.JobID {
		t.Errorf("expected job %s completed, got %v", item.JobID, completed)
	}
	if len(queue.failed()) != 0 {
		t.Errorf("expected no failures, got %v", queue.failed())
	}
}

func TestRun_FailsFailedJob(t *testing.T) {
	item := artifactItem()
	var served bool
	var mu sync.Mutex

	queue := &MockQueue{
		DequeueFunc: func(ctx context.Context, queues []string, limit int) ([]store.QueueItem, error) {
			mu.Lock()
			defer mu.Unlock()
			if served {
				return nil, nil
			}
			served = true
			return []store.QueueItem{item}, nil
		},
	}

	processor := &MockProcessor{
		ProcessFunc: func(ctx context.Context, req pipeline.ProcessRequest) (*pipeline.ProcessResult, error) {
			return &pipeline.ProcessResult{
				Outcome:      pipeline.OutcomeFailed,
				ArtifactID:   req.ArtifactID,
				ErrorMessage: "analyze audio: inference timeout",
			}, nil
		},
	}

	agent := newTestAgent(queue, processor, &MockSessionProcessor{}, AgentConfig{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	go agent.Run(ctx)

	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) {
		if len(queue.failed()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-agent.Done()

	failed := queue.failed()
	if len(failed) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failed))
	}
	if failed[0].JobID != item.JobID {
		t.Errorf("expected job %s failed, got %s", item.JobID, failed[0].JobID)
	}
	if failed[0].ErrMsg != "analyze audio: inference timeout" {
		t.Errorf("unexpected error message: %s", failed[0].ErrMsg)
	}
}

func TestRun_CompletesAlreadyProcessedJob(t *testing.T) {
	item := artifactItem()
	var served bool
	var mu sync.Mutex

	queue := &MockQueue{
		DequeueFunc: func(ctx context.Context, queues []string, limit int) ([]store.QueueItem, error) {
			mu.Lock()
			defer mu.Unlock()
			if served {
				return nil, nil
			}
			served = true
			return []store.QueueItem{item}, nil
		},
	}

	processor := &MockProcessor{
		ProcessFunc: func(ctx context.Context, req pipeline.ProcessRequest) (*pipeline.ProcessResult, error) {
			return &pipeline.ProcessResult{Outcome: pipeline.OutcomeAlreadyProcessed, ArtifactID: req.ArtifactID}, nil
		},
	}

	agent := newTestAgent(queue, processor, &MockSessionProcessor{}, AgentConfig{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	go agent.Run(ctx)

	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) {
		if len(queue.completed()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-agent.Done()

	if len(queue.completed()) != 1 {
		t.Errorf("expected idempotent skip to complete the job, got %v", queue.completed())
	}
	if len(queue.failed()) != 0 {
		t.Errorf("expected no failures, got %v", queue.failed())
	}
}

func TestRun_DispatchesSessionJob(t *testing.T) {
	sessionID := uuid.New()
	job := &store.Job{
		ID:        uuid.New(),
		SessionID: sessionID,
		TenantID:  uuid.New(),
		Queue:     store.QueueSession,
		Kind:      store.JobKindSession,
		Priority:  store.PriorityMedium,
		Status:    store.JobRunning,
	}
	item := store.QueueItem{JobID: job.ID, Job: job}

	var served bool
	var mu sync.Mutex
	queue := &MockQueue{
		DequeueFunc: func(ctx context.Context, queues []string, limit int) ([]store.QueueItem, error) {
			mu.Lock()
			defer mu.Unlock()
			if served {
				return nil, nil
			}
			served = true
			return []store.QueueItem{item}, nil
		},
	}

	fannedOut := make(chan uuid.UUID, 1)
	sessions := &MockSessionProcessor{
		ProcessSessionFunc: func(ctx context.Context, id uuid.UUID) (*pipeline.BatchResult, error) {
			fannedOut <- id
			return &pipeline.BatchResult{SessionID: id, Total: 3, Queued: 3}, nil
		},
	}

	agent := newTestAgent(queue, &MockProcessor{}, sessions, AgentConfig{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	go agent.Run(ctx)

	select {
	case id := <-fannedOut:
		if id != sessionID {
			t.Errorf("expected session %s, got %s", sessionID, id)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("session job was not dispatched in time")
	}

	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) {
		if len(queue.completed()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-agent.Done()

	if len(queue.completed()) != 1 {
		t.Errorf("expected session job completed, got %v", queue.completed())
	}
}

func TestRun_FailsJobOnProcessorError(t *testing.T) {
	item := artifactItem()
	var served bool
	var mu sync.Mutex

	queue := &MockQueue{
		DequeueFunc: func(ctx context.Context, queues []string, limit int) ([]store.QueueItem, error) {
			mu.Lock()
			defer mu.Unlock()
			if served {
				return nil, nil
			}
			served = true
			return []store.QueueItem{item}, nil
		},
	}

	processor := &MockProcessor{
		ProcessFunc: func(ctx context.Context, req pipeline.ProcessRequest) (*pipeline.ProcessResult, error) {
			return nil, errors.New("store unavailable")
		},
	}

	agent := newTestAgent(queue, processor, &MockSessionProcessor{}, AgentConfig{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	go agent.Run(ctx)

	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) {
		if len(queue.failed()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-agent.Done()

	failed := queue.failed()
	if len(failed) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failed))
	}
	if failed[0].ErrMsg != "store unavailable" {
		t.Errorf("unexpected error message: %s", failed[0].ErrMsg)
	}
}
