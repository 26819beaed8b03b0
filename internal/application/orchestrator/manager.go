package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aescanero/cascade/internal/application/executor"
	"github.com/aescanero/cascade/internal/domain"
	"github.com/aescanero/cascade/internal/ports"
)

// TopicRunEvents is the event bus topic carrying all run lifecycle and
// item progress events.
const TopicRunEvents = "run.events"

// progressBuffer bounds the per-run progress queue. Events beyond it are
// dropped rather than blocking the executor.
const progressBuffer = 256

// RunState is the coarse lifecycle state of a tracked run.
type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateCancelled RunState = "cancelled"
)

// RunInfo is a snapshot of one tracked run.
type RunInfo struct {
	RunID       string           `json:"run_id"`
	Task        string           `json:"task"`
	State       RunState         `json:"state"`
	Result      domain.RunStatus `json:"result,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// runContext tracks one in-flight run.
type runContext struct {
	info   RunInfo
	cancel context.CancelFunc
	mu     sync.RWMutex
}

func (r *runContext) snapshot() RunInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.info
}

// Manager coordinates run execution: async submission, tracking,
// cancellation, event publishing, result storage and metrics around the
// synchronous Orchestrator engine.
type Manager struct {
	engine   *Orchestrator
	eventBus ports.EventBus
	storage  ports.ResultStorage
	metrics  ports.MetricsCollector
	logger   *zap.Logger

	runTimeout time.Duration

	// Track active executions
	runs   sync.Map // map[string]*runContext
	active atomic.Int64
	wg     sync.WaitGroup
}

// NewManager creates a Manager around a constructed engine.
func NewManager(
	engine *Orchestrator,
	eventBus ports.EventBus,
	storage ports.ResultStorage,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	runTimeout time.Duration,
) *Manager {
	m := &Manager{
		engine:     engine,
		eventBus:   eventBus,
		storage:    storage,
		metrics:    metrics,
		logger:     logger,
		runTimeout: runTimeout,
	}
	engine.OnDecomposed = m.publishDecomposed
	return m
}

// SubmitRun starts executing the task in the background and returns the
// run ID immediately. The result becomes available through GetResult once
// the run reaches a terminal state.
func (m *Manager) SubmitRun(ctx context.Context, task string) (string, error) {
	if strings.TrimSpace(task) == "" {
		return "", fmt.Errorf("task must not be empty")
	}

	runID := uuid.New().String()

	runCtx, cancel := context.WithTimeout(context.Background(), m.runTimeout)
	rc := &runContext{
		info: RunInfo{
			RunID:     runID,
			Task:      task,
			State:     RunStateRunning,
			StartedAt: time.Now(),
		},
		cancel: cancel,
	}
	m.runs.Store(runID, rc)

	m.publish(ctx, ports.Event{
		ID:        uuid.New().String(),
		Type:      ports.EventTypeRunSubmitted,
		RunID:     runID,
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"task": task},
	})

	m.metrics.RecordRunSubmitted()
	m.metrics.SetActiveRuns(int(m.active.Add(1)))

	m.logger.Info("run submitted",
		zap.String("run_id", runID))

	m.wg.Add(1)
	go m.execute(runCtx, cancel, rc, task)

	return runID, nil
}

func (m *Manager) execute(ctx context.Context, cancel context.CancelFunc, rc *runContext, task string) {
	defer m.wg.Done()
	defer cancel()

	runID := rc.info.RunID
	onProgress, flush := m.progressSink(runID)
	result := m.engine.RunWithID(ctx, runID, task, onProgress)
	flush()

	cancelled := false
	rc.mu.Lock()
	if rc.info.State == RunStateCancelled {
		cancelled = true
	} else {
		rc.info.State = RunStateCompleted
	}
	rc.info.Result = result.Status
	rc.info.Error = result.Error
	now := time.Now()
	rc.info.CompletedAt = &now
	rc.mu.Unlock()

	// Stamp cancellation before saving so status lookups survive eviction.
	result.Cancelled = cancelled

	if err := m.storage.Save(context.Background(), &result); err != nil {
		m.logger.Error("failed to save run result",
			zap.String("run_id", runID),
			zap.Error(err))
	}

	m.recordItemMetrics(&result)
	m.metrics.RecordRunCompleted(result.Status, result.TotalDuration)
	m.metrics.SetActiveRuns(int(m.active.Add(-1)))

	eventType := ports.EventTypeRunCompleted
	if cancelled {
		eventType = ports.EventTypeRunCancelled
	} else if result.Status == domain.RunFailed {
		eventType = ports.EventTypeRunFailed
	}
	m.publish(context.Background(), ports.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		RunID:     runID,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"status":         string(result.Status),
			"tier1_results":  len(result.Tier1Results),
			"tier2_results":  len(result.Tier2Results),
			"executive":      result.ExecutiveResult != nil,
			"total_duration": result.TotalDuration.String(),
			"total_cost":     result.TotalCost,
		},
	})

	// Evict the terminal run: status lookups fall back to result storage.
	m.runs.Delete(runID)

	m.logger.Info("run finished",
		zap.String("run_id", runID),
		zap.String("status", string(result.Status)),
		zap.Duration("duration", result.TotalDuration))
}

// progressSink returns a non-blocking ProgressFunc for the run and a flush
// func that drains the queue after the run finishes. Retries are counted
// immediately; publishing happens on a separate goroutine so the executor
// never waits on the bus.
func (m *Manager) progressSink(runID string) (executor.ProgressFunc, func()) {
	ch := make(chan domain.ProgressEvent, progressBuffer)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ev := range ch {
			m.publish(context.Background(), ports.Event{
				ID:        uuid.New().String(),
				Type:      ports.EventTypeItemProgress,
				RunID:     runID,
				Timestamp: ev.Timestamp,
				Data: map[string]interface{}{
					"task_id": ev.TaskID,
					"item_id": ev.ItemID,
					"tier":    string(ev.Tier),
					"phase":   string(ev.Phase),
					"attempt": ev.Attempt,
					"message": ev.Message,
				},
			})
		}
	}()

	sink := func(ev domain.ProgressEvent) {
		if ev.Phase == domain.PhaseRetrying {
			m.metrics.RecordRetry(ev.Tier)
		}
		select {
		case ch <- ev:
		default:
			m.logger.Warn("dropping progress event",
				zap.String("run_id", runID),
				zap.String("item_id", ev.ItemID))
		}
	}
	flush := func() {
		close(ch)
		<-done
	}
	return sink, flush
}

func (m *Manager) publishDecomposed(runID string, subtasks []domain.SubTask) {
	descriptions := make([]string, len(subtasks))
	for i, st := range subtasks {
		descriptions[i] = st.Description
	}
	m.publish(context.Background(), ports.Event{
		ID:        uuid.New().String(),
		Type:      ports.EventTypeDecomposition,
		RunID:     runID,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"subtask_count": len(subtasks),
			"subtasks":      descriptions,
		},
	})
}

func (m *Manager) recordItemMetrics(result *domain.OrchestrationResult) {
	for _, wr := range result.Tier1Results {
		m.metrics.RecordItemExecuted(domain.TierWorker, wr.Status, wr.Duration)
	}
	for _, sr := range result.Tier2Results {
		m.metrics.RecordItemExecuted(domain.TierSynthesizer, sr.Status, sr.Duration)
	}
	if result.ExecutiveResult != nil {
		m.metrics.RecordItemExecuted(domain.TierExecutive, result.ExecutiveResult.Status, result.ExecutiveResult.Duration)
	}
}

func (m *Manager) publish(ctx context.Context, event ports.Event) {
	if err := m.eventBus.Publish(ctx, TopicRunEvents, event); err != nil {
		m.logger.Error("failed to publish event",
			zap.String("run_id", event.RunID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
}

// GetStatus returns a snapshot of the run's lifecycle state. Runs evicted
// from tracking are looked up in result storage.
func (m *Manager) GetStatus(ctx context.Context, runID string) (RunInfo, error) {
	if val, ok := m.runs.Load(runID); ok {
		return val.(*runContext).snapshot(), nil
	}

	result, err := m.storage.Get(ctx, runID)
	if err != nil {
		return RunInfo{}, fmt.Errorf("run not found: %s", runID)
	}
	state := RunStateCompleted
	if result.Cancelled {
		state = RunStateCancelled
	}
	completedAt := result.CompletedAt
	return RunInfo{
		RunID:       result.TaskID,
		Task:        result.Task,
		State:       state,
		Result:      result.Status,
		StartedAt:   result.StartedAt,
		CompletedAt: &completedAt,
		Error:       result.Error,
	}, nil
}

// GetResult returns the stored result of a terminal run.
func (m *Manager) GetResult(ctx context.Context, runID string) (*domain.OrchestrationResult, error) {
	result, err := m.storage.Get(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return result, nil
}

// ListRuns returns the IDs of all stored run results.
func (m *Manager) ListRuns(ctx context.Context) ([]string, error) {
	ids, err := m.storage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return ids, nil
}

// CancelRun signals cancellation to all in-flight items of a run. Already
// completed results are kept; the final result reflects whatever finished
// before the signal.
func (m *Manager) CancelRun(ctx context.Context, runID string) error {
	val, ok := m.runs.Load(runID)
	if !ok {
		return fmt.Errorf("run not found: %s", runID)
	}

	rc := val.(*runContext)
	rc.mu.Lock()
	if rc.info.State != RunStateRunning {
		state := rc.info.State
		rc.mu.Unlock()
		return fmt.Errorf("run already in terminal state: %s", state)
	}
	rc.info.State = RunStateCancelled
	rc.mu.Unlock()

	rc.cancel()

	m.logger.Info("run cancelled",
		zap.String("run_id", runID))

	return nil
}

// Shutdown cancels all active runs and waits for their goroutines to
// finish, up to the context deadline.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("shutting down orchestration manager")

	m.runs.Range(func(_, value interface{}) bool {
		value.(*runContext).cancel()
		return true
	})

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("orchestration manager shut down")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
