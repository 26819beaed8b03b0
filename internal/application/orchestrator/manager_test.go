package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/cascade/internal/domain"
	"github.com/aescanero/cascade/internal/ports"
	eventsmem "github.com/aescanero/cascade/pkg/adapters/events/memory"
	storagemem "github.com/aescanero/cascade/pkg/adapters/storage/memory"
)

type countingMetrics struct {
	submitted atomic.Int64
	completed atomic.Int64
	items     atomic.Int64
	retries   atomic.Int64
	active    atomic.Int64
}

func (c *countingMetrics) RecordRunSubmitted() { c.submitted.Add(1) }
func (c *countingMetrics) RecordRunCompleted(domain.RunStatus, time.Duration) {
	c.completed.Add(1)
}
func (c *countingMetrics) RecordItemExecuted(domain.Tier, domain.Status, time.Duration) {
	c.items.Add(1)
}
func (c *countingMetrics) RecordRetry(domain.Tier)          { c.retries.Add(1) }
func (c *countingMetrics) SetActiveRuns(count int)          { c.active.Store(int64(count)) }
func (c *countingMetrics) ObserveExecutorLatency(time.Duration) {}

func newTestManager(t *testing.T, exec ports.Executor, numWorkers int) (*Manager, *storagemem.ResultStorage, *eventsmem.EventBus, *countingMetrics) {
	t.Helper()
	engine, err := New(exec, testOrchestrationConfig(numWorkers), zap.NewNop())
	require.NoError(t, err)

	bus := eventsmem.NewEventBus()
	storage := storagemem.NewResultStorage()
	metrics := &countingMetrics{}
	manager := NewManager(engine, bus, storage, metrics, zap.NewNop(), time.Minute)
	return manager, storage, bus, metrics
}

func TestSubmitRunCompletesAndStoresResult(t *testing.T) {
	manager, _, _, metrics := newTestManager(t, scriptedExecutor(12, nil), 12)
	defer manager.Shutdown(context.Background())

	runID, err := manager.SubmitRun(context.Background(), "write a market analysis report")
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	require.Eventually(t, func() bool {
		info, err := manager.GetStatus(context.Background(), runID)
		return err == nil && info.State == RunStateCompleted
	}, 5*time.Second, 10*time.Millisecond)

	result, err := manager.GetResult(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, runID, result.TaskID)
	assert.Equal(t, domain.RunSuccess, result.Status)
	assert.Len(t, result.Tier1Results, 12)

	ids, err := manager.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Contains(t, ids, runID)

	assert.Equal(t, int64(1), metrics.submitted.Load())
	assert.Equal(t, int64(1), metrics.completed.Load())
	// 12 workers, 3 syntheses, 1 executive.
	assert.Equal(t, int64(16), metrics.items.Load())
	assert.Equal(t, int64(0), metrics.active.Load())
}

func TestTerminalRunIsEvictedFromTracking(t *testing.T) {
	manager, _, _, _ := newTestManager(t, scriptedExecutor(5, nil), 5)
	defer manager.Shutdown(context.Background())

	runID, err := manager.SubmitRun(context.Background(), "short run that finishes quickly")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, tracked := manager.runs.Load(runID)
		return !tracked
	}, 5*time.Second, 10*time.Millisecond)

	// Status lookups fall back to result storage after eviction.
	info, err := manager.GetStatus(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, RunStateCompleted, info.State)
	assert.Equal(t, domain.RunSuccess, info.Result)
	assert.NotNil(t, info.CompletedAt)
}

func TestSubmitRunRejectsEmptyTask(t *testing.T) {
	manager, _, _, _ := newTestManager(t, scriptedExecutor(5, nil), 5)
	defer manager.Shutdown(context.Background())

	_, err := manager.SubmitRun(context.Background(), "   ")
	assert.Error(t, err)
}

func TestSubmitRunPublishesLifecycleEvents(t *testing.T) {
	manager, _, bus, _ := newTestManager(t, scriptedExecutor(12, nil), 12)
	defer manager.Shutdown(context.Background())

	var mu sync.Mutex
	seen := make(map[ports.EventType]int)
	require.NoError(t, bus.Subscribe(context.Background(), TopicRunEvents, func(_ context.Context, ev ports.Event) error {
		mu.Lock()
		seen[ev.Type]++
		mu.Unlock()
		return nil
	}))

	runID, err := manager.SubmitRun(context.Background(), "event publishing run")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[ports.EventTypeRunCompleted] == 1
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, seen[ports.EventTypeRunSubmitted], "run %s", runID)
	assert.Equal(t, 1, seen[ports.EventTypeDecomposition])
	assert.Greater(t, seen[ports.EventTypeItemProgress], 0)
}

func TestCancelRun(t *testing.T) {
	blocking := ports.ExecutorFunc(func(ctx context.Context, prompt, systemContext string) (string, error) {
		if strings.Contains(systemContext, "decomposition specialist") {
			return "1. First long-running subtask\n2. Second long-running subtask\n3. Third long-running subtask\n", nil
		}
		<-ctx.Done()
		return "", ctx.Err()
	})
	manager, _, _, _ := newTestManager(t, blocking, 3)
	defer manager.Shutdown(context.Background())

	runID, err := manager.SubmitRun(context.Background(), "cancellable run")
	require.NoError(t, err)

	// Wait until the run is past decomposition before cancelling.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, manager.CancelRun(context.Background(), runID))

	require.Eventually(t, func() bool {
		info, err := manager.GetStatus(context.Background(), runID)
		return err == nil && info.State == RunStateCancelled && info.CompletedAt != nil
	}, 5*time.Second, 10*time.Millisecond)

	result, err := manager.GetResult(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, result.Status)
	assert.True(t, result.Cancelled)
	for i, wr := range result.Tier1Results {
		assert.Equal(t, domain.StatusCancelled, wr.Status)
		// Cancelled results carry the bound worker's identity.
		assert.Equal(t, fmt.Sprintf("worker-%d", i+1), wr.WorkerID)
	}

	// A second cancel reports the terminal state.
	assert.Error(t, manager.CancelRun(context.Background(), runID))
}

func TestCancelUnknownRun(t *testing.T) {
	manager, _, _, _ := newTestManager(t, scriptedExecutor(5, nil), 5)
	defer manager.Shutdown(context.Background())

	assert.Error(t, manager.CancelRun(context.Background(), "no-such-run"))
}

func TestShutdownCancelsActiveRuns(t *testing.T) {
	blocking := ports.ExecutorFunc(func(ctx context.Context, prompt, systemContext string) (string, error) {
		if strings.Contains(systemContext, "decomposition specialist") {
			return "1. First long-running subtask\n2. Second long-running subtask\n3. Third long-running subtask\n", nil
		}
		<-ctx.Done()
		return "", ctx.Err()
	})
	manager, _, _, _ := newTestManager(t, blocking, 3)

	_, err := manager.SubmitRun(context.Background(), "run interrupted by shutdown")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, manager.Shutdown(ctx))
}
