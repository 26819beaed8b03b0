package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/cascade/internal/domain"
	"github.com/aescanero/cascade/internal/ports"
)

type stubAgent struct {
	id      string
	execute func(ctx context.Context, item domain.WorkItem) domain.WorkResult
	calls   atomic.Int64
}

func (a *stubAgent) ID() string { return a.id }

func (a *stubAgent) Execute(ctx context.Context, item domain.WorkItem) domain.WorkResult {
	a.calls.Add(1)
	return a.execute(ctx, item)
}

func workerItems(n int) []domain.WorkItem {
	items := make([]domain.WorkItem, n)
	for i := range items {
		sub := domain.NewSubTask(fmt.Sprintf("subtask %d", i))
		item := domain.NewWorkItem(domain.TierWorker, "test task")
		item.SubTask = &sub
		items[i] = item
	}
	return items
}

func testConfig() ExecutionConfig {
	return ExecutionConfig{
		MaxConcurrency: 3,
		PerTaskTimeout: time.Second,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}
}

func TestRunAllReturnsResultsInSubmissionOrder(t *testing.T) {
	agent := &stubAgent{id: "worker-1", execute: func(_ context.Context, item domain.WorkItem) domain.WorkResult {
		return domain.NewWorkResult(item.SubTask.ID, "worker-1", "done: "+item.SubTask.Description)
	}}
	items := workerItems(8)

	results := NewBoundedExecutor(zap.NewNop()).RunAll(context.Background(), agent, items, testConfig(), nil)

	require.Len(t, results, len(items))
	for i, r := range results {
		assert.Equal(t, items[i].SubTask.ID, r.TaskID)
		assert.Equal(t, domain.StatusCompleted, r.Status)
		assert.Equal(t, 0, r.RetryCount())
	}
}

func TestRunAllRespectsConcurrencyBound(t *testing.T) {
	var inFlight, peak atomic.Int64
	agent := &stubAgent{id: "worker-1", execute: func(_ context.Context, item domain.WorkItem) domain.WorkResult {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return domain.NewWorkResult(item.SubTask.ID, "worker-1", "ok")
	}}

	cfg := testConfig()
	cfg.MaxConcurrency = 2
	results := NewBoundedExecutor(zap.NewNop()).RunAll(context.Background(), agent, workerItems(9), cfg, nil)

	require.Len(t, results, 9)
	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestRunAllRetriesFailuresUpToMaxRetries(t *testing.T) {
	agent := &stubAgent{id: "worker-1", execute: func(_ context.Context, item domain.WorkItem) domain.WorkResult {
		return domain.NewFailedResult(item.SubTask.ID, "worker-1", domain.StatusFailed, "boom")
	}}

	cfg := testConfig()
	cfg.MaxRetries = 2
	results := NewBoundedExecutor(zap.NewNop()).RunAll(context.Background(), agent, workerItems(1), cfg, nil)

	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusFailed, results[0].Status)
	assert.Equal(t, "boom", results[0].Error)
	assert.Equal(t, 2, results[0].RetryCount())
	assert.Equal(t, int64(3), agent.calls.Load())
}

func TestRunAllRecoversOnRetry(t *testing.T) {
	agent := &stubAgent{id: "worker-1"}
	agent.execute = func(_ context.Context, item domain.WorkItem) domain.WorkResult {
		if agent.calls.Load() == 1 {
			return domain.NewFailedResult(item.SubTask.ID, "worker-1", domain.StatusFailed, "transient")
		}
		return domain.NewWorkResult(item.SubTask.ID, "worker-1", "recovered")
	}

	results := NewBoundedExecutor(zap.NewNop()).RunAll(context.Background(), agent, workerItems(1), testConfig(), nil)

	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusCompleted, results[0].Status)
	assert.Equal(t, "recovered", results[0].Content)
	assert.Equal(t, 1, results[0].RetryCount())
}

func TestRunAllClassifiesTimeouts(t *testing.T) {
	agent := &stubAgent{id: "worker-1", execute: func(ctx context.Context, item domain.WorkItem) domain.WorkResult {
		<-ctx.Done()
		return domain.NewFailedResult(item.SubTask.ID, "worker-1", domain.StatusFailed, ctx.Err().Error())
	}}

	cfg := testConfig()
	cfg.PerTaskTimeout = 5 * time.Millisecond
	cfg.MaxRetries = 1
	results := NewBoundedExecutor(zap.NewNop()).RunAll(context.Background(), agent, workerItems(1), cfg, nil)

	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusTimedOut, results[0].Status)
	assert.Contains(t, results[0].Error, "timeout")
	assert.Equal(t, 1, results[0].RetryCount())
	assert.Equal(t, int64(2), agent.calls.Load())
}

func TestRunAllReportsCancelledWithoutRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	agent := &stubAgent{id: "worker-1", execute: func(ctx context.Context, item domain.WorkItem) domain.WorkResult {
		cancel()
		<-ctx.Done()
		return domain.NewFailedResult(item.SubTask.ID, "worker-1", domain.StatusFailed, ctx.Err().Error())
	}}

	results := NewBoundedExecutor(zap.NewNop()).RunAll(ctx, agent, workerItems(1), testConfig(), nil)

	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusCancelled, results[0].Status)
	assert.Equal(t, int64(1), agent.calls.Load())
}

type routingAgent struct {
	byItem map[string]*stubAgent
}

func (r routingAgent) ID() string { return "router" }

func (r routingAgent) AgentFor(item domain.WorkItem) (ports.Agent, bool) {
	agent, ok := r.byItem[item.ID]
	return agent, ok
}

func (r routingAgent) Execute(ctx context.Context, item domain.WorkItem) domain.WorkResult {
	return r.byItem[item.ID].Execute(ctx, item)
}

func TestRunAllCancelledResultsCarryBoundAgentID(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	items := workerItems(3)
	router := routingAgent{byItem: make(map[string]*stubAgent, len(items))}
	for i, item := range items {
		id := fmt.Sprintf("worker-%d", i+1)
		router.byItem[item.ID] = &stubAgent{id: id, execute: func(ctx context.Context, item domain.WorkItem) domain.WorkResult {
			cancel()
			<-ctx.Done()
			return domain.NewFailedResult(item.SubTask.ID, id, domain.StatusFailed, ctx.Err().Error())
		}}
	}

	cfg := testConfig()
	cfg.MaxConcurrency = 1
	results := NewBoundedExecutor(zap.NewNop()).RunAll(ctx, router, items, cfg, nil)

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, domain.StatusCancelled, r.Status)
		assert.Equal(t, fmt.Sprintf("worker-%d", i+1), r.WorkerID)
	}
}

func TestRunAllDoesNotRetryAggregationFailures(t *testing.T) {
	agent := &stubAgent{id: "synth-1", execute: func(_ context.Context, item domain.WorkItem) domain.WorkResult {
		r := domain.NewFailedResult(item.ID, "synth-1", domain.StatusFailed, "no completed inputs")
		r.Metadata[domain.MetaAggregationFailure] = true
		return r
	}}

	item := domain.NewWorkItem(domain.TierSynthesizer, "test task")
	results := NewBoundedExecutor(zap.NewNop()).RunAll(context.Background(), agent, []domain.WorkItem{item}, testConfig(), nil)

	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusFailed, results[0].Status)
	assert.Equal(t, int64(1), agent.calls.Load())
}

func TestRunAllEmitsProgressPhases(t *testing.T) {
	agent := &stubAgent{id: "worker-1"}
	agent.execute = func(_ context.Context, item domain.WorkItem) domain.WorkResult {
		if agent.calls.Load() == 1 {
			return domain.NewFailedResult(item.SubTask.ID, "worker-1", domain.StatusFailed, "transient")
		}
		return domain.NewWorkResult(item.SubTask.ID, "worker-1", "ok")
	}

	var mu sync.Mutex
	var phases []domain.Phase
	onProgress := func(ev domain.ProgressEvent) {
		mu.Lock()
		phases = append(phases, ev.Phase)
		mu.Unlock()
	}

	results := NewBoundedExecutor(zap.NewNop()).RunAll(context.Background(), agent, workerItems(1), testConfig(), onProgress)

	require.Len(t, results, 1)
	assert.Equal(t, []domain.Phase{domain.PhaseStarted, domain.PhaseRetrying, domain.PhaseCompleted}, phases)
}
