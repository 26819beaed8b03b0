package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/aescanero/cascade/internal/domain"
	"github.com/aescanero/cascade/internal/ports"
)

// ExecutionConfig bounds one RunAll call.
type ExecutionConfig struct {
	MaxConcurrency int
	PerTaskTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
}

// ProgressFunc receives one event per phase transition per item. It is
// invoked from worker goroutines and must not block; implementations
// should buffer or drop.
type ProgressFunc func(domain.ProgressEvent)

// BoundedExecutor runs work items through an agent under a concurrency
// limit. The semaphore is created fresh per RunAll call, so separate calls
// never contend.
type BoundedExecutor struct {
	logger *zap.Logger
}

// NewBoundedExecutor creates a BoundedExecutor.
func NewBoundedExecutor(logger *zap.Logger) *BoundedExecutor {
	return &BoundedExecutor{logger: logger}
}

// RunAll executes every item through the agent and returns exactly
// len(items) results in submission order. Individual failures and timeouts
// are captured in the results, never raised. Items observing cancellation
// report StatusCancelled and are not retried.
func (e *BoundedExecutor) RunAll(
	ctx context.Context,
	agent ports.Agent,
	items []domain.WorkItem,
	cfg ExecutionConfig,
	onProgress ProgressFunc,
) []domain.WorkResult {
	results := make([]domain.WorkResult, len(items))
	sem := semaphore.NewWeighted(int64(cfg.MaxConcurrency))

	var wg sync.WaitGroup
	for i, item := range items {
		// Acquiring before spawning admits items in submission order
		// once a slot frees.
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = cancelledResult(agent, item)
			e.emit(onProgress, item, domain.PhaseCancelled, 0, "cancelled before start")
			continue
		}

		wg.Add(1)
		go func(i int, item domain.WorkItem) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = e.runOne(ctx, agent, item, cfg, onProgress)
		}(i, item)
	}
	wg.Wait()

	return results
}

// runOne executes one item with per-attempt timeout and bounded retry.
// The last attempt's outcome is the one recorded.
func (e *BoundedExecutor) runOne(
	ctx context.Context,
	agent ports.Agent,
	item domain.WorkItem,
	cfg ExecutionConfig,
	onProgress ProgressFunc,
) domain.WorkResult {
	e.emit(onProgress, item, domain.PhaseStarted, 0, "")

	var result domain.WorkResult
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			e.emit(onProgress, item, domain.PhaseRetrying, attempt, result.Error)
			if !sleep(ctx, cfg.RetryDelay) {
				result = cancelledResult(agent, item)
				setRetryCount(&result, attempt)
				e.emit(onProgress, item, domain.PhaseCancelled, attempt, "cancelled during retry delay")
				return result
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, cfg.PerTaskTimeout)
		result = agent.Execute(attemptCtx, item)
		timedOut := attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil
		cancel()

		if ctx.Err() != nil {
			// Cancellation observed mid-execution: report it, no retry.
			result = cancelledResult(agent, item)
			setRetryCount(&result, attempt)
			e.emit(onProgress, item, domain.PhaseCancelled, attempt, "cancelled")
			return result
		}

		if result.Status == domain.StatusCompleted {
			setRetryCount(&result, attempt)
			e.emit(onProgress, item, domain.PhaseCompleted, attempt, "")
			return result
		}

		if timedOut && result.Status == domain.StatusFailed {
			result.Status = domain.StatusTimedOut
			result.Error = fmt.Sprintf("timeout after %s", cfg.PerTaskTimeout)
		}

		// Aggregation failures are deterministic; retrying burns budget
		// for nothing.
		if isAggregationFailure(result) {
			setRetryCount(&result, attempt)
			e.emit(onProgress, item, domain.PhaseFailed, attempt, result.Error)
			return result
		}

		if attempt >= cfg.MaxRetries {
			setRetryCount(&result, attempt)
			phase := domain.PhaseFailed
			if result.Status == domain.StatusTimedOut {
				phase = domain.PhaseTimedOut
			}
			e.emit(onProgress, item, phase, attempt, result.Error)
			e.logger.Debug("work item exhausted retries",
				zap.String("item_id", item.ID),
				zap.String("tier", string(item.Tier)),
				zap.String("status", string(result.Status)),
				zap.Int("retries", attempt))
			return result
		}
	}
}

func (e *BoundedExecutor) emit(onProgress ProgressFunc, item domain.WorkItem, phase domain.Phase, attempt int, message string) {
	if onProgress == nil {
		return
	}
	taskID := item.ID
	if item.SubTask != nil {
		taskID = item.SubTask.ID
	}
	onProgress(domain.ProgressEvent{
		TaskID:    taskID,
		ItemID:    item.ID,
		Tier:      item.Tier,
		Phase:     phase,
		Attempt:   attempt,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// sleep waits for the retry delay, returning false if the context is
// cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// agentResolver is implemented by routing agents that bind a distinct
// agent per item. Results minted by the executor itself then carry the
// bound agent's ID instead of the router's.
type agentResolver interface {
	AgentFor(item domain.WorkItem) (ports.Agent, bool)
}

func resolveAgent(agent ports.Agent, item domain.WorkItem) ports.Agent {
	if r, ok := agent.(agentResolver); ok {
		if bound, ok := r.AgentFor(item); ok {
			return bound
		}
	}
	return agent
}

func cancelledResult(agent ports.Agent, item domain.WorkItem) domain.WorkResult {
	taskID := item.ID
	if item.SubTask != nil {
		taskID = item.SubTask.ID
	}
	return domain.NewFailedResult(taskID, resolveAgent(agent, item).ID(), domain.StatusCancelled, "execution cancelled")
}

func setRetryCount(r *domain.WorkResult, attempt int) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]interface{})
	}
	r.Metadata[domain.MetaRetryCount] = attempt
}

func isAggregationFailure(r domain.WorkResult) bool {
	v, ok := r.Metadata[domain.MetaAggregationFailure].(bool)
	return ok && v
}
