package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aescanero/cascade/internal/application/agents"
	"github.com/aescanero/cascade/internal/application/decompose"
	"github.com/aescanero/cascade/internal/application/executor"
	"github.com/aescanero/cascade/internal/config"
	"github.com/aescanero/cascade/internal/domain"
	"github.com/aescanero/cascade/internal/ports"
)

// Orchestrator runs one task through the three tiers. It holds no state
// between runs; per-item failures are folded into the final status, never
// raised.
type Orchestrator struct {
	cfg        config.OrchestrationConfig
	llm        ports.Executor
	decomposer *decompose.Decomposer
	executor   *executor.BoundedExecutor
	logger     *zap.Logger

	// OnDecomposed, when set, observes the subtask list before the worker
	// tier starts. It must not block.
	OnDecomposed func(runID string, subtasks []domain.SubTask)
}

// New validates the configuration and constructs an Orchestrator.
// Out-of-range values fail here, before any work starts.
func New(llm ports.Executor, cfg config.OrchestrationConfig, logger *zap.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid orchestration config: %w", err)
	}
	return &Orchestrator{
		cfg:        cfg,
		llm:        llm,
		decomposer: decompose.NewDecomposer(llm, logger),
		executor:   executor.NewBoundedExecutor(logger),
		logger:     logger,
	}, nil
}

// dispatch routes work items to the per-item agent built for them. RunAll
// takes one agent per call; the pool keeps distinct agent identities per
// item without shared mutable state.
type dispatch struct {
	byItem map[string]ports.Agent
}

func (d dispatch) ID() string { return "dispatch" }

// AgentFor exposes the per-item binding so executor-minted results carry
// the bound agent's ID.
func (d dispatch) AgentFor(item domain.WorkItem) (ports.Agent, bool) {
	agent, ok := d.byItem[item.ID]
	return agent, ok
}

func (d dispatch) Execute(ctx context.Context, item domain.WorkItem) domain.WorkResult {
	agent, ok := d.AgentFor(item)
	if !ok {
		return domain.NewFailedResult(item.ID, d.ID(), domain.StatusFailed, "no agent bound to work item")
	}
	return agent.Execute(ctx, item)
}

// Run executes one complete orchestration under a generated run ID. It
// always returns a complete OrchestrationResult; only decomposition failure
// produces a Failed result with no tier output.
func (o *Orchestrator) Run(ctx context.Context, task string, onProgress executor.ProgressFunc) domain.OrchestrationResult {
	return o.RunWithID(ctx, uuid.New().String(), task, onProgress)
}

// RunWithID executes one complete orchestration under a caller-supplied
// run ID, so callers that track runs asynchronously can hand out the ID
// before execution starts.
func (o *Orchestrator) RunWithID(ctx context.Context, runID, task string, onProgress executor.ProgressFunc) domain.OrchestrationResult {
	start := time.Now()
	result := domain.OrchestrationResult{
		TaskID:    runID,
		Task:      task,
		StartedAt: start,
	}

	o.logger.Info("starting orchestration run",
		zap.String("run_id", result.TaskID),
		zap.Int("num_workers", o.cfg.NumWorkers),
		zap.Int("max_concurrency", o.cfg.MaxConcurrency))

	decompCfg := decompose.DefaultConfig()
	decompCfg.TargetCount = o.cfg.NumWorkers
	subtasks, err := o.decomposer.Decompose(ctx, task, decompCfg)
	if err != nil {
		result.Status = domain.RunFailed
		result.Error = fmt.Sprintf("decomposition failed: %v", err)
		result.CompletedAt = time.Now()
		result.TotalDuration = result.CompletedAt.Sub(start)
		return result
	}
	result.SubTasks = subtasks
	if o.OnDecomposed != nil {
		o.OnDecomposed(result.TaskID, subtasks)
	}

	result.Tier1Results = o.runWorkerTier(ctx, task, subtasks, onProgress)

	if o.cfg.EnableTier2 && len(result.Tier1Results) >= o.cfg.SynthesisBatchSize {
		result.Tier2Results = o.runSynthesisTier(ctx, task, result.Tier1Results, onProgress)
	}

	if o.cfg.EnableTier3 && len(result.Tier2Results) >= o.cfg.ExecutiveThreshold {
		result.ExecutiveResult = o.runExecutiveTier(ctx, task, result.Tier2Results, onProgress)
	}

	result.Status = o.assembleStatus(&result)
	result.TotalCost = totalCost(&result)
	result.CompletedAt = time.Now()
	result.TotalDuration = result.CompletedAt.Sub(start)

	o.logger.Info("orchestration run finished",
		zap.String("run_id", result.TaskID),
		zap.String("status", string(result.Status)),
		zap.Int("tier1_results", len(result.Tier1Results)),
		zap.Int("tier2_results", len(result.Tier2Results)),
		zap.Bool("executive", result.ExecutiveResult != nil),
		zap.Duration("duration", result.TotalDuration))

	return result
}

func (o *Orchestrator) executionConfig() executor.ExecutionConfig {
	return executor.ExecutionConfig{
		MaxConcurrency: o.cfg.MaxConcurrency,
		PerTaskTimeout: o.cfg.PerTaskTimeout,
		MaxRetries:     o.cfg.MaxRetries,
		RetryDelay:     o.cfg.RetryDelay,
	}
}

func (o *Orchestrator) runWorkerTier(ctx context.Context, task string, subtasks []domain.SubTask, onProgress executor.ProgressFunc) []domain.WorkResult {
	items := make([]domain.WorkItem, len(subtasks))
	pool := dispatch{byItem: make(map[string]ports.Agent, len(subtasks))}
	for i := range subtasks {
		item := domain.NewWorkItem(domain.TierWorker, task)
		item.SubTask = &subtasks[i]
		spec := agents.SpecializationFor(i)
		item.Metadata[domain.MetaSpecialization] = spec
		items[i] = item
		pool.byItem[item.ID] = agents.NewWorker(fmt.Sprintf("worker-%d", i+1), spec, o.llm, o.logger)
	}
	return o.executor.RunAll(ctx, pool, items, o.executionConfig(), onProgress)
}

func (o *Orchestrator) runSynthesisTier(ctx context.Context, task string, tier1 []domain.WorkResult, onProgress executor.ProgressFunc) []domain.SynthesisResult {
	batches := partition(tier1, o.cfg.SynthesisBatchSize)

	items := make([]domain.WorkItem, len(batches))
	pool := dispatch{byItem: make(map[string]ports.Agent, len(batches))}
	for i, batch := range batches {
		item := domain.NewWorkItem(domain.TierSynthesizer, task)
		item.Inputs = batch
		items[i] = item
		pool.byItem[item.ID] = agents.NewSynthesizer(fmt.Sprintf("synthesizer-%d", i+1), o.llm, o.logger)
	}

	results := o.executor.RunAll(ctx, pool, items, o.executionConfig(), onProgress)

	syntheses := make([]domain.SynthesisResult, len(results))
	for i, r := range results {
		syntheses[i] = domain.SynthesisResult{
			WorkResult: r,
			SourceIDs:  completedInputIDs(items[i]),
		}
	}
	return syntheses
}

func (o *Orchestrator) runExecutiveTier(ctx context.Context, task string, tier2 []domain.SynthesisResult, onProgress executor.ProgressFunc) *domain.SynthesisResult {
	item := domain.NewWorkItem(domain.TierExecutive, task)
	item.Syntheses = tier2

	pool := dispatch{byItem: map[string]ports.Agent{
		item.ID: agents.NewExecutive("executive", o.llm, o.logger),
	}}

	results := o.executor.RunAll(ctx, pool, []domain.WorkItem{item}, o.executionConfig(), onProgress)

	synthesis := domain.SynthesisResult{
		WorkResult: results[0],
		SourceIDs:  completedSynthesisIDs(item),
	}
	return &synthesis
}

// assembleStatus folds every tier's outcomes into the run status. Success
// requires every executed item to have completed; zero completed workers
// is a failed run.
func (o *Orchestrator) assembleStatus(r *domain.OrchestrationResult) domain.RunStatus {
	completed := r.CompletedWorkerCount()
	if completed == 0 {
		return domain.RunFailed
	}

	allCompleted := completed == len(r.Tier1Results)
	for _, s := range r.Tier2Results {
		if s.Status != domain.StatusCompleted {
			allCompleted = false
		}
	}
	if r.ExecutiveResult != nil && r.ExecutiveResult.Status != domain.StatusCompleted {
		allCompleted = false
	}

	if allCompleted {
		return domain.RunSuccess
	}
	return domain.RunPartial
}

// partition splits results into consecutive batches of at most size
// elements. The last batch may be smaller; no batch is empty.
func partition(results []domain.WorkResult, size int) [][]domain.WorkResult {
	var batches [][]domain.WorkResult
	for start := 0; start < len(results); start += size {
		end := start + size
		if end > len(results) {
			end = len(results)
		}
		batches = append(batches, results[start:end])
	}
	return batches
}

func completedInputIDs(item domain.WorkItem) []string {
	completed := item.CompletedInputs()
	ids := make([]string, len(completed))
	for i, r := range completed {
		ids[i] = r.TaskID
	}
	return ids
}

func completedSynthesisIDs(item domain.WorkItem) []string {
	completed := item.CompletedSyntheses()
	ids := make([]string, len(completed))
	for i, s := range completed {
		ids[i] = s.TaskID
	}
	return ids
}

func totalCost(r *domain.OrchestrationResult) float64 {
	var cost float64
	for _, wr := range r.Tier1Results {
		cost += wr.Cost
	}
	for _, sr := range r.Tier2Results {
		cost += sr.Cost
	}
	if r.ExecutiveResult != nil {
		cost += r.ExecutiveResult.Cost
	}
	return cost
}
