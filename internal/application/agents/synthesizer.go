package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aescanero/cascade/internal/domain"
	"github.com/aescanero/cascade/internal/ports"
)

// Synthesizer aggregates one batch of worker results into a single
// coherent synthesis.
type Synthesizer struct {
	id       string
	executor ports.Executor
	logger   *zap.Logger
}

// NewSynthesizer creates a synthesizer agent.
func NewSynthesizer(id string, executor ports.Executor, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{id: id, executor: executor, logger: logger}
}

func (s *Synthesizer) ID() string { return s.id }

// Execute synthesizes the item's completed worker inputs. A batch with
// zero completed inputs is an aggregation failure and is not retried.
func (s *Synthesizer) Execute(ctx context.Context, item domain.WorkItem) domain.WorkResult {
	start := time.Now()

	completed := item.CompletedInputs()
	if len(completed) == 0 {
		s.logger.Debug("synthesis batch has no completed inputs",
			zap.String("synthesizer_id", s.id),
			zap.Int("batch_size", len(item.Inputs)))
		result := domain.NewFailedResult(item.ID, s.id, domain.StatusFailed, "no completed inputs to synthesize")
		result.Duration = time.Since(start)
		result.Metadata[domain.MetaAggregationFailure] = true
		return result
	}

	var findings []string
	var citationLists [][]string
	for _, r := range completed {
		label := r.WorkerID
		if spec, ok := r.Metadata[domain.MetaSpecialization].(string); ok {
			label = fmt.Sprintf("%s (%s)", r.WorkerID, spec)
		}
		findings = append(findings, fmt.Sprintf("Worker %s:\n%s", label, r.Content))
		citationLists = append(citationLists, r.Citations)
	}

	systemContext := "You are a synthesis agent. Your job is to aggregate findings " +
		"from multiple workers into one coherent report."
	prompt := fmt.Sprintf(
		"Original task: %s\n\nWorker findings:\n%s\n\nSynthesize these findings into a detailed summary.",
		item.Task, strings.Join(findings, "\n\n---\n\n"))

	content, err := s.executor.Execute(ctx, prompt, systemContext)
	if err != nil {
		result := domain.NewFailedResult(item.ID, s.id, domain.StatusFailed, err.Error())
		result.Duration = time.Since(start)
		return result
	}

	result := domain.NewWorkResult(item.ID, s.id, content)
	result.Duration = time.Since(start)
	result.Cost = estimateCost(systemContext+prompt, content)
	result.Citations = mergeCitations(citationLists...)
	result.Metadata["input_count"] = len(item.Inputs)
	result.Metadata["completed_input_count"] = len(completed)
	return result
}
