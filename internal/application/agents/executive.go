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

// Executive produces the final synthesis across all synthesizer results.
type Executive struct {
	id       string
	executor ports.Executor
	logger   *zap.Logger
}

// NewExecutive creates the executive agent.
func NewExecutive(id string, executor ports.Executor, logger *zap.Logger) *Executive {
	return &Executive{id: id, executor: executor, logger: logger}
}

func (e *Executive) ID() string { return e.id }

// Execute produces the executive summary from the item's completed
// syntheses. Zero completed syntheses is an aggregation failure.
func (e *Executive) Execute(ctx context.Context, item domain.WorkItem) domain.WorkResult {
	start := time.Now()

	completed := item.CompletedSyntheses()
	if len(completed) == 0 {
		e.logger.Debug("executive item has no completed syntheses",
			zap.String("executive_id", e.id),
			zap.Int("synthesis_count", len(item.Syntheses)))
		result := domain.NewFailedResult(item.ID, e.id, domain.StatusFailed, "no completed syntheses to aggregate")
		result.Duration = time.Since(start)
		result.Metadata[domain.MetaAggregationFailure] = true
		return result
	}

	var syntheses []string
	var citationLists [][]string
	for i, s := range completed {
		syntheses = append(syntheses, fmt.Sprintf("Synthesis %d (%s):\n%s", i+1, s.WorkerID, s.Content))
		citationLists = append(citationLists, s.Citations)
	}

	systemContext := "You are an executive synthesis agent. Your job is to provide " +
		"the final high-level executive report based on the syntheses below."
	prompt := fmt.Sprintf(
		"Original task: %s\n\nSyntheses:\n%s\n\nCreate the final executive summary and key findings.",
		item.Task, strings.Join(syntheses, "\n\n---\n\n"))

	content, err := e.executor.Execute(ctx, prompt, systemContext)
	if err != nil {
		result := domain.NewFailedResult(item.ID, e.id, domain.StatusFailed, err.Error())
		result.Duration = time.Since(start)
		return result
	}

	result := domain.NewWorkResult(item.ID, e.id, content)
	result.Duration = time.Since(start)
	result.Cost = estimateCost(systemContext+prompt, content)
	result.Citations = mergeCitations(citationLists...)
	result.Metadata["synthesis_count"] = len(completed)
	return result
}
