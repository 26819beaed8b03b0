package agents

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aescanero/cascade/internal/domain"
	"github.com/aescanero/cascade/internal/ports"
)

// Worker executes one subtask through the external executor, framed with
// its specialization.
type Worker struct {
	id             string
	specialization string
	executor       ports.Executor
	logger         *zap.Logger
}

// NewWorker creates a worker agent with the given specialization label.
func NewWorker(id, specialization string, executor ports.Executor, logger *zap.Logger) *Worker {
	return &Worker{
		id:             id,
		specialization: specialization,
		executor:       executor,
		logger:         logger,
	}
}

func (w *Worker) ID() string { return w.id }

// Execute runs the item's subtask. A missing subtask or an executor error
// yields a failed result; errors never propagate.
func (w *Worker) Execute(ctx context.Context, item domain.WorkItem) domain.WorkResult {
	start := time.Now()

	if item.SubTask == nil {
		return domain.NewFailedResult(item.ID, w.id, domain.StatusFailed, "worker item carries no subtask")
	}

	systemContext := fmt.Sprintf(
		"You are a specialized worker agent. Your specialization is %s. "+
			"Complete the assigned task thoroughly and cite any sources you rely on.",
		w.specialization)
	prompt := fmt.Sprintf("Task: %s\n\nOverall goal: %s", item.SubTask.Description, item.Task)

	content, err := w.executor.Execute(ctx, prompt, systemContext)
	if err != nil {
		w.logger.Debug("worker execution failed",
			zap.String("worker_id", w.id),
			zap.String("subtask_id", item.SubTask.ID),
			zap.Error(err))
		result := domain.NewFailedResult(item.SubTask.ID, w.id, domain.StatusFailed, err.Error())
		result.Duration = time.Since(start)
		return result
	}

	result := domain.NewWorkResult(item.SubTask.ID, w.id, content)
	result.Duration = time.Since(start)
	result.Cost = estimateCost(systemContext+prompt, content)
	result.Citations = extractCitations(content)
	result.Metadata[domain.MetaSpecialization] = w.specialization
	return result
}
