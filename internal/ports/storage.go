package ports

import (
	"context"

	"github.com/aescanero/cascade/internal/domain"
)

// ResultStorage persists completed orchestration results for retrieval
// through the API. Runs themselves are not resumable: storage holds
// outcomes, not in-flight state.
type ResultStorage interface {
	Save(ctx context.Context, result *domain.OrchestrationResult) error
	Get(ctx context.Context, taskID string) (*domain.OrchestrationResult, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, taskID string) error
}
