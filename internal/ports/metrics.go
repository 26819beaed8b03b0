package ports

import (
	"time"

	"github.com/aescanero/cascade/internal/domain"
)

// MetricsCollector records orchestration metrics. Implementations must be
// safe for concurrent use.
type MetricsCollector interface {
	RecordRunSubmitted()
	RecordRunCompleted(status domain.RunStatus, duration time.Duration)
	RecordItemExecuted(tier domain.Tier, status domain.Status, duration time.Duration)
	RecordRetry(tier domain.Tier)
	SetActiveRuns(count int)
	ObserveExecutorLatency(duration time.Duration)
}
