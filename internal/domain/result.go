package domain

import "time"

// Metadata keys recorded on results by the execution layer.
const (
	// MetaRetryCount holds the number of retries performed for an item.
	MetaRetryCount = "retry_count"
	// MetaAggregationFailure marks a synthesis failure caused by empty or
	// entirely failed input. Such failures are deterministic and not retried.
	MetaAggregationFailure = "aggregation_failure"
	// MetaSpecialization carries a worker's specialization label.
	MetaSpecialization = "specialization"
)

// Status is the terminal outcome of one executed work item.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
	StatusCancelled Status = "cancelled"
)

// Valid returns true if the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTimedOut, StatusCancelled:
		return true
	default:
		return false
	}
}

// WorkResult is the outcome of one executed work item. Exactly one
// WorkResult exists per executed unit; it is immutable once produced and
// retained in the run's result set for the lifetime of the run.
type WorkResult struct {
	TaskID    string                 `json:"task_id"`
	WorkerID  string                 `json:"worker_id"`
	Status    Status                 `json:"status"`
	Content   string                 `json:"content"`
	Citations []string               `json:"citations,omitempty"`
	Duration  time.Duration          `json:"duration"`
	Cost      float64                `json:"cost"`
	Error     string                 `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewWorkResult creates a completed result for a work item.
func NewWorkResult(taskID, workerID, content string) WorkResult {
	return WorkResult{
		TaskID:   taskID,
		WorkerID: workerID,
		Status:   StatusCompleted,
		Content:  content,
		Metadata: make(map[string]interface{}),
	}
}

// NewFailedResult creates a result for a work item that did not complete.
// The status must be one of StatusFailed, StatusTimedOut or StatusCancelled.
func NewFailedResult(taskID, workerID string, status Status, errMsg string) WorkResult {
	return WorkResult{
		TaskID:   taskID,
		WorkerID: workerID,
		Status:   status,
		Error:    errMsg,
		Metadata: make(map[string]interface{}),
	}
}

// RetryCount reports how many retries the executor recorded for this result.
func (r WorkResult) RetryCount() int {
	if n, ok := r.Metadata[MetaRetryCount].(int); ok {
		return n
	}
	return 0
}

// SynthesisResult is a WorkResult produced by a synthesis tier, extended
// with the IDs of the results it aggregates.
type SynthesisResult struct {
	WorkResult
	SourceIDs []string `json:"source_ids,omitempty"`
}
