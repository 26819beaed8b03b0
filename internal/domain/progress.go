package domain

import "time"

// Phase is one step in the lifecycle of an executing work item.
type Phase string

const (
	PhaseStarted   Phase = "started"
	PhaseRetrying  Phase = "retrying"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
	PhaseTimedOut  Phase = "timed_out"
	PhaseCancelled Phase = "cancelled"
)

// ProgressEvent reports one phase transition of one work item. Events for a
// tier arrive in submission order per item but interleave across concurrent
// items; consumers must not assume ordering across items.
type ProgressEvent struct {
	TaskID    string    `json:"task_id"`
	ItemID    string    `json:"item_id"`
	Tier      Tier      `json:"tier"`
	Phase     Phase     `json:"phase"`
	Attempt   int       `json:"attempt"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
