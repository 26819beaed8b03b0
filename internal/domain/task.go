package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tier identifies the level of the hierarchy a work item belongs to.
type Tier string

const (
	// TierWorker executes one atomic subtask.
	TierWorker Tier = "worker"
	// TierSynthesizer aggregates a fixed-size batch of worker results.
	TierSynthesizer Tier = "synthesizer"
	// TierExecutive produces the final synthesis across all synthesizer results.
	TierExecutive Tier = "executive"
)

// SubTask is one independent unit of the decomposed task. SubTasks are
// immutable after creation and owned by the orchestrator for the lifetime
// of a single run.
type SubTask struct {
	ID          string                 `json:"id"`
	Description string                 `json:"description"`
	Priority    int                    `json:"priority"`
	// Dependencies lists subtask IDs declared by the decomposition source.
	// Scheduling does not honor them: all worker items run fully in parallel.
	Dependencies []string               `json:"dependencies,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// NewSubTask creates a SubTask with a generated ID and creation timestamp.
func NewSubTask(description string) SubTask {
	return SubTask{
		ID:          uuid.New().String(),
		Description: description,
		Metadata:    make(map[string]interface{}),
		CreatedAt:   time.Now(),
	}
}

// WorkItem pairs a unit of work with its execution deadline and retry
// budget. Worker items carry a SubTask; synthesis items carry the results
// they aggregate. Items are created per tier and discarded after completion.
type WorkItem struct {
	ID   string `json:"id"`
	Tier Tier   `json:"tier"`

	// Task is the original top-level task text, available to every tier.
	Task string `json:"task"`

	// SubTask is set for worker items only.
	SubTask *SubTask `json:"subtask,omitempty"`

	// Inputs is set for synthesizer items: one batch of worker results,
	// successes and failures intermixed.
	Inputs []WorkResult `json:"inputs,omitempty"`

	// Syntheses is set for the executive item: all synthesizer results.
	Syntheses []SynthesisResult `json:"syntheses,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewWorkItem creates a WorkItem with a generated ID.
func NewWorkItem(tier Tier, task string) WorkItem {
	return WorkItem{
		ID:       uuid.New().String(),
		Tier:     tier,
		Task:     task,
		Metadata: make(map[string]interface{}),
	}
}

// CompletedInputs returns the subset of the item's worker inputs that
// completed successfully, in input order.
func (w WorkItem) CompletedInputs() []WorkResult {
	completed := make([]WorkResult, 0, len(w.Inputs))
	for _, r := range w.Inputs {
		if r.Status == StatusCompleted {
			completed = append(completed, r)
		}
	}
	return completed
}

// CompletedSyntheses returns the subset of the item's synthesizer inputs
// that completed successfully, in input order.
func (w WorkItem) CompletedSyntheses() []SynthesisResult {
	completed := make([]SynthesisResult, 0, len(w.Syntheses))
	for _, s := range w.Syntheses {
		if s.Status == StatusCompleted {
			completed = append(completed, s)
		}
	}
	return completed
}
