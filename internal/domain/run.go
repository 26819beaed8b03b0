package domain

import (
	"fmt"
	"time"
)

// RunStatus is the overall outcome of one orchestration run.
type RunStatus string

const (
	// RunSuccess means every executed item in every tier completed.
	RunSuccess RunStatus = "success"
	// RunPartial means at least one worker completed but some items did not.
	RunPartial RunStatus = "partial"
	// RunFailed means zero workers completed, or the run never started work.
	RunFailed RunStatus = "failed"
)

// SectionKind labels the origin of a report section.
type SectionKind string

const (
	SectionWorker    SectionKind = "worker"
	SectionSynthesis SectionKind = "synthesis"
	SectionExecutive SectionKind = "executive"
)

// Section is one unit of the report handoff contract consumed by report
// sinks.
type Section struct {
	Title string      `json:"title"`
	Body  string      `json:"body"`
	Kind  SectionKind `json:"kind"`
}

// OrchestrationResult is the complete outcome of one run, created once at
// the end of execution and read-only thereafter. Failures are represented,
// not dropped: Tier1Results always has one entry per subtask.
type OrchestrationResult struct {
	TaskID   string    `json:"task_id"`
	Task     string    `json:"task"`
	Status   RunStatus `json:"status"`
	SubTasks []SubTask `json:"subtasks,omitempty"`

	Tier1Results    []WorkResult      `json:"tier1_results"`
	Tier2Results    []SynthesisResult `json:"tier2_results,omitempty"`
	ExecutiveResult *SynthesisResult  `json:"executive_result,omitempty"`

	TotalDuration time.Duration `json:"total_duration"`
	TotalCost     float64       `json:"total_cost"`
	Error         string        `json:"error,omitempty"`

	// Cancelled records that the run was cut short by an external signal.
	// The tier results reflect whatever finished before it.
	Cancelled bool `json:"cancelled,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// ContentSections flattens the run's output into ordered report sections:
// one per worker result, one per synthesis, and one for the executive
// synthesis when present.
func (r *OrchestrationResult) ContentSections() []Section {
	sections := make([]Section, 0, len(r.Tier1Results)+len(r.Tier2Results)+1)

	for i, wr := range r.Tier1Results {
		title := fmt.Sprintf("Worker %d", i+1)
		if spec, ok := wr.Metadata[MetaSpecialization].(string); ok && spec != "" {
			title = fmt.Sprintf("Worker %d (%s)", i+1, spec)
		}
		sections = append(sections, Section{
			Title: title,
			Body:  wr.Content,
			Kind:  SectionWorker,
		})
	}

	for i, sr := range r.Tier2Results {
		sections = append(sections, Section{
			Title: fmt.Sprintf("Synthesis %d", i+1),
			Body:  sr.Content,
			Kind:  SectionSynthesis,
		})
	}

	if r.ExecutiveResult != nil {
		sections = append(sections, Section{
			Title: "Executive Synthesis",
			Body:  r.ExecutiveResult.Content,
			Kind:  SectionExecutive,
		})
	}

	return sections
}

// CompletedWorkerCount returns how many tier-1 results completed.
func (r *OrchestrationResult) CompletedWorkerCount() int {
	n := 0
	for _, wr := range r.Tier1Results {
		if wr.Status == StatusCompleted {
			n++
		}
	}
	return n
}
