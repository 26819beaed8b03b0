package decompose

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aescanero/cascade/internal/domain"
	"github.com/aescanero/cascade/internal/ports"
)

const (
	// DefaultMinSubtasks and DefaultMaxSubtasks bound decomposition output.
	DefaultMinSubtasks = 3
	DefaultMaxSubtasks = 15

	// minSubtaskLength is the shortest subtask description accepted by
	// validation.
	minSubtaskLength = 10
)

const decomposeSystemContext = `You are a task decomposition specialist. Break down complex tasks into specific, actionable subtasks that can be executed independently.

Rules:
1. Create between 3-15 subtasks based on complexity
2. Each subtask should be self-contained and specific
3. Subtasks should cover all aspects of the main task
4. Output ONLY a numbered list of subtasks
5. No explanations or additional text`

// Config bounds and shapes decomposition output.
type Config struct {
	MinSubtasks int
	MaxSubtasks int

	// TargetCount pads or truncates the validated list to exactly this
	// count when set (> 0). Padding uses the generic filler bank and never
	// changes already-validated subtask content.
	TargetCount int
}

// DefaultConfig returns the reference bounds.
func DefaultConfig() Config {
	return Config{
		MinSubtasks: DefaultMinSubtasks,
		MaxSubtasks: DefaultMaxSubtasks,
	}
}

// Decomposer turns one task description into subtasks.
type Decomposer struct {
	source ports.Executor
	logger *zap.Logger
}

// NewDecomposer creates a Decomposer. The source is optional: when nil,
// decomposition always uses the deterministic templates.
func NewDecomposer(source ports.Executor, logger *zap.Logger) *Decomposer {
	return &Decomposer{
		source: source,
		logger: logger,
	}
}

// Decompose splits the task into between MinSubtasks and MaxSubtasks
// subtasks, each non-empty and unique. It returns an error only when the
// task string is empty; every other path degrades instead of failing.
func (d *Decomposer) Decompose(ctx context.Context, task string, cfg Config) ([]domain.SubTask, error) {
	if strings.TrimSpace(task) == "" {
		return nil, fmt.Errorf("task description is empty")
	}
	if cfg.MinSubtasks <= 0 {
		cfg.MinSubtasks = DefaultMinSubtasks
	}
	if cfg.MaxSubtasks <= 0 {
		cfg.MaxSubtasks = DefaultMaxSubtasks
	}

	descriptions := d.describe(ctx, task)
	descriptions = validate(descriptions)

	// Pad with generic filler when validation dropped too much.
	if len(descriptions) < cfg.MinSubtasks {
		descriptions = append(descriptions, fillerSubtasks(task, cfg.MinSubtasks-len(descriptions), len(descriptions))...)
	}
	if len(descriptions) > cfg.MaxSubtasks {
		descriptions = descriptions[:cfg.MaxSubtasks]
	}

	if cfg.TargetCount > 0 {
		target := cfg.TargetCount
		if target < cfg.MinSubtasks {
			target = cfg.MinSubtasks
		}
		if target > cfg.MaxSubtasks {
			target = cfg.MaxSubtasks
		}
		if len(descriptions) > target {
			descriptions = descriptions[:target]
		} else if len(descriptions) < target {
			descriptions = append(descriptions, fillerSubtasks(task, target-len(descriptions), len(descriptions))...)
		}
	}

	subtasks := make([]domain.SubTask, len(descriptions))
	for i, desc := range descriptions {
		st := domain.NewSubTask(desc)
		st.Priority = i + 1
		subtasks[i] = st
	}

	d.logger.Debug("task decomposed",
		zap.Int("subtasks", len(subtasks)),
		zap.Bool("source_backed", d.source != nil))

	return subtasks, nil
}

// describe produces candidate subtask descriptions, preferring the
// executor-backed source and falling back to templates.
func (d *Decomposer) describe(ctx context.Context, task string) []string {
	if d.source == nil {
		return templateSubtasks(task)
	}

	prompt := fmt.Sprintf("Break down this task into subtasks:\n\n%s", task)
	response, err := d.source.Execute(ctx, prompt, decomposeSystemContext)
	if err != nil {
		d.logger.Warn("source decomposition failed, falling back to templates",
			zap.Error(err))
		return templateSubtasks(task)
	}

	items := ParseList(response)
	if len(items) == 0 {
		d.logger.Warn("source returned no parseable list, falling back to templates")
		return templateSubtasks(task)
	}
	return items
}

// validate drops descriptions shorter than the minimum length and removes
// exact duplicates, preserving first-seen order.
func validate(descriptions []string) []string {
	seen := make(map[string]bool, len(descriptions))
	out := make([]string, 0, len(descriptions))
	for _, desc := range descriptions {
		desc = strings.TrimSpace(desc)
		if len(desc) < minSubtaskLength {
			continue
		}
		if seen[desc] {
			continue
		}
		seen[desc] = true
		out = append(out, desc)
	}
	return out
}
