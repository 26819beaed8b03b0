package ports

import (
	"context"

	"github.com/aescanero/cascade/internal/domain"
)

// Executor performs one unit of work. Implementations must respect context
// cancellation and should be idempotent under retry.
type Executor interface {
	// Execute runs the prompt under the given system context and returns
	// the produced content.
	Execute(ctx context.Context, prompt, systemContext string) (string, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, prompt, systemContext string) (string, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, prompt, systemContext string) (string, error) {
	return f(ctx, prompt, systemContext)
}

// Agent executes one work item and assembles a typed result. The three
// tiers are instances of this shape: they differ only in how they frame
// the item into an Executor call.
type Agent interface {
	// ID identifies the agent in results and events.
	ID() string
	// Execute runs the item. It never returns an error: failures are
	// captured in the result's status.
	Execute(ctx context.Context, item domain.WorkItem) domain.WorkResult
}
