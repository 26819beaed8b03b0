package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aescanero/cascade/internal/config"
	"github.com/aescanero/cascade/internal/ports"
	"github.com/aescanero/cascade/pkg/adapters/llm/anthropic"
)

// NewExecutor creates an executor for the configured provider.
func NewExecutor(cfg config.LLMConfig, logger *zap.Logger) (ports.Executor, error) {
	switch cfg.Provider {
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{
			APIKey:         cfg.APIKey,
			Model:          cfg.DefaultModel,
			MaxTokens:      cfg.DefaultMaxTokens,
			RequestTimeout: cfg.RequestTimeout,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// WithMetrics wraps an executor so every call's latency is observed.
func WithMetrics(exec ports.Executor, metrics ports.MetricsCollector) ports.Executor {
	return ports.ExecutorFunc(func(ctx context.Context, prompt, systemContext string) (string, error) {
		start := time.Now()
		content, err := exec.Execute(ctx, prompt, systemContext)
		metrics.ObserveExecutorLatency(time.Since(start))
		return content, err
	})
}
