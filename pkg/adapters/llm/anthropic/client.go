// Package anthropic implements the executor on the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// Config holds the Anthropic client settings.
type Config struct {
	APIKey         string
	Model          string
	MaxTokens      int
	RequestTimeout time.Duration
}

// Client calls the Anthropic Messages API. It implements ports.Executor.
type Client struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	timeout   time.Duration
	logger    *zap.Logger
}

// NewClient creates an Anthropic-backed executor.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	model := anthropic.Model(cfg.Model)
	if cfg.Model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &Client{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     model,
		maxTokens: maxTokens,
		timeout:   cfg.RequestTimeout,
		logger:    logger,
	}, nil
}

// Execute sends one message and returns the concatenated text blocks of
// the response.
func (c *Client) Execute(ctx context.Context, prompt, systemContext string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if systemContext != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemContext}}
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if v, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(v.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("anthropic response contained no text")
	}

	c.logger.Debug("anthropic request completed",
		zap.String("model", string(c.model)),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("latency", time.Since(start)))

	return text.String(), nil
}
