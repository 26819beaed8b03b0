// Package report renders orchestration results into human-facing output.
// The markdown renderer consumes the run's content sections; richer
// formats can wrap the same handoff.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aescanero/cascade/internal/domain"
)

// Markdown renders the result as a self-contained markdown report.
func Markdown(result *domain.OrchestrationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Cascade Report\n\n")
	fmt.Fprintf(&b, "**Task:** %s\n\n", result.Task)

	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Run ID | %s |\n", result.TaskID)
	fmt.Fprintf(&b, "| Status | %s |\n", result.Status)
	fmt.Fprintf(&b, "| Workers completed | %d/%d |\n", result.CompletedWorkerCount(), len(result.Tier1Results))
	fmt.Fprintf(&b, "| Syntheses | %d |\n", len(result.Tier2Results))
	fmt.Fprintf(&b, "| Duration | %s |\n", result.TotalDuration.Round(time.Millisecond))
	fmt.Fprintf(&b, "| Cost | %.6f |\n", result.TotalCost)
	if result.Error != "" {
		fmt.Fprintf(&b, "| Error | %s |\n", result.Error)
	}
	b.WriteString("\n")

	for _, section := range result.ContentSections() {
		fmt.Fprintf(&b, "## %s\n\n", section.Title)
		if section.Body != "" {
			fmt.Fprintf(&b, "%s\n\n", section.Body)
		}
	}

	if citations := collectCitations(result); len(citations) > 0 {
		b.WriteString("## Citations\n\n")
		for _, c := range citations {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// collectCitations gathers the unique citations across all tiers,
// preserving first-seen order.
func collectCitations(result *domain.OrchestrationResult) []string {
	var citations []string
	seen := make(map[string]struct{})
	add := func(list []string) {
		for _, c := range list {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			citations = append(citations, c)
		}
	}

	for _, wr := range result.Tier1Results {
		add(wr.Citations)
	}
	for _, sr := range result.Tier2Results {
		add(sr.Citations)
	}
	if result.ExecutiveResult != nil {
		add(result.ExecutiveResult.Citations)
	}
	return citations
}

// FileSink writes one markdown report per run into a directory.
type FileSink struct {
	dir    string
	logger *zap.Logger
}

// NewFileSink creates a FileSink, creating the directory if needed.
func NewFileSink(dir string, logger *zap.Logger) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &FileSink{dir: dir, logger: logger}, nil
}

// Write renders the result and writes it to <dir>/<run id>.md.
func (s *FileSink) Write(ctx context.Context, result *domain.OrchestrationResult) error {
	path := filepath.Join(s.dir, result.TaskID+".md")
	if err := os.WriteFile(path, []byte(Markdown(result)), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	s.logger.Info("report written",
		zap.String("run_id", result.TaskID),
		zap.String("path", path))

	return nil
}
