package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/cascade/internal/domain"
)

func sampleResult() *domain.OrchestrationResult {
	w1 := domain.NewWorkResult("t1", "worker-1", "first finding")
	w1.Citations = []string{"https://a.example"}
	w1.Metadata[domain.MetaSpecialization] = "research"
	w2 := domain.NewFailedResult("t2", "worker-2", domain.StatusFailed, "boom")

	synth := domain.SynthesisResult{WorkResult: domain.NewWorkResult("b1", "synthesizer-1", "combined view")}
	synth.Citations = []string{"https://a.example", "https://b.example"}

	exec := domain.SynthesisResult{WorkResult: domain.NewWorkResult("e1", "executive", "final word")}

	return &domain.OrchestrationResult{
		TaskID:          "run-1",
		Task:            "compile a study",
		Status:          domain.RunPartial,
		Tier1Results:    []domain.WorkResult{w1, w2},
		Tier2Results:    []domain.SynthesisResult{synth},
		ExecutiveResult: &exec,
		TotalDuration:   1500 * time.Millisecond,
		TotalCost:       0.0042,
	}
}

func TestMarkdownLayout(t *testing.T) {
	md := Markdown(sampleResult())

	assert.Contains(t, md, "# Cascade Report")
	assert.Contains(t, md, "**Task:** compile a study")
	assert.Contains(t, md, "| Status | partial |")
	assert.Contains(t, md, "| Workers completed | 1/2 |")
	assert.Contains(t, md, "## Worker 1 (research)")
	assert.Contains(t, md, "first finding")
	assert.Contains(t, md, "## Synthesis 1")
	assert.Contains(t, md, "## Executive Synthesis")
	assert.Contains(t, md, "final word")
	assert.Contains(t, md, "## Citations")
	assert.Contains(t, md, "- https://a.example")
	assert.Contains(t, md, "- https://b.example")
}

func TestCitationsDeduplicated(t *testing.T) {
	citations := collectCitations(sampleResult())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, citations)
}

func TestFileSinkWritesReport(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(filepath.Join(dir, "reports"), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, sink.Write(context.Background(), sampleResult()))

	data, err := os.ReadFile(filepath.Join(dir, "reports", "run-1.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Cascade Report")
}
