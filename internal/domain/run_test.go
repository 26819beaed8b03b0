package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentSectionsOrderAndTitles(t *testing.T) {
	w1 := NewWorkResult("t1", "worker-1", "alpha finding")
	w1.Metadata[MetaSpecialization] = "research"
	w2 := NewFailedResult("t2", "worker-2", StatusFailed, "boom")

	s1 := SynthesisResult{WorkResult: NewWorkResult("b1", "synthesizer-1", "combined")}
	exec := SynthesisResult{WorkResult: NewWorkResult("e1", "executive", "final")}

	result := &OrchestrationResult{
		Tier1Results:    []WorkResult{w1, w2},
		Tier2Results:    []SynthesisResult{s1},
		ExecutiveResult: &exec,
	}

	sections := result.ContentSections()
	require.Len(t, sections, 4)

	assert.Equal(t, "Worker 1 (research)", sections[0].Title)
	assert.Equal(t, SectionWorker, sections[0].Kind)
	assert.Equal(t, "alpha finding", sections[0].Body)

	assert.Equal(t, "Worker 2", sections[1].Title)

	assert.Equal(t, "Synthesis 1", sections[2].Title)
	assert.Equal(t, SectionSynthesis, sections[2].Kind)

	assert.Equal(t, "Executive Synthesis", sections[3].Title)
	assert.Equal(t, SectionExecutive, sections[3].Kind)
	assert.Equal(t, "final", sections[3].Body)
}

func TestContentSectionsWithoutExecutive(t *testing.T) {
	result := &OrchestrationResult{
		Tier1Results: []WorkResult{NewWorkResult("t1", "worker-1", "only finding")},
	}

	sections := result.ContentSections()
	require.Len(t, sections, 1)
	assert.Equal(t, SectionWorker, sections[0].Kind)
}

func TestCompletedWorkerCount(t *testing.T) {
	result := &OrchestrationResult{
		Tier1Results: []WorkResult{
			NewWorkResult("t1", "worker-1", "ok"),
			NewFailedResult("t2", "worker-2", StatusTimedOut, "slow"),
			NewWorkResult("t3", "worker-3", "ok"),
		},
	}
	assert.Equal(t, 2, result.CompletedWorkerCount())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusCompleted.Valid())
	assert.True(t, StatusCancelled.Valid())
	assert.False(t, Status("bogus").Valid())
}

func TestRetryCount(t *testing.T) {
	r := NewWorkResult("t1", "worker-1", "ok")
	assert.Equal(t, 0, r.RetryCount())

	r.Metadata[MetaRetryCount] = 2
	assert.Equal(t, 2, r.RetryCount())
}

func TestCompletedInputsPreserveOrder(t *testing.T) {
	item := NewWorkItem(TierSynthesizer, "task")
	item.Inputs = []WorkResult{
		NewWorkResult("t1", "worker-1", "one"),
		NewFailedResult("t2", "worker-2", StatusFailed, "boom"),
		NewWorkResult("t3", "worker-3", "three"),
	}

	completed := item.CompletedInputs()
	require.Len(t, completed, 2)
	assert.Equal(t, "t1", completed[0].TaskID)
	assert.Equal(t, "t3", completed[1].TaskID)
}
