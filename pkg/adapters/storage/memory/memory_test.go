package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/cascade/internal/domain"
)

func TestSaveAndGet(t *testing.T) {
	store := NewResultStorage()
	ctx := context.Background()

	result := &domain.OrchestrationResult{
		TaskID: "run-1",
		Task:   "analyze the dataset",
		Status: domain.RunSuccess,
	}
	require.NoError(t, store.Save(ctx, result))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "analyze the dataset", got.Task)
	assert.Equal(t, domain.RunSuccess, got.Status)
}

func TestGetMissingResult(t *testing.T) {
	store := NewResultStorage()

	_, err := store.Get(context.Background(), "missing")
	assert.Error(t, err)
}

func TestSaveRejectsEmptyTaskID(t *testing.T) {
	store := NewResultStorage()

	err := store.Save(context.Background(), &domain.OrchestrationResult{})
	assert.Error(t, err)
}

func TestListAndDelete(t *testing.T) {
	store := NewResultStorage()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.OrchestrationResult{TaskID: "run-1"}))
	require.NoError(t, store.Save(ctx, &domain.OrchestrationResult{TaskID: "run-2"}))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"run-1", "run-2"}, ids)

	require.NoError(t, store.Delete(ctx, "run-1"))
	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-2"}, ids)
}
