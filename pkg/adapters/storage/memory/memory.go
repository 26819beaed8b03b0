// Package memory provides in-process result storage for tests and
// deployments without Redis. Results are lost on restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aescanero/cascade/internal/domain"
)

// ResultStorage keeps orchestration results in a map.
type ResultStorage struct {
	mu      sync.RWMutex
	results map[string]*domain.OrchestrationResult
}

// NewResultStorage creates an in-memory result store.
func NewResultStorage() *ResultStorage {
	return &ResultStorage{
		results: make(map[string]*domain.OrchestrationResult),
	}
}

// Save stores the result under its task ID.
func (s *ResultStorage) Save(ctx context.Context, result *domain.OrchestrationResult) error {
	if result == nil || result.TaskID == "" {
		return fmt.Errorf("result must have a task ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.TaskID] = result
	return nil
}

// Get returns the stored result for the task ID.
func (s *ResultStorage) Get(ctx context.Context, taskID string) (*domain.OrchestrationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[taskID]
	if !ok {
		return nil, fmt.Errorf("result not found: %s", taskID)
	}
	return result, nil
}

// List returns all stored task IDs.
func (s *ResultStorage) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.results))
	for id := range s.results {
		ids = append(ids, id)
	}
	return ids, nil
}

// Delete removes the result for the task ID.
func (s *ResultStorage) Delete(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, taskID)
	return nil
}
