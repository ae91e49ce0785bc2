// Package model provides state management for artifact-backed models.
package model

import (
	"sync"

	"github.com/YuminosukeSato/housepredict/pkg/errors"
)

// StateManager tracks whether a model's parameters have been loaded.
// Models embed it; it is written once during loading and only read
// afterwards.
type StateManager struct {
	mu        sync.RWMutex
	fitted    bool
	nFeatures int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the model has been loaded.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// SetFitted marks the model as loaded with the given feature count.
func (s *StateManager) SetFitted(nFeatures int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
	s.nFeatures = nFeatures
}

// Reset returns the model to the unloaded state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.nFeatures = 0
}

// NumFeatures returns the feature count recorded at load time.
func (s *StateManager) NumFeatures() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures
}

// RequireFitted returns a NotFittedError if the model has not been loaded.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// RequireFeatures checks that X has the loaded feature count.
func (s *StateManager) RequireFeatures(op string, X interface{ Dims() (int, int) }) error {
	_, c := X.Dims()
	if n := s.NumFeatures(); c != n {
		return errors.NewDimensionError(op, n, c, 1)
	}
	return nil
}
