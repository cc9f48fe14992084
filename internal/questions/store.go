// Package questions holds per-job question templates and the editor that
// mutates them against the backend's whole-document save contract.
package questions

import "sync"

// Store keeps fetched templates by job id for the session.
type Store struct {
	mu   sync.RWMutex
	data map[string]Template
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{data: make(map[string]Template)}
}

// Set records the template for a job, replacing any previous one.
func (s *Store) Set(jobID string, t Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[jobID] = t
}

// Get returns the template for a job and whether one is loaded.
func (s *Store) Get(jobID string) (Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.data[jobID]
	return t, ok
}

// Clear drops every loaded template. Called before a full refresh so
// stale templates never shadow backend state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]Template)
}
