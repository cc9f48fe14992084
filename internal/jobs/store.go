package jobs

import "sync"

// Store is the in-memory job collection for a console session. Jobs enter
// through a full refetch or a create; they are never deleted.
type Store struct {
	mu   sync.RWMutex
	data []Job
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{}
}

// ReplaceAll swaps the collection for freshly fetched jobs.
func (s *Store) ReplaceAll(jobs []Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]Job(nil), jobs...)
}

// Add appends a newly created job.
func (s *Store) Add(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, job)
}

// List returns a copy of all jobs in stored order.
func (s *Store) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Job(nil), s.data...)
}

// Get returns a job by id.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, job := range s.data {
		if job.ID == id {
			return job, true
		}
	}
	return Job{}, false
}

// Has reports whether a job exists.
func (s *Store) Has(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// UpdateStatus applies an optimistic status transition pending backend
// confirmation. Reports whether the job exists.
func (s *Store) UpdateStatus(id, newStatus string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data {
		if s.data[i].ID == id {
			s.data[i].Status = newStatus
			return true
		}
	}
	return false
}

// AnyInStatus reports whether any job currently holds the given status.
func (s *Store) AnyInStatus(st string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, job := range s.data {
		if job.Status == st {
			return true
		}
	}
	return false
}
