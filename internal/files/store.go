// Package files holds the session's document collection and the
// optimistic bookkeeping that keeps it consistent while uploads are in
// flight.
package files

import (
	"strings"
	"sync"
)

// Store is the in-memory file collection for a console session. It is the
// sole owner of the records; nothing survives a process restart, a full
// refetch replaces everything.
type Store struct {
	mu   sync.RWMutex
	data []Record
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Add appends pending records for uploads that just started. Purely
// local; no network involved.
func (s *Store) Add(records ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, records...)
}

// UpdateStatus replaces the record whose JobID equals tempJobID, keeping
// its position. Matching is exact-string only: callers carry the correct
// temp id through the whole upload chain. A miss is a no-op; the store
// never appends here, so a record cannot be duplicated.
func (s *Store) UpdateStatus(tempJobID string, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data {
		if s.data[i].JobID == tempJobID {
			s.data[i] = rec
			return
		}
	}
}

// Remove deletes the record whose JobID equals tempJobID. Used only when
// an upload fails; successful uploads are replaced, never removed. A miss
// is a no-op.
func (s *Store) Remove(tempJobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data {
		if s.data[i].JobID == tempJobID {
			s.data = append(s.data[:i], s.data[i+1:]...)
			return
		}
	}
}

// ReplaceAll swaps the collection for freshly fetched records.
func (s *Store) ReplaceAll(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]Record(nil), records...)
}

// CleanupPending drops every still-pending record. Called on session
// teardown so abandoned uploads don't linger as phantoms.
func (s *Store) CleanupPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.data[:0]
	for _, rec := range s.data {
		if rec.Pending || IsPendingID(rec.JobID) {
			continue
		}
		kept = append(kept, rec)
	}
	s.data = kept
}

// List returns a copy of all records in insertion order.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.data...)
}

// ForJob returns the records owned by a job.
func (s *Store) ForJob(mainJobID string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, rec := range s.data {
		if rec.MainJobID == mainJobID {
			out = append(out, rec)
		}
	}
	return out
}

// CountForJob returns how many records a job owns.
func (s *Store) CountForJob(mainJobID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.data {
		if rec.MainJobID == mainJobID {
			n++
		}
	}
	return n
}

// HasSuccessful reports whether any of a job's files finished processing.
func (s *Store) HasSuccessful(mainJobID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.data {
		if rec.MainJobID != mainJobID {
			continue
		}
		switch strings.ToLower(rec.Status) {
		case "success", "completed":
			return true
		}
	}
	return false
}
