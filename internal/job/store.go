package job

import (
	"fmt"
	"sync"
	"time"
)

// Store is a concurrency-safe job table.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]Job
	now  func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]Job),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create adds j. The id must be new.
func (s *Store) Create(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[j.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, j.ID)
	}
	s.jobs[j.ID] = j
	return nil
}

// Get returns a snapshot of the job.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	return j, ok
}

// List returns snapshots of every job in no particular order.
func (s *Store) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out
}

// Update merges c into the job atomically and refreshes UpdatedAt. Progress
// is clamped to [0,1] and never decreases while the job is processing.
func (s *Store) Update(id string, c Changes) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if cur.Status.Terminal() {
		return cur, fmt.Errorf("%w: job %s is already %s", ErrInvalidTransition, id, cur.Status)
	}

	next := cur
	if c.Status != nil {
		if !validTransition(cur.Status, *c.Status) {
			return cur, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur.Status, *c.Status)
		}
		next.Status = *c.Status
	}
	if c.Progress != nil {
		p := min(max(*c.Progress, 0), 1)
		if next.Status == StatusProcessing && p < cur.Progress {
			p = cur.Progress
		}
		next.Progress = p
	}
	if c.Message != nil {
		next.Message = *c.Message
	}
	if c.ResultPath != nil {
		next.ResultPath = *c.ResultPath
	}
	if (next.Status == StatusCompleted) != (next.ResultPath != "") {
		return cur, fmt.Errorf("%w: status %s, result path %q", ErrResultPathInvariant, next.Status, next.ResultPath)
	}

	next.UpdatedAt = s.now()
	if next.UpdatedAt.Before(cur.UpdatedAt) {
		next.UpdatedAt = cur.UpdatedAt
	}
	s.jobs[id] = next
	return next, nil
}
