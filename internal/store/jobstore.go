package store

import (
	"errors"
	"sync"

	"github.com/conceptbridge/transcription-api/internal/model"
)

// ErrJobNotFound is returned for lookups and updates on unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// JobStore is the process-wide registry of transcription jobs. Records live
// in memory for the lifetime of the process and are never evicted.
//
// The store is constructed once at startup and injected into the submission
// path, the worker and the read-side handlers. For any given job id the
// submission path performs the single Create and the owning worker performs
// all Updates; status and export handlers only Get.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]model.Job
}

func New() *JobStore {
	return &JobStore{jobs: make(map[string]model.Job)}
}

// Create inserts a new job record.
func (s *JobStore) Create(job model.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Get returns a snapshot of the job record. Concurrent Updates never produce
// a torn read: the caller sees either the record before or after an update,
// never a mix.
func (s *JobStore) Get(id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return model.Job{}, ErrJobNotFound
	}
	return job, nil
}

// Update applies fn to a copy of the record under the write lock and swaps
// the whole record back in one step. Returns ErrJobNotFound for absent ids.
func (s *JobStore) Update(id string, fn func(*model.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	fn(&job)
	s.jobs[id] = job
	return nil
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
