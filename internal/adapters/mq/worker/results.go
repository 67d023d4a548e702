package worker

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/okian/hirepulse/internal/domain/model"
	"github.com/okian/hirepulse/internal/domain/velocity"
	"github.com/okian/hirepulse/pkg/metrics"
)

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// JobRecord is the status and, once finished, the outcome of a job.
type JobRecord struct {
	ID          string           `json:"id"`
	DatasetID   string           `json:"dataset_id"`
	Status      model.JobStatus  `json:"status"`
	SubmittedAt time.Time        `json:"submitted_at"`
	StartedAt   time.Time        `json:"started_at,omitzero"`
	FinishedAt  time.Time        `json:"finished_at,omitzero"`
	Error       string           `json:"error,omitempty"`
	Result      *velocity.Result `json:"result,omitempty"`
}

// Registry tracks jobs by id from submission until they are pruned.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*JobRecord
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*JobRecord)}
}

// Submit records j as queued.
func (r *Registry) Submit(j Job) { //nolint:gocritic // hugeParam: Job mirrors the queue payload
	r.mu.Lock()
	r.jobs[j.ID] = &JobRecord{
		ID:          j.ID,
		DatasetID:   j.DatasetID,
		Status:      model.JobQueued,
		SubmittedAt: j.SubmittedAt,
	}
	n := len(r.jobs)
	r.mu.Unlock()
	metrics.UpdateJobsRetained(n)
}

// Remove forgets a job, e.g. one the queue refused.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.jobs, id)
	n := len(r.jobs)
	r.mu.Unlock()
	metrics.UpdateJobsRetained(n)
}

// Start marks a queued job as running.
func (r *Registry) Start(id string, at time.Time) error {
	return r.update(id, func(rec *JobRecord) {
		rec.Status = model.JobRunning
		rec.StartedAt = at
	})
}

// Complete stores the result of a finished job.
func (r *Registry) Complete(id string, res *velocity.Result, at time.Time) error {
	return r.update(id, func(rec *JobRecord) {
		rec.Status = model.JobSucceeded
		rec.Result = res
		rec.FinishedAt = at
	})
}

// Fail records why a job could not finish.
func (r *Registry) Fail(id string, cause error, at time.Time) error {
	return r.update(id, func(rec *JobRecord) {
		rec.Status = model.JobFailed
		rec.FinishedAt = at
		if cause != nil {
			rec.Error = cause.Error()
		}
	})
}

func (r *Registry) update(id string, fn func(*JobRecord)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	fn(rec)
	return nil
}

// Get returns a copy of the record for id.
func (r *Registry) Get(id string) (JobRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.jobs[id]
	if !ok {
		return JobRecord{}, ErrJobNotFound
	}
	return *rec, nil
}

// List returns every record, most recently submitted first.
func (r *Registry) List() []JobRecord {
	r.mu.RLock()
	out := make([]JobRecord, 0, len(r.jobs))
	for _, rec := range r.jobs {
		out = append(out, *rec)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Counts returns the number of retained jobs per status.
func (r *Registry) Counts() map[model.JobStatus]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[model.JobStatus]int, 4)
	for _, rec := range r.jobs {
		out[rec.Status]++
	}
	return out
}

// Prune drops finished jobs that completed more than retention before now
// and returns how many were removed. Unfinished jobs are never pruned.
func (r *Registry) Prune(now time.Time, retention time.Duration) int {
	cutoff := now.Add(-retention)

	r.mu.Lock()
	removed := 0
	for id, rec := range r.jobs {
		if rec.Status.Done() && rec.FinishedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	n := len(r.jobs)
	r.mu.Unlock()

	metrics.UpdateJobsRetained(n)
	return removed
}

// Len returns the number of retained jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
