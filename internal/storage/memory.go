// Package storage provides an in-memory job store for deployments that run
// without postgres, such as a single-process trial setup or tests.
package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tunedrop/tunedrop/internal/model"
)

// ErrNotFound marks a lookup for a job id that does not exist.
var ErrNotFound = errors.New("job not found")

// MemoryStore keeps job records in a map guarded by an RWMutex. Jobs are
// copied on the way in and out so callers never share mutable state.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*model.Job)}
}

// Create stores a queued job.
func (m *MemoryStore) Create(_ context.Context, job *model.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	job.Status = model.StatusQueued
	job.CreatedAt = now
	job.UpdatedAt = now
	stored := *job
	m.jobs[job.ID] = &stored
	return nil
}

// Get returns a copy of the job.
func (m *MemoryStore) Get(_ context.Context, id string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *job
	return &out, nil
}

// RecordStage persists a transient stage update.
func (m *MemoryStore) RecordStage(_ context.Context, id string, status model.JobStatus, progress int, message string) error {
	return m.mutate(id, func(job *model.Job) {
		job.Status = status
		job.SetProgress(progress)
		job.Message = message
	})
}

// MarkSucceeded finishes the job with full progress.
func (m *MemoryStore) MarkSucceeded(_ context.Context, id string) error {
	return m.mutate(id, func(job *model.Job) {
		job.Status = model.StatusSucceeded
		job.Progress = 100
	})
}

// MarkFailed finishes the job and stores the user-facing report.
func (m *MemoryStore) MarkFailed(_ context.Context, id, message string) error {
	return m.mutate(id, func(job *model.Job) {
		job.Status = model.StatusFailed
		job.Message = message
	})
}

func (m *MemoryStore) mutate(id string, apply func(*model.Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	apply(job)
	job.UpdatedAt = time.Now().UTC()
	return nil
}
