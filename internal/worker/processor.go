// Package worker plugs the download pipeline into the asynq worker loop.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/tunedrop/tunedrop/internal/model"
	"github.com/tunedrop/tunedrop/internal/notify"
	"github.com/tunedrop/tunedrop/internal/queue"
)

// Jobs is the persistence the worker needs. Satisfied by
// *repository.JobRepository.
type Jobs interface {
	RecordStage(ctx context.Context, id string, status model.JobStatus, progress int, message string) error
	MarkSucceeded(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, message string) error
}

// Pipeline runs one job end to end. Satisfied by *pipeline.Pipeline.
type Pipeline interface {
	Run(ctx context.Context, job *model.Job, status notify.StatusSink) (*model.DeliveryResult, error)
}

// Processor is plugged into the asynq worker loop.
type Processor struct {
	repo Jobs
	pipe Pipeline
	log  *zap.Logger
}

// NewProcessor constructs a worker processor.
func NewProcessor(repo Jobs, pipe Pipeline, log *zap.Logger) *Processor {
	return &Processor{repo: repo, pipe: pipe, log: log}
}

// Handler registers the download job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.DownloadTask, p.handleDownload)
	return mux
}

func (p *Processor) handleDownload(ctx context.Context, task *asynq.Task) error {
	var payload queue.DownloadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	job := &model.Job{
		ID:        payload.JobID,
		UserID:    payload.UserID,
		SourceURL: payload.URL,
		Options:   payload.Options,
	}
	status := &repoStatus{repo: p.repo, job: job, log: p.log}

	if _, err := p.pipe.Run(ctx, job, status); err != nil {
		p.log.Warn("job failed",
			zap.String("job", job.ID),
			zap.String("user", job.UserID),
			zap.Error(err))
		_ = p.repo.MarkFailed(ctx, job.ID, job.Message)
		// The failure is already recorded and reported; returning it would
		// only make asynq log a retryable error for a job that must not rerun.
		return nil
	}
	if err := p.repo.MarkSucceeded(ctx, job.ID); err != nil {
		p.log.Error("record job success failed", zap.String("job", job.ID), zap.Error(err))
	}
	return nil
}

// repoStatus persists pipeline stage updates so the API can serve job state
// while the worker owns the job.
type repoStatus struct {
	repo Jobs
	job  *model.Job
	log  *zap.Logger
}

// Update implements notify.StatusSink. Persistence is best effort; a dropped
// progress row never fails the download.
func (s *repoStatus) Update(ctx context.Context, text string) error {
	if err := s.repo.RecordStage(ctx, s.job.ID, s.job.Status, s.job.Progress, text); err != nil {
		s.log.Debug("persist stage update failed", zap.Error(err))
	}
	return nil
}
