// Package repository wraps all SQL used by the API and the worker.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tunedrop/tunedrop/internal/model"
)

// ErrNotFound marks a lookup for a job id that does not exist.
var ErrNotFound = errors.New("job not found")

// JobRepository persists job records across the API and worker processes.
type JobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository constructs a repository.
func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

// Create inserts a queued job before it is handed to the worker.
func (r *JobRepository) Create(ctx context.Context, job *model.Job) error {
	now := time.Now().UTC()
	job.Status = model.StatusQueued
	job.CreatedAt = now
	job.UpdatedAt = now
	options, err := json.Marshal(job.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO jobs (id, user_id, source_url, content_id, options, status, progress, message, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, job.ID, job.UserID, job.SourceURL, job.ContentID, options, job.Status, job.Progress, job.Message, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Get returns a job by id.
func (r *JobRepository) Get(ctx context.Context, id string) (*model.Job, error) {
	var (
		job     model.Job
		options []byte
		message sql.NullString
	)
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, source_url, content_id, options, status, progress, message, created_at, updated_at
		FROM jobs WHERE id=$1
	`, id)
	if err := row.Scan(&job.ID, &job.UserID, &job.SourceURL, &job.ContentID, &options, &job.Status, &job.Progress, &message, &job.CreatedAt, &job.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select job: %w", err)
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &job.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
	}
	if message.Valid {
		job.Message = message.String
	}
	return &job, nil
}

// RecordStage persists a transient stage update in one statement. Progress
// never moves backwards at the row level either.
func (r *JobRepository) RecordStage(ctx context.Context, id string, status model.JobStatus, progress int, message string) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		UPDATE jobs
		SET status=$1, progress = GREATEST(progress, $2), message=$3, updated_at=$4
		WHERE id=$5
	`, status, progress, message, now, id)
	if err != nil {
		return fmt.Errorf("record stage: %w", err)
	}
	return nil
}

// MarkSucceeded finishes the job with full progress.
func (r *JobRepository) MarkSucceeded(ctx context.Context, id string) error {
	full := 100
	return r.update(ctx, id, model.StatusSucceeded, &full, nil)
}

// MarkFailed finishes the job and stores the user-facing report.
func (r *JobRepository) MarkFailed(ctx context.Context, id, message string) error {
	return r.update(ctx, id, model.StatusFailed, nil, &message)
}

func (r *JobRepository) update(ctx context.Context, id string, status model.JobStatus, progress *int, message *string) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		UPDATE jobs
		SET status=$1,
			progress = COALESCE($2, progress),
			message = COALESCE($3, message),
			updated_at=$4
		WHERE id=$5
	`, status, progress, message, now, id)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}
