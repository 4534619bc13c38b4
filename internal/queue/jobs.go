package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// DownloadTask is scheduled for every accepted source URL.
	DownloadTask = "media:download"
)

// DownloadPayload is serialized into the task so the worker can rebuild the
// job without touching the database first.
type DownloadPayload struct {
	JobID   string            `json:"job_id"`
	UserID  string            `json:"user_id"`
	URL     string            `json:"url"`
	Options map[string]string `json:"options,omitempty"`
}

// Client wraps the asynq client so intake surfaces can depend on a small
// interface instead of the concrete broker.
type Client struct {
	inner *asynq.Client
}

// NewClient constructs a Client.
func NewClient(inner *asynq.Client) *Client {
	return &Client{inner: inner}
}

// Enqueue schedules a download job.
func (c *Client) Enqueue(ctx context.Context, payload DownloadPayload) error {
	return EnqueueDownload(ctx, c.inner, payload)
}

// EnqueueDownload enqueues a download job. Jobs are not retried automatically:
// a failed download already reported to the user must not silently restart.
func EnqueueDownload(ctx context.Context, client *asynq.Client, payload DownloadPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(DownloadTask, data)
	if _, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(0)); err != nil {
		return fmt.Errorf("enqueue download task: %w", err)
	}
	return nil
}
