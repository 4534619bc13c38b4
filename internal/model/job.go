// Package model contains the types shared across the download pipeline.
package model

import (
	"time"
)

// JobStatus describes where a job sits in its lifecycle.
type JobStatus string

const (
	StatusValidating  JobStatus = "validating"
	StatusQueued      JobStatus = "queued"
	StatusDownloading JobStatus = "downloading"
	StatusProcessing  JobStatus = "processing"
	StatusDelivering  JobStatus = "delivering"
	StatusSucceeded   JobStatus = "succeeded"
	StatusFailed      JobStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s JobStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Job is one user-initiated download-and-deliver request. Options values map
// user keys to flag values; an empty value marks a boolean flag. Only the
// component owning the current stage mutates a Job.
type Job struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	SourceURL string            `json:"sourceUrl"`
	ContentID string            `json:"contentId,omitempty"`
	WorkDir   string            `json:"-"`
	Options   map[string]string `json:"options,omitempty"`
	Status    JobStatus         `json:"status"`
	Progress  int               `json:"progress"`
	Message   string            `json:"message,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// SetProgress raises the job progress. Progress never moves backwards while a
// download is running, regardless of what the tool prints.
func (j *Job) SetProgress(pct int) {
	if pct > j.Progress {
		j.Progress = pct
	}
	if j.Progress > 100 {
		j.Progress = 100
	}
}
