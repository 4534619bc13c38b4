// Package notify defines the messaging collaborator boundary. The chat
// transport itself lives outside this system; the pipeline only constructs
// captions and metadata and edits a single status message per job.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Kind is the payload type handed to the messenger.
type Kind string

const (
	KindAudio    Kind = "audio"
	KindVideo    Kind = "video"
	KindDocument Kind = "document"
	KindText     Kind = "text"
)

// FileMeta carries the tag metadata attached to a file payload.
type FileMeta struct {
	Title         string
	Artist        string
	Duration      int
	ThumbnailPath string
}

// Messenger delivers payloads to a destination. Implementations own retries
// and rate limits; this core never re-sends.
type Messenger interface {
	SendFile(ctx context.Context, dest, path string, kind Kind, caption string, meta *FileMeta) error
	SendText(ctx context.Context, dest, text string) error
}

// StatusSink is the job's single user-facing status message, edited in place
// through the stages.
type StatusSink interface {
	Update(ctx context.Context, text string) error
}

// StatusFunc adapts a function to StatusSink.
type StatusFunc func(ctx context.Context, text string) error

// Update implements StatusSink.
func (f StatusFunc) Update(ctx context.Context, text string) error {
	return f(ctx, text)
}

// NopStatus discards updates.
var NopStatus StatusSink = StatusFunc(func(context.Context, string) error { return nil })

// LogMessenger writes every send to the log. It backs the CLI and any
// deployment without a chat transport attached.
type LogMessenger struct {
	log *zap.Logger
}

// NewLogMessenger constructs a LogMessenger.
func NewLogMessenger(log *zap.Logger) *LogMessenger {
	return &LogMessenger{log: log}
}

// SendFile implements Messenger.
func (m *LogMessenger) SendFile(_ context.Context, dest, path string, kind Kind, caption string, _ *FileMeta) error {
	m.log.Info("deliver file",
		zap.String("dest", dest),
		zap.String("path", path),
		zap.String("kind", string(kind)),
		zap.String("caption", caption))
	return nil
}

// SendText implements Messenger.
func (m *LogMessenger) SendText(_ context.Context, dest, text string) error {
	m.log.Info("deliver text", zap.String("dest", dest), zap.String("text", text))
	return nil
}

// LogStatus logs status edits; the CLI uses it in place of a chat message.
type LogStatus struct {
	log *zap.Logger
}

// NewLogStatus constructs a LogStatus.
func NewLogStatus(log *zap.Logger) *LogStatus {
	return &LogStatus{log: log}
}

// Update implements StatusSink.
func (s *LogStatus) Update(_ context.Context, text string) error {
	s.log.Info("status", zap.String("text", text))
	return nil
}
