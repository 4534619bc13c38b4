// Package pipeline orchestrates one job end to end: validate the URL, prepare
// the workspace, run the acquisition tool, extract tags, classify the result
// and hand it to delivery. The workspace is destroyed on every exit path.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tunedrop/tunedrop/internal/config"
	"github.com/tunedrop/tunedrop/internal/content"
	"github.com/tunedrop/tunedrop/internal/deliver"
	"github.com/tunedrop/tunedrop/internal/model"
	"github.com/tunedrop/tunedrop/internal/notify"
	"github.com/tunedrop/tunedrop/internal/runner"
	"github.com/tunedrop/tunedrop/internal/source"
	"github.com/tunedrop/tunedrop/internal/tags"
	"github.com/tunedrop/tunedrop/internal/workspace"
)

// Acquirer runs the external download tool. Satisfied by *runner.Runner.
type Acquirer interface {
	Run(ctx context.Context, url, workDir, configPath string, options map[string]string, sink runner.LineSink) error
}

// Deliverer routes a classified bundle. Satisfied by *deliver.Router.
type Deliverer interface {
	Deliver(ctx context.Context, job *model.Job, b *model.Bundle) (*model.DeliveryResult, error)
}

// Pipeline executes jobs. It is safe for concurrent use as long as no two
// concurrent jobs share a user, which the queue layer guarantees.
type Pipeline struct {
	cfg       *config.Config
	ws        *workspace.Manager
	acquirer  Acquirer
	extractor *tags.Extractor
	deliverer Deliverer
	log       *zap.Logger
}

// New wires a Pipeline from its stage components.
func New(cfg *config.Config, ws *workspace.Manager, acquirer Acquirer, extractor *tags.Extractor, deliverer Deliverer, log *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		ws:        ws,
		acquirer:  acquirer,
		extractor: extractor,
		deliverer: deliverer,
		log:       log,
	}
}

// Run takes a job from validation to delivery, editing the status sink as
// stages advance. The returned error is the stage failure; the sink already
// carries the user-facing report by the time Run returns.
func (p *Pipeline) Run(ctx context.Context, job *model.Job, status notify.StatusSink) (*model.DeliveryResult, error) {
	result, err := p.run(ctx, job, status)
	if err != nil {
		job.Status = model.StatusFailed
		job.Message = Report(err)
		p.update(ctx, status, job.Message)
		return nil, err
	}
	job.Status = model.StatusSucceeded
	job.Progress = 100
	p.update(ctx, status, successReport(result))
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, job *model.Job, status notify.StatusSink) (*model.DeliveryResult, error) {
	job.Status = model.StatusValidating
	if err := source.Check(job.SourceURL); err != nil {
		return nil, err
	}
	job.ContentID = source.ContentID(job.SourceURL)
	log := p.log.With(
		zap.String("job", job.ID),
		zap.String("user", job.UserID),
		zap.String("content", job.ContentID))

	workDir, err := p.ws.Create(job.UserID)
	if err != nil {
		return nil, err
	}
	job.WorkDir = workDir
	defer p.ws.Destroy(workDir)

	configPath, err := p.ws.WriteToolConfig(job.UserID, workDir)
	if err != nil {
		return nil, err
	}

	job.Status = model.StatusDownloading
	p.update(ctx, status, "⬇️ Downloading...")
	classifier := runner.NewClassifier(func(pct int) {
		job.SetProgress(pct)
		p.update(ctx, status, fmt.Sprintf("⬇️ Downloading... %d%%", pct))
	}, log)
	if err := p.acquirer.Run(ctx, job.SourceURL, workDir, configPath, job.Options, classifier); err != nil {
		return nil, err
	}

	job.Status = model.StatusProcessing
	p.update(ctx, status, "🔍 Processing files...")
	items := p.extractor.ScanDir(workDir)
	bundle, err := content.Classify(job.SourceURL, workDir, items)
	if err != nil {
		return nil, err
	}
	log.Info("content classified",
		zap.String("type", string(bundle.Type)),
		zap.Int("items", len(items)))

	job.Status = model.StatusDelivering
	p.update(ctx, status, "📤 Sending...")
	result, err := p.deliverer.Deliver(ctx, job, bundle)
	if err != nil {
		return nil, err
	}
	log.Info("job delivered",
		zap.String("transport", string(result.Transport)),
		zap.Int("delivered", result.Delivered))
	return result, nil
}

// update edits the status message, best effort. A failed edit never fails the
// job.
func (p *Pipeline) update(ctx context.Context, status notify.StatusSink, text string) {
	if status == nil {
		return
	}
	if err := status.Update(ctx, text); err != nil {
		p.log.Debug("status update failed", zap.Error(err))
	}
}

// Report maps a stage failure to the single line shown to the user.
func Report(err error) string {
	var acq *runner.AcquisitionError
	var del *deliver.DeliveryError
	switch {
	case errors.Is(err, source.ErrInvalidSource):
		return "❌ That doesn't look like an " + source.Provider + " link."
	case errors.Is(err, runner.ErrSpawn):
		return "❌ The downloader is unavailable right now. Try again later."
	case errors.As(err, &acq):
		return "❌ Download failed:\n" + acq.Output
	case errors.Is(err, content.ErrNoMediaFound):
		return "❌ The download finished but produced no media files."
	case errors.As(err, &del):
		return "❌ Delivery failed: " + del.Err.Error()
	default:
		return "❌ Something went wrong: " + err.Error()
	}
}

func successReport(result *model.DeliveryResult) string {
	if result.Transport == model.TransportRemote && result.IndexLink != "" {
		return "✅ Done! Your files are synced."
	}
	return "✅ Done!"
}
