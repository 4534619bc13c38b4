// Package runner spawns the external acquisition tool and streams its output
// through a line classifier while the process is still running.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tunedrop/tunedrop/internal/config"
)

// ErrSpawn marks a missing or unexecutable tool binary. This is an operator
// configuration problem, not a per-job failure.
var ErrSpawn = errors.New("acquisition tool unavailable")

// AcquisitionError carries the tool's fatal output line or exit error text.
type AcquisitionError struct {
	Output string
}

func (e *AcquisitionError) Error() string {
	return "acquisition failed: " + e.Output
}

// LineSink consumes output lines as they arrive. Returning a non-nil error
// stops classification; the runner keeps draining the process regardless.
type LineSink interface {
	Line(line string) error
}

// tailLines is how much stdout is kept for error reporting when the tool
// exits non-zero without writing to stderr.
const tailLines = 5

// configPathEnv tells the tool where its configuration file lives. The file
// sits outside the output directory so it never ends up among the results.
const configPathEnv = "AMDL_CONFIG"

// Runner executes the acquisition tool for one job at a time.
type Runner struct {
	bin     string
	timeout time.Duration
	log     *zap.Logger
}

// New constructs a Runner from configuration.
func New(cfg *config.Config, log *zap.Logger) *Runner {
	return &Runner{bin: cfg.DownloaderPath, timeout: cfg.DownloadTimeout, log: log}
}

// Run spawns `<binary> [flags...] --output <workDir> <url>` with the working
// directory set to the job workspace and feeds every stdout line to sink as
// it arrives. configPath, when non-empty, is exported to the tool through its
// config environment variable. Run returns nil on a clean exit, ErrSpawn when
// the binary cannot be started, and *AcquisitionError for a fatal output line
// or a non-zero exit. The process is always reaped, even after a fatal line.
func (r *Runner) Run(ctx context.Context, url, workDir, configPath string, options map[string]string, sink LineSink) error {
	if _, err := os.Stat(r.bin); err != nil {
		return fmt.Errorf("%w: %s", ErrSpawn, r.bin)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := append(BuildArgs(options), "--output", workDir, url)
	cmd := exec.CommandContext(ctx, r.bin, args...)
	cmd.Dir = workDir
	if configPath != "" {
		cmd.Env = append(os.Environ(), configPathEnv+"="+configPath)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	r.log.Info("starting acquisition",
		zap.String("binary", r.bin),
		zap.Strings("args", args))

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	var fatal error
	var tail []string
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tail = append(tail, line)
		if len(tail) > tailLines {
			tail = tail[1:]
		}
		if fatal != nil {
			// A fatal line was already seen; drain without classifying.
			continue
		}
		if err := sink.Line(line); err != nil {
			fatal = err
			r.log.Warn("fatal tool output", zap.String("line", line))
		}
	}

	waitErr := cmd.Wait()
	if fatal != nil {
		return fatal
	}
	if waitErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &AcquisitionError{Output: fmt.Sprintf("download timed out after %s", r.timeout)}
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.Join(tail, "\n")
		}
		if msg == "" {
			msg = waitErr.Error()
		}
		r.log.Error("acquisition tool failed", zap.String("output", msg), zap.Error(waitErr))
		return &AcquisitionError{Output: msg}
	}
	return nil
}
