package runner

import (
	"regexp"
	"strconv"

	"go.uber.org/zap"
)

// Fatal tool output. Any match aborts the job immediately even though the
// process keeps running until it is reaped.
var fatalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)separator\s+.*not\s+found|no\s+separator\s+found`),
	regexp.MustCompile(`(?i)drm[\s-]*protect`),
	regexp.MustCompile(`(?i)invalid\s+(media[\s-]user[\s-])?token|token\s+(is\s+)?(invalid|expired)`),
	regexp.MustCompile(`(?i)storefront\s+.*(mismatch|does\s+not\s+match|unavailable)`),
	regexp.MustCompile(`(?i)403\s+forbidden|status\s+code:?\s*403`),
}

var progressPattern = regexp.MustCompile(`(\d+)%`)

// Classifier consumes tool output line by line: fatal errors abort, progress
// percentages update the job, everything else is discarded after logging.
// Progress notifications are throttled to multiples of five so the message
// edit volume stays bounded.
type Classifier struct {
	notify  func(pct int)
	log     *zap.Logger
	highest int
	emitted int
}

// NewClassifier builds a Classifier. notify may be nil.
func NewClassifier(notify func(pct int), log *zap.Logger) *Classifier {
	return &Classifier{notify: notify, log: log}
}

// Line classifies one output line. A non-nil return is an *AcquisitionError
// carrying the fatal line; the caller stops classifying but must still drain
// the process.
func (c *Classifier) Line(line string) error {
	for _, pattern := range fatalPatterns {
		if pattern.MatchString(line) {
			return &AcquisitionError{Output: line}
		}
	}
	if m := progressPattern.FindStringSubmatch(line); m != nil {
		pct, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		if pct > 100 {
			pct = 100
		}
		if pct > c.highest {
			c.highest = pct
		}
		if c.highest%5 == 0 && c.highest != c.emitted {
			c.emitted = c.highest
			if c.notify != nil {
				c.notify(c.highest)
			}
		}
		return nil
	}
	c.log.Debug("tool output", zap.String("line", line))
	return nil
}

// Progress returns the highest percentage seen so far.
func (c *Classifier) Progress() int {
	return c.highest
}
