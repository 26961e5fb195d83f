package dhttrace

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Warning is a recoverable anomaly found while scanning.
type Warning struct {
	Source string // "log" or "pointers"
	Line   int
	Err    error
	Text   string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s:%d: %v: %s", w.Source, w.Line, w.Err, w.Text)
}

// Report is the mutable context of one run. Each pass receives it, adds
// its counters and warnings, and hands it on. Nothing is kept between runs.
type Report struct {
	Lines        int
	PointerLines int
	Operations   map[Kind]int
	Replies      map[Kind]int
	Intervals    map[Subject]int
	Boundaries   int
	Warnings     []Warning

	logger *slog.Logger
	digest *inputDigest
}

func newReport(logger *slog.Logger) *Report {
	return &Report{
		Operations: make(map[Kind]int),
		Replies:    make(map[Kind]int),
		Intervals:  make(map[Subject]int),
		logger:     logger,
	}
}

func (r *Report) warn(source string, line int, err error, text string) {
	r.Warnings = append(r.Warnings, Warning{Source: source, Line: line, Err: err, Text: text})
	if r.logger != nil {
		r.logger.Warn(err.Error(), "source", source, "line", line, "text", text)
	}
}

// consume feeds a line that takes part in the reconstruction to the run's
// input digest.
func (r *Report) consume(source, text string) {
	if r.digest != nil {
		r.digest.line(source, text)
	}
}

// debugRing logs the replayed ring at debug level.
func (r *Report) debugRing(msg string, t Timestamp, ring fmt.Stringer) {
	if r == nil || r.logger == nil || !r.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	r.logger.Debug(msg, "time", t, "ring", ring.String())
}

// countIntervals records the number of intervals per subject.
func (r *Report) countIntervals(intervals []*Interval) {
	for _, iv := range intervals {
		r.Intervals[iv.Subject]++
	}
}

// Summary renders the counters for the user.
func (r *Report) Summary() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("lines read: %d (pointer log: %d)\n", r.Lines, r.PointerLines))

	b.WriteString("operations:")
	for kind := KindStore; kind <= KindFail; kind++ {
		if n := r.Operations[kind]; n > 0 {
			b.WriteString(fmt.Sprintf(" %s=%d", kind, n))
		}
	}
	b.WriteString("\nreplies:")
	for kind := KindStore; kind <= KindFail; kind++ {
		if n := r.Replies[kind]; n > 0 {
			b.WriteString(fmt.Sprintf(" %s=%d", kind, n))
		}
	}

	b.WriteString("\nintervals:")
	for _, subject := range Subjects {
		b.WriteString(fmt.Sprintf(" %s=%d", subject, r.Intervals[subject]))
	}

	b.WriteString(fmt.Sprintf("\ntimestamps: %d\nwarnings: %d\n", r.Boundaries, len(r.Warnings)))
	return b.String()
}
