package dhttrace

import (
	"io"
	"log/slog"

	"github.com/spf13/afero"
)

// options configures the Analyzer behavior (internal only).
type options struct {
	maxLines     int
	seedMembers  []string
	ringDetector RingDetector
	fs           afero.Fs
	logger       *slog.Logger
}

// defaultOptions returns sensible defaults.
func defaultOptions() options {
	return options{
		maxLines:     0,
		ringDetector: NewChordDetector(),
		fs:           afero.NewOsFs(),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option is a functional option for configuring an Analyzer.
type Option func(*options)

// WithMaxLines bounds the number of operation log lines read.
// Zero means no bound.
func WithMaxLines(n int) Option {
	return func(o *options) {
		o.maxLines = n
	}
}

// WithSeedMembers declares the nodes that are members before the first
// logged event. Without it the node of the first event is assumed to be a
// member unless that event is a Join.
func WithSeedMembers(nodes ...string) Option {
	return func(o *options) {
		o.seedMembers = nodes
	}
}

// WithRingDetector replaces the ring detector used for ideal state and
// responsibility intervals.
func WithRingDetector(d RingDetector) Option {
	return func(o *options) {
		if d != nil {
			o.ringDetector = d
		}
	}
}

// WithFs sets the filesystem the logs are read from.
// DEFAULT: the operating system filesystem
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// WithLogger sets the logger for the analyzer.
// If the logger is nil, the analyzer will use a no-op logger.
// DEFAULT: A no-op logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			return
		}

		o.logger = logger
	}
}
