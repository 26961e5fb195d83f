package dhttrace

import (
	"fmt"
	"io"
)

// Analyzer reconstructs interval traces from DHT execution logs.
type Analyzer struct {
	options options
}

// NewAnalyzer creates an analyzer with the given options.
func NewAnalyzer(opts ...Option) *Analyzer {
	var options = defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Analyzer{options: options}
}

// Analyze reads the operation log at logPath and, when pointerPath is not
// empty, the successor-pointer log, and reconstructs their trace.
// The report is returned even when the run fails.
func (a *Analyzer) Analyze(logPath, pointerPath string) (*Trace, *Report, error) {
	logFile, err := a.options.fs.Open(logPath)
	if err != nil {
		return nil, newReport(a.options.logger), fmt.Errorf("failed to open log: %w", err)
	}
	defer logFile.Close()

	var pointers io.Reader
	if pointerPath != "" {
		pointerFile, err := a.options.fs.Open(pointerPath)
		if err != nil {
			return nil, newReport(a.options.logger), fmt.Errorf("failed to open pointer log: %w", err)
		}
		defer pointerFile.Close()
		pointers = pointerFile
	}

	a.options.logger.Info("analyzing", "log", logPath, "pointers", pointerPath)
	return a.Run(logFile, pointers)
}

// Run reconstructs the trace of an operation log and an optional pointer
// log. The trace id is derived from the options and the lines the run
// consumed, so runs over the same input with the same settings share it.
func (a *Analyzer) Run(logR, pointers io.Reader) (*Trace, *Report, error) {
	var (
		digest = newInputDigest()
		c      = newCoordinator(a.options)
	)
	digest.options(a.options)
	c.report.digest = digest

	trace, err := c.run(logR, pointers)
	if err != nil {
		return nil, c.report, err
	}

	trace.ID = digest.traceID()
	return trace, c.report, nil
}
