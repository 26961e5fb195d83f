package dhttrace

import (
	"fmt"
	"io"
)

// coordinator runs the reconstruction passes over one log, in order:
// reader, regimens and membership, ring, assembler.
type coordinator struct {
	options options
	report  *Report
}

// newCoordinator creates a new coordinator.
func newCoordinator(opts options) *coordinator {
	return &coordinator{
		options: opts,
		report:  newReport(opts.logger),
	}
}

// run reconstructs the trace. pointers may be nil, in which case no ideal
// state or responsibility intervals are derived.
func (c *coordinator) run(logR, pointers io.Reader) (*Trace, error) {
	var logger = c.options.logger

	log, err := readLog(logR, c.options.maxLines, c.report)
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	logger.Info("log read",
		"lines", c.report.Lines,
		"operations", len(log.Operations),
		"replies", len(log.Replies),
		"nodes", len(log.Nodes),
		"keys", len(log.Keys))

	var stable, readOnly = detectRegimens(log.Events)
	logger.Debug("regimens detected", "stable", len(stable), "read_only", len(readOnly))

	var m = newMembership(log, logger)
	members, err := m.Detect(c.options.seedMembers)
	if err != nil {
		return nil, fmt.Errorf("failed to detect membership: %w", err)
	}
	logger.Debug("membership detected", "intervals", len(members), "final_members", m.Members())

	var ring RingOutput
	if pointers != nil {
		ring, err = c.options.ringDetector.Detect(RingInput{
			Pointers:   pointers,
			Limit:      log.Last(),
			Keys:       log.SortedKeys(),
			Operations: log.Operations,
			Members:    members,
			Report:     c.report,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to detect ring state: %w", err)
		}
		logger.Debug("ring detected", "ideal", len(ring.Ideal), "responsibility", len(ring.Responsibility))
	}

	var intervals = make([]*Interval, 0, len(log.Operations)+len(members)+len(stable)+len(readOnly))
	for _, op := range log.Operations {
		intervals = append(intervals, operationInterval(op))
	}
	intervals = append(intervals, members...)
	intervals = append(intervals, stable...)
	intervals = append(intervals, readOnly...)
	intervals = append(intervals, ring.Ideal...)
	intervals = append(intervals, ring.Responsibility...)
	c.report.countIntervals(intervals)

	boundaries, snapshots, err := assemble(intervals)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble trace: %w", err)
	}
	c.report.Boundaries = len(boundaries)
	logger.Info("trace assembled", "boundaries", len(boundaries), "intervals", len(intervals))

	var nodes = sortedSet(log.Nodes)
	return &Trace{
		Nodes:      nodes,
		Keys:       log.SortedKeys(),
		Values:     sortedSet(log.Values),
		Boundaries: boundaries,
		Intervals:  intervals,
		Snapshots:  snapshots,
	}, nil
}
