package dhttrace

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

const logSource = "log"

// Log is the decoded operation log.
type Log struct {
	Nodes  map[string]struct{}
	Keys   map[string]struct{}
	Values map[string]struct{}
	Times  map[Timestamp]struct{}

	// Operations and Replies keep insertion (file) order.
	Operations []*Operation
	Replies    []*Reply
	// Events is every accepted line in file order.
	Events []Event

	byID     map[string]*Operation
	replyIDs map[string]*Reply
}

func newLog() *Log {
	return &Log{
		Nodes:    make(map[string]struct{}),
		Keys:     make(map[string]struct{}),
		Values:   map[string]struct{}{NoValue: {}},
		Times:    make(map[Timestamp]struct{}),
		byID:     make(map[string]*Operation),
		replyIDs: make(map[string]*Reply),
	}
}

// Operation returns the operation with the given log id.
func (l *Log) Operation(id string) (*Operation, bool) {
	var op, ok = l.byID[id]
	return op, ok
}

// Reply returns the reply to the operation with the given log id.
func (l *Log) Reply(id string) (*Reply, bool) {
	var reply, ok = l.replyIDs[id]
	return reply, ok
}

// Last returns the time of the last accepted event.
func (l *Log) Last() Timestamp {
	if len(l.Events) == 0 {
		return ""
	}
	return l.Events[len(l.Events)-1].EventTime()
}

// SortedKeys returns the key set in ring order.
func (l *Log) SortedKeys() []string {
	return sortedSet(l.Keys)
}

func sortedSet(set map[string]struct{}) []string {
	var out = make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// splitLine splits a comma separated log line into trimmed fields. Trailing
// empty fields left by a dangling comma are dropped.
func splitLine(line string) []string {
	var fields = strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	return fields
}

// logReader holds the state of one scan of the operation log.
type logReader struct {
	log      *Log
	report   *Report
	counts   map[Kind]int
	maxLines int
	prev     Timestamp
}

// readLog decodes an operation log. Recoverable anomalies are added to the
// report as warnings; malformed or unordered lines abort the scan.
func readLog(r io.Reader, maxLines int, report *Report) (*Log, error) {
	var (
		lr = &logReader{
			log:      newLog(),
			report:   report,
			counts:   make(map[Kind]int),
			maxLines: maxLines,
		}
		scanner = bufio.NewScanner(r)
		line    = 0
	)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		if lr.maxLines > 0 && line == lr.maxLines {
			break
		}
		line++

		var text = strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		if line%1000 == 0 && report.logger != nil {
			report.logger.Info("reading log", "lines", line)
		}

		report.consume(logSource, text)
		if err := lr.readLine(line, text); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}

	report.Lines = line
	return lr.log, nil
}

func (lr *logReader) readLine(line int, text string) error {
	var fields = splitLine(text)
	if len(fields) < 2 {
		return lineError(line, ErrMalformedLine, text)
	}

	var (
		time   = NormalizeTimestamp(fields[0])
		column = fields[1]
	)
	if time < lr.prev {
		return lineError(line, ErrUnordered, text)
	}
	lr.prev = time
	lr.log.Times[time] = struct{}{}

	if kind, ok := parseKind(column); ok {
		return lr.readOperation(line, text, time, kind, fields)
	}

	if replied, found := strings.CutPrefix(column, "Reply"); found {
		var kind, ok = parseKind(replied)
		if !ok {
			lr.report.warn(logSource, line, ErrUnknownKind, text)
			return nil
		}
		return lr.readReply(line, text, time, kind, fields)
	}

	switch column {
	case "StartStableRegimen", "EndStableRegimen":
		// Regimens are derived, the markers carry nothing new.
		return nil
	default:
		lr.report.warn(logSource, line, ErrUnknownKind, text)
		return nil
	}
}

// readOperation handles `time, kind, id, node[, args...]`.
func (lr *logReader) readOperation(line int, text string, time Timestamp, kind Kind, fields []string) error {
	if len(fields) < 4 {
		return lineError(line, ErrMalformedLine, text)
	}

	var (
		id   = fields[2]
		node = fields[3]
		args = fields[4:]
	)

	if _, exists := lr.log.byID[id]; exists {
		lr.report.warn(logSource, line, ErrDuplicateOperation, text)
		return nil
	}

	var op = &Operation{
		Kind: kind,
		ID:   id,
		Node: node,
		Time: time,
	}

	switch kind {
	case KindStore:
		if len(args) < 2 {
			return lineError(line, ErrMalformedLine, text)
		}
		op.Key, op.Value = args[0], args[1]
		lr.log.Values[op.Value] = struct{}{}
	case KindRemove:
		if len(args) < 1 {
			return lineError(line, ErrMalformedLine, text)
		}
		op.Key, op.Value = args[0], NoValue
	case KindLookup, KindFindNode:
		if len(args) < 1 {
			return lineError(line, ErrMalformedLine, text)
		}
		op.Key = args[0]
	case KindJoin, KindLeave:
	case KindFail:
		op.End = time
	}

	if kind.Functional() {
		lr.log.Keys[op.Key] = struct{}{}
	}

	lr.counts[kind]++
	op.Tag = lr.counts[kind]
	lr.report.Operations[kind]++

	lr.log.Nodes[node] = struct{}{}
	lr.log.Operations = append(lr.log.Operations, op)
	lr.log.Events = append(lr.log.Events, op)
	lr.log.byID[id] = op
	return nil
}

// readReply handles `time, Reply<Kind>, id[, replier[, result...]]`.
func (lr *logReader) readReply(line int, text string, time Timestamp, kind Kind, fields []string) error {
	if len(fields) < 3 {
		return lineError(line, ErrMalformedLine, text)
	}

	var (
		id      = fields[2]
		replier string
		args    []string
	)
	if len(fields) > 3 {
		replier = fields[3]
		args = fields[4:]
	}

	var op, ok = lr.log.byID[id]
	if !ok {
		lr.report.warn(logSource, line, ErrOrphanReply, text)
		return nil
	}
	if op.Kind != kind {
		lr.report.warn(logSource, line, ErrReplyMismatch, text)
		return nil
	}
	if op.Replied() {
		lr.report.warn(logSource, line, ErrDuplicateReply, text)
		return nil
	}

	op.End = time

	if kind.Functional() {
		if replier == "" {
			lr.report.warn(logSource, line, ErrMissingResult, text)
			replier = NoNode
		}
		op.Replier = replier
	}
	if replier != "" && replier != NoNode {
		lr.log.Nodes[replier] = struct{}{}
	}

	switch kind {
	case KindLookup:
		op.Value = NoValue
		if len(args) > 0 {
			op.Value = args[0]
		} else {
			lr.report.warn(logSource, line, ErrMissingResult, text)
		}
		lr.log.Values[op.Value] = struct{}{}
	case KindFindNode:
		op.Responsible = NoNode
		if len(args) > 0 {
			op.Responsible = args[0]
			lr.log.Nodes[op.Responsible] = struct{}{}
		} else {
			lr.report.warn(logSource, line, ErrMissingResult, text)
		}
	case KindStore, KindRemove, KindJoin, KindLeave, KindFail:
	}

	var reply = &Reply{
		Kind:    kind,
		ID:      id,
		Tag:     op.Tag,
		Replier: replier,
		Time:    time,
	}
	lr.report.Replies[kind]++
	lr.log.Replies = append(lr.log.Replies, reply)
	lr.log.Events = append(lr.log.Events, reply)
	lr.log.replyIDs[id] = reply
	return nil
}
