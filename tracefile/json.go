// Package tracefile writes reconstructed traces as artifacts: a JSON
// document validated against an embedded schema, or an Alloy instance
// document for temporal-logic checking.
package tracefile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/natefinch/atomic"
	"github.com/spf13/afero"

	dhttrace "go-dhttrace"
)

// Document is the JSON form of a trace.
type Document struct {
	Version    string     `json:"version"`
	TraceID    string     `json:"trace_id"`
	Nodes      []string   `json:"nodes"`
	Keys       []string   `json:"keys"`
	Values     []string   `json:"values"`
	Boundaries []string   `json:"boundaries"`
	Backloop   int        `json:"backloop"`
	Intervals  []Interval `json:"intervals"`
	Snapshots  []Snapshot `json:"snapshots"`
}

type Interval struct {
	Name      string     `json:"name"`
	Subject   string     `json:"subject"`
	Start     string     `json:"start"`
	End       string     `json:"end,omitempty"`
	Node      string     `json:"node,omitempty"`
	Keys      []string   `json:"keys,omitempty"`
	Operation *Operation `json:"operation,omitempty"`
}

type Operation struct {
	Kind        string `json:"kind"`
	ID          string `json:"id"`
	Node        string `json:"node"`
	Key         string `json:"key,omitempty"`
	Value       string `json:"value,omitempty"`
	Responsible string `json:"responsible,omitempty"`
	Replier     string `json:"replier,omitempty"`
}

type Snapshot struct {
	Index    int      `json:"index"`
	Time     string   `json:"time"`
	Backloop bool     `json:"backloop"`
	Ongoing  []string `json:"ongoing"`
	Starting []string `json:"starting"`
	Ending   []string `json:"ending"`
}

// names returns s, or an empty list when s is nil.
func names(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// NewDocument converts a trace into its JSON form.
func NewDocument(trace *dhttrace.Trace) *Document {
	var doc = &Document{
		Version:    SchemaVersion,
		TraceID:    trace.ID.String(),
		Nodes:      names(trace.Nodes),
		Keys:       names(trace.Keys),
		Values:     names(trace.Values),
		Boundaries: make([]string, len(trace.Boundaries)),
		Backloop:   trace.Backloop(),
		Intervals:  make([]Interval, len(trace.Intervals)),
		Snapshots:  make([]Snapshot, len(trace.Snapshots)),
	}

	for i, b := range trace.Boundaries {
		doc.Boundaries[i] = string(b)
	}

	for i, iv := range trace.Intervals {
		doc.Intervals[i] = Interval{
			Name:    iv.Name(),
			Subject: iv.Subject.String(),
			Start:   string(iv.Start),
			End:     string(iv.End),
			Node:    iv.Node,
			Keys:    iv.Keys,
		}
		if op := iv.Op; op != nil {
			doc.Intervals[i].Operation = &Operation{
				Kind:        op.Kind.String(),
				ID:          op.ID,
				Node:        op.Node,
				Key:         op.Key,
				Value:       op.Value,
				Responsible: op.Responsible,
				Replier:     op.Replier,
			}
		}
	}

	for i, snap := range trace.Snapshots {
		doc.Snapshots[i] = Snapshot{
			Index:    snap.Index,
			Time:     string(snap.Time),
			Backloop: snap.Backloop,
			Ongoing:  names(snap.Ongoing),
			Starting: names(snap.Starting),
			Ending:   names(snap.Ending),
		}
	}

	return doc
}

// TraceSnapshots converts the snapshots of a document back into the
// engine's form. Empty name lists become nil.
func (d *Document) TraceSnapshots() []dhttrace.Snapshot {
	var out = make([]dhttrace.Snapshot, len(d.Snapshots))
	for i, snap := range d.Snapshots {
		out[i] = dhttrace.Snapshot{
			Index:    snap.Index,
			Time:     dhttrace.Timestamp(snap.Time),
			Backloop: snap.Backloop,
			Ongoing:  nilIfEmpty(snap.Ongoing),
			Starting: nilIfEmpty(snap.Starting),
			Ending:   nilIfEmpty(snap.Ending),
		}
	}
	return out
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

// EncodeJSON encodes a trace and validates the result.
func EncodeJSON(trace *dhttrace.Trace) ([]byte, error) {
	data, err := json.MarshalIndent(NewDocument(trace), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal trace: %w", err)
	}
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}
	return data, nil
}

// ReadJSON reads and validates a trace document.
func ReadJSON(fs afero.Fs, path string) (*Document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read trace %s: %w", path, err)
	}
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal trace %s: %w", path, err)
	}
	return &doc, nil
}

// writeAtomic replaces path with the contents of r in one step.
func writeAtomic(path string, r io.Reader) error {
	if err := atomic.WriteFile(path, r); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteJSON writes the trace document to path atomically.
func WriteJSON(path string, trace *dhttrace.Trace) error {
	data, err := EncodeJSON(trace)
	if err != nil {
		return err
	}
	return writeAtomic(path, bytes.NewReader(data))
}
