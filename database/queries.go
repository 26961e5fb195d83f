package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DBTX is an interface that both sql.DB and sql.Tx implement.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Queries provides table-aware database operations.
type Queries struct {
	db        DBTX
	tableName string
}

// NewQueries creates a new Queries instance with the given table name.
func NewQueries(db DBTX, tableName string) *Queries {
	return &Queries{
		db:        db,
		tableName: tableName,
	}
}

var (
	listTracesSQL = `
SELECT trace_id, nodes, keys, vals, backloop, created_at
FROM %s_traces
ORDER BY created_at ASC;`

	getTraceSQL = `
SELECT trace_id, nodes, keys, vals, backloop, created_at
FROM %s_traces
WHERE trace_id = $1;`

	setTraceSQL = `
INSERT INTO %s_traces (trace_id, nodes, keys, vals, backloop, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (trace_id)
DO UPDATE SET
    nodes = EXCLUDED.nodes,
    keys = EXCLUDED.keys,
    vals = EXCLUDED.vals,
    backloop = EXCLUDED.backloop,
    created_at = EXCLUDED.created_at;`

	deleteTraceSQL = `
DELETE FROM %s_traces
WHERE trace_id = $1;`

	listIntervalsSQL = `
SELECT trace_id, name, subject, start_time, end_time, node, keys
FROM %s_intervals
WHERE trace_id = $1
ORDER BY start_time ASC, name ASC;`

	setIntervalSQL = `
INSERT INTO %s_intervals (trace_id, name, subject, start_time, end_time, node, keys)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (trace_id, name)
DO UPDATE SET
    subject = EXCLUDED.subject,
    start_time = EXCLUDED.start_time,
    end_time = EXCLUDED.end_time,
    node = EXCLUDED.node,
    keys = EXCLUDED.keys;`

	deleteIntervalsSQL = `
DELETE FROM %s_intervals
WHERE trace_id = $1;`

	listSnapshotsSQL = `
SELECT trace_id, idx, boundary, backloop, ongoing, starting, ending
FROM %s_snapshots
WHERE trace_id = $1
ORDER BY idx ASC;`

	setSnapshotSQL = `
INSERT INTO %s_snapshots (trace_id, idx, boundary, backloop, ongoing, starting, ending)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (trace_id, idx)
DO UPDATE SET
    boundary = EXCLUDED.boundary,
    backloop = EXCLUDED.backloop,
    ongoing = EXCLUDED.ongoing,
    starting = EXCLUDED.starting,
    ending = EXCLUDED.ending;`

	deleteSnapshotsSQL = `
DELETE FROM %s_snapshots
WHERE trace_id = $1;`
)

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ListTraces returns all stored traces, oldest first.
func (q *Queries) ListTraces(ctx context.Context) ([]*TraceRecord, error) {
	var (
		query     = fmt.Sprintf(listTracesSQL, q.tableName)
		rows, err = q.db.QueryContext(ctx, query)
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list traces: %w", err)
	}
	defer rows.Close()

	var traces []*TraceRecord
	for rows.Next() {
		var trace TraceRecord
		if err := rows.Scan(&trace.TraceID, pq.Array(&trace.Nodes), pq.Array(&trace.Keys),
			pq.Array(&trace.Values), &trace.Backloop, &trace.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trace: %w", err)
		}
		traces = append(traces, &trace)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return traces, nil
}

// GetTrace retrieves a single trace by id.
func (q *Queries) GetTrace(ctx context.Context, traceID uuid.UUID) (*TraceRecord, error) {
	var (
		query = fmt.Sprintf(getTraceSQL, q.tableName)
		trace TraceRecord
		err   = q.db.QueryRowContext(ctx, query, traceID).Scan(
			&trace.TraceID, pq.Array(&trace.Nodes), pq.Array(&trace.Keys),
			pq.Array(&trace.Values), &trace.Backloop, &trace.CreatedAt,
		)
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trace: %w", err)
	}

	return &trace, nil
}

// SetTrace inserts or updates a trace.
func (q *Queries) SetTrace(ctx context.Context, trace *TraceRecord) error {
	var query = fmt.Sprintf(setTraceSQL, q.tableName)
	_, err := q.db.ExecContext(ctx, query,
		trace.TraceID, pq.Array(nonNil(trace.Nodes)), pq.Array(nonNil(trace.Keys)),
		pq.Array(nonNil(trace.Values)), trace.Backloop, trace.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to set trace: %w", err)
	}
	return nil
}

// DeleteTrace removes a trace together with its intervals and snapshots.
func (q *Queries) DeleteTrace(ctx context.Context, traceID uuid.UUID) error {
	for _, template := range []string{deleteSnapshotsSQL, deleteIntervalsSQL, deleteTraceSQL} {
		var query = fmt.Sprintf(template, q.tableName)
		if _, err := q.db.ExecContext(ctx, query, traceID); err != nil {
			return fmt.Errorf("failed to delete trace: %w", err)
		}
	}
	return nil
}

// ListIntervals returns all intervals of a trace ordered by start time.
func (q *Queries) ListIntervals(ctx context.Context, traceID uuid.UUID) ([]*IntervalRecord, error) {
	var (
		query     = fmt.Sprintf(listIntervalsSQL, q.tableName)
		rows, err = q.db.QueryContext(ctx, query, traceID)
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list intervals: %w", err)
	}
	defer rows.Close()

	var intervals []*IntervalRecord
	for rows.Next() {
		var interval IntervalRecord
		if err := rows.Scan(&interval.TraceID, &interval.Name, &interval.Subject, &interval.StartTime,
			&interval.EndTime, &interval.Node, pq.Array(&interval.Keys)); err != nil {
			return nil, fmt.Errorf("failed to scan interval: %w", err)
		}
		intervals = append(intervals, &interval)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return intervals, nil
}

// SetInterval inserts or updates an interval.
func (q *Queries) SetInterval(ctx context.Context, interval *IntervalRecord) error {
	var query = fmt.Sprintf(setIntervalSQL, q.tableName)
	_, err := q.db.ExecContext(ctx, query,
		interval.TraceID, interval.Name, interval.Subject, interval.StartTime,
		interval.EndTime, interval.Node, pq.Array(nonNil(interval.Keys)),
	)
	if err != nil {
		return fmt.Errorf("failed to set interval: %w", err)
	}
	return nil
}

// ListSnapshots returns all snapshots of a trace in order.
func (q *Queries) ListSnapshots(ctx context.Context, traceID uuid.UUID) ([]*SnapshotRecord, error) {
	var (
		query     = fmt.Sprintf(listSnapshotsSQL, q.tableName)
		rows, err = q.db.QueryContext(ctx, query, traceID)
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*SnapshotRecord
	for rows.Next() {
		var snapshot SnapshotRecord
		if err := rows.Scan(&snapshot.TraceID, &snapshot.Idx, &snapshot.Time, &snapshot.Backloop,
			pq.Array(&snapshot.Ongoing), pq.Array(&snapshot.Starting), pq.Array(&snapshot.Ending)); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, &snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return snapshots, nil
}

// SetSnapshot inserts or updates a snapshot.
func (q *Queries) SetSnapshot(ctx context.Context, snapshot *SnapshotRecord) error {
	var query = fmt.Sprintf(setSnapshotSQL, q.tableName)
	_, err := q.db.ExecContext(ctx, query,
		snapshot.TraceID, snapshot.Idx, snapshot.Time, snapshot.Backloop,
		pq.Array(nonNil(snapshot.Ongoing)), pq.Array(nonNil(snapshot.Starting)), pq.Array(nonNil(snapshot.Ending)),
	)
	if err != nil {
		return fmt.Errorf("failed to set snapshot: %w", err)
	}
	return nil
}
