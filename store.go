package dhttrace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"go-dhttrace/database"
)

var (
	// ErrInvalidTableName is returned when the table prefix contains invalid characters
	ErrInvalidTableName = errors.New("table name must contain only lowercase letters, numbers, and underscores, and start with a letter")

	// ErrTraceNotFound is returned when no stored trace matches
	ErrTraceNotFound = errors.New("trace not found")

	// validTableNamePattern validates PostgreSQL-safe identifiers
	validTableNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// ValidateTableName checks that name is usable as a table prefix.
func ValidateTableName(name string) error {
	if !validTableNamePattern.MatchString(name) {
		return ErrInvalidTableName
	}
	return nil
}

// traceStore maps traces to and from database records.
type traceStore struct {
	queries *database.Queries
}

func newTraceStore(queries *database.Queries) *traceStore {
	return &traceStore{queries: queries}
}

// Save writes the trace, its intervals and its snapshots. A trace with the
// same id is replaced.
func (s *traceStore) Save(ctx context.Context, trace *Trace) error {
	if err := s.queries.DeleteTrace(ctx, trace.ID); err != nil {
		return err
	}

	var record = &database.TraceRecord{
		TraceID:   trace.ID,
		Nodes:     trace.Nodes,
		Keys:      trace.Keys,
		Values:    trace.Values,
		Backloop:  trace.Backloop(),
		CreatedAt: time.Now(),
	}
	if err := s.queries.SetTrace(ctx, record); err != nil {
		return fmt.Errorf("failed to save trace %s: %w", trace.ID, err)
	}

	for _, iv := range trace.Intervals {
		var interval = &database.IntervalRecord{
			TraceID:   trace.ID,
			Name:      iv.Name(),
			Subject:   iv.Subject.String(),
			StartTime: string(iv.Start),
			EndTime:   sql.NullString{String: string(iv.End), Valid: !iv.Open()},
			Node:      iv.Node,
			Keys:      iv.Keys,
		}
		if err := s.queries.SetInterval(ctx, interval); err != nil {
			return fmt.Errorf("failed to save interval %s: %w", iv.Name(), err)
		}
	}

	for _, snap := range trace.Snapshots {
		var snapshot = &database.SnapshotRecord{
			TraceID:  trace.ID,
			Idx:      snap.Index,
			Time:     string(snap.Time),
			Backloop: snap.Backloop,
			Ongoing:  snap.Ongoing,
			Starting: snap.Starting,
			Ending:   snap.Ending,
		}
		if err := s.queries.SetSnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("failed to save snapshot %d: %w", snap.Index, err)
		}
	}

	return nil
}

// Snapshots loads the snapshots of a stored trace. uuid.Nil selects the
// most recently stored trace.
func (s *traceStore) Snapshots(ctx context.Context, traceID uuid.UUID) (uuid.UUID, []Snapshot, error) {
	if traceID == uuid.Nil {
		var traces, err = s.queries.ListTraces(ctx)
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("failed to list traces: %w", err)
		}
		if len(traces) == 0 {
			return uuid.Nil, nil, ErrTraceNotFound
		}
		traceID = traces[len(traces)-1].TraceID
	}

	var records, err = s.queries.ListSnapshots(ctx, traceID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to load snapshots of %s: %w", traceID, err)
	}
	if len(records) == 0 {
		return uuid.Nil, nil, fmt.Errorf("%w: %s", ErrTraceNotFound, traceID)
	}

	var snapshots = make([]Snapshot, len(records))
	for i, record := range records {
		snapshots[i] = Snapshot{
			Index:    record.Idx,
			Time:     Timestamp(record.Time),
			Backloop: record.Backloop,
			Ongoing:  emptyToNil(record.Ongoing),
			Starting: emptyToNil(record.Starting),
			Ending:   emptyToNil(record.Ending),
		}
	}

	return traceID, snapshots, nil
}

func emptyToNil(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

// ExportTrace stores a trace in Postgres in one transaction, creating the
// tables named after tableName when needed.
func ExportTrace(ctx context.Context, db *sql.DB, tableName string, trace *Trace) error {
	if err := ValidateTableName(tableName); err != nil {
		return fmt.Errorf("invalid table name: %w", err)
	}

	if err := database.Migrate(db, tableName); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := newTraceStore(database.NewQueries(tx, tableName)).Save(ctx, trace); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trace: %w", err)
	}
	return nil
}

// LoadSnapshots reads back the snapshots of a stored trace. uuid.Nil
// selects the most recently stored trace; its id is returned.
func LoadSnapshots(ctx context.Context, db *sql.DB, tableName string, traceID uuid.UUID) (uuid.UUID, []Snapshot, error) {
	if err := ValidateTableName(tableName); err != nil {
		return uuid.Nil, nil, fmt.Errorf("invalid table name: %w", err)
	}

	return newTraceStore(database.NewQueries(db, tableName)).Snapshots(ctx, traceID)
}
