package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// TraceRecord represents a reconstructed trace in the database.
type TraceRecord struct {
	TraceID   uuid.UUID
	Nodes     []string
	Keys      []string
	Values    []string
	Backloop  int
	CreatedAt time.Time
}

// IntervalRecord represents one interval of a trace.
type IntervalRecord struct {
	TraceID   uuid.UUID
	Name      string
	Subject   string
	StartTime string
	EndTime   sql.NullString // NULL while the interval is open
	Node      string
	Keys      []string
}

// SnapshotRecord represents the state at one time boundary of a trace.
type SnapshotRecord struct {
	TraceID  uuid.UUID
	Idx      int
	Time     string
	Backloop bool
	Ongoing  []string
	Starting []string
	Ending   []string
}
