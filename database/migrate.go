package database

import (
	"database/sql"
	"fmt"
)

var (
	createTracesTableSQL = `
CREATE TABLE IF NOT EXISTS %s_traces (
    trace_id      UUID          NOT NULL,
    nodes         TEXT[]        NOT NULL,
    keys          TEXT[]        NOT NULL,
    vals          TEXT[]        NOT NULL,
    backloop      INTEGER       NOT NULL,
    created_at    TIMESTAMPTZ   NOT NULL,

    PRIMARY KEY (trace_id)
);`

	createIntervalsTableSQL = `
CREATE TABLE IF NOT EXISTS %s_intervals (
    trace_id      UUID          NOT NULL,
    name          VARCHAR       NOT NULL,
    subject       VARCHAR       NOT NULL,
    start_time    VARCHAR       NOT NULL,
    end_time      VARCHAR,
    node          VARCHAR       NOT NULL,
    keys          TEXT[]        NOT NULL,

    PRIMARY KEY (trace_id, name)
);`

	createSnapshotsTableSQL = `
CREATE TABLE IF NOT EXISTS %s_snapshots (
    trace_id      UUID          NOT NULL,
    idx           INTEGER       NOT NULL,
    boundary      VARCHAR       NOT NULL,
    backloop      BOOLEAN       NOT NULL,
    ongoing       TEXT[]        NOT NULL,
    starting      TEXT[]        NOT NULL,
    ending        TEXT[]        NOT NULL,

    PRIMARY KEY (trace_id, idx)
);`

	createIntervalsSubjectIndexSQL = `
CREATE INDEX IF NOT EXISTS %s
ON %s_intervals (trace_id, subject);`
)

// Migrate creates the traces, intervals and snapshots tables with indexes.
func Migrate(db *sql.DB, tableName string) error {
	if err := createTable(db, createTracesTableSQL, tableName, "traces"); err != nil {
		return err
	}

	if err := createTable(db, createIntervalsTableSQL, tableName, "intervals"); err != nil {
		return err
	}

	if err := createTable(db, createSnapshotsTableSQL, tableName, "snapshots"); err != nil {
		return err
	}

	if err := createIntervalsSubjectIndex(db, tableName); err != nil {
		return err
	}

	return nil
}

func createTable(db *sql.DB, template, tableName, what string) error {
	var query = fmt.Sprintf(template, tableName)
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create %s table: %w", what, err)
	}
	return nil
}

func createIntervalsSubjectIndex(db *sql.DB, tableName string) error {
	var (
		indexName = fmt.Sprintf("%s_intervals_subject_idx", tableName)
		query     = fmt.Sprintf(createIntervalsSubjectIndexSQL, indexName, tableName)
	)
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create intervals index: %w", err)
	}
	return nil
}
