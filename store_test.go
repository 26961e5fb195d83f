package dhttrace

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-dhttrace/database"
)

func TestStore(t *testing.T) {
	const (
		testTable = "test_traces"
	)

	var (
		newTrace = func(t *testing.T, lines ...string) *Trace {
			trace, _, err := NewAnalyzer().Run(strings.NewReader(strings.Join(lines, "\n")), nil)
			require.NoError(t, err)
			return trace
		}
		newCtx = func() context.Context {
			return context.Background()
		}
	)

	t.Run("should reject an unsafe table name", func(t *testing.T) {
		assert.ErrorIs(t, ValidateTableName("traces; DROP TABLE x"), ErrInvalidTableName)
		assert.ErrorIs(t, ValidateTableName("1traces"), ErrInvalidTableName)
		assert.NoError(t, ValidateTableName("dht_traces_2"))
	})

	t.Run("should read back the exported snapshots", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var (
			db    = database.SetupTestDatabase(t)
			ctx   = newCtx()
			trace = newTrace(t,
				at(0, "Lookup, 1, N1, k1"),
				at(1, "ReplyLookup, 1, N2, v1"),
			)
		)

		// Act
		err := ExportTrace(ctx, db, testTable, trace)
		require.NoError(t, err)
		id, snapshots, loadErr := LoadSnapshots(ctx, db, testTable, trace.ID)

		// Assert
		require.NoError(t, loadErr)
		assert.Equal(t, trace.ID, id)
		if diff := cmp.Diff(trace.Snapshots, snapshots, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("snapshots differ (-exported +loaded):\n%s", diff)
		}

		intervals, listErr := database.NewQueries(db, testTable).ListIntervals(ctx, trace.ID)
		require.NoError(t, listErr)
		assert.Len(t, intervals, len(trace.Intervals))
	})

	t.Run("should load the latest trace when no id is given", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var (
			db     = database.SetupTestDatabase(t)
			ctx    = newCtx()
			older  = newTrace(t, at(0, "Join, 1, N1"))
			latest = newTrace(t, at(0, "Join, 1, N2"))
		)
		require.NoError(t, ExportTrace(ctx, db, testTable, older))
		require.NoError(t, ExportTrace(ctx, db, testTable, latest))

		// Act
		id, _, err := LoadSnapshots(ctx, db, testTable, uuid.Nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, latest.ID, id)
	})

	t.Run("should replace a trace exported twice", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var (
			db    = database.SetupTestDatabase(t)
			ctx   = newCtx()
			trace = newTrace(t, at(0, "Lookup, 1, N1, k1"))
		)

		// Act
		require.NoError(t, ExportTrace(ctx, db, testTable, trace))
		err := ExportTrace(ctx, db, testTable, trace)

		// Assert
		require.NoError(t, err)
		traces, listErr := database.NewQueries(db, testTable).ListTraces(ctx)
		require.NoError(t, listErr)
		assert.Len(t, traces, 1)
	})

	t.Run("should report a missing trace", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var (
			db  = database.SetupTestDatabase(t)
			ctx = newCtx()
		)
		require.NoError(t, database.Migrate(db, testTable))

		// Act
		_, _, latestErr := LoadSnapshots(ctx, db, testTable, uuid.Nil)
		_, _, idErr := LoadSnapshots(ctx, db, testTable, uuid.New())

		// Assert
		assert.ErrorIs(t, latestErr, ErrTraceNotFound)
		assert.ErrorIs(t, idErr, ErrTraceNotFound)
	})
}
