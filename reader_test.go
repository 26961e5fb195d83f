package dhttrace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLog(t *testing.T) {
	var read = func(lines ...string) (*Log, *Report, error) {
		var report = newReport(nil)
		log, err := readLog(strings.NewReader(strings.Join(lines, "\n")+"\n"), 0, report)
		return log, report, err
	}

	t.Run("should decode an operation and its reply", func(t *testing.T) {
		// Act
		var log, report, err = read(
			"2024-01-01 10:00:01.000, Store, 1, N1, k1, v1",
			"2024-01-01 10:00:02.000, ReplyStore, 1, N2",
		)

		// Assert
		require.NoError(t, err)
		assert.Empty(t, report.Warnings)
		require.Len(t, log.Operations, 1)

		var op = log.Operations[0]
		assert.Equal(t, KindStore, op.Kind)
		assert.Equal(t, "Store$1", op.Name())
		assert.Equal(t, "k1", op.Key)
		assert.Equal(t, "v1", op.Value)
		assert.Equal(t, "N2", op.Replier)
		assert.Equal(t, Timestamp("2024-01-01 10:00:02.000"), op.End)

		reply, ok := log.Reply("1")
		require.True(t, ok)
		assert.Equal(t, "ReplyStore$1", reply.Name())

		assert.Equal(t, []string{"N1", "N2"}, sortedSet(log.Nodes))
		assert.Equal(t, []string{NoValue, "v1"}, sortedSet(log.Values))
		assert.Len(t, log.Events, 2)
		assert.Equal(t, 1, report.Operations[KindStore])
		assert.Equal(t, 1, report.Replies[KindStore])
	})

	t.Run("should number operations per kind", func(t *testing.T) {
		// Act
		var log, _, err = read(
			"2024-01-01 10:00:01.000, Store, a, N1, k1, v1",
			"2024-01-01 10:00:02.000, Lookup, b, N1, k1",
			"2024-01-01 10:00:03.000, Store, c, N1, k2, v2",
		)

		// Assert
		require.NoError(t, err)
		require.Len(t, log.Operations, 3)
		assert.Equal(t, "Store$1", log.Operations[0].Name())
		assert.Equal(t, "Lookup$1", log.Operations[1].Name())
		assert.Equal(t, "Store$2", log.Operations[2].Name())
	})

	t.Run("should normalise timestamps", func(t *testing.T) {
		// Act
		var log, _, err = read("2024-01-01 9:5:1.7, Join, 1, N1")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, Timestamp("2024-01-01 09:05:01.007"), log.Operations[0].Time)
	})

	t.Run("should encode a remove as a write without value", func(t *testing.T) {
		// Act
		var log, _, err = read("2024-01-01 10:00:01.000, Remove, 1, N1, k1")

		// Assert
		require.NoError(t, err)
		var op = log.Operations[0]
		assert.Equal(t, NoValue, op.Value)
		assert.True(t, op.Kind.Write())
		assert.True(t, op.Kind.Functional())
	})

	t.Run("should end a fail where it starts", func(t *testing.T) {
		// Act
		var log, _, err = read("2024-01-01 10:00:01.000, Fail, 1, N1")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, log.Operations[0].Time, log.Operations[0].End)
	})

	t.Run("should substitute sentinels for missing reply payloads", func(t *testing.T) {
		// Act
		var log, report, err = read(
			"2024-01-01 10:00:01.000, Lookup, 1, N1, k1",
			"2024-01-01 10:00:02.000, FindNode, 2, N1, k1",
			"2024-01-01 10:00:03.000, ReplyLookup, 1, N2",
			"2024-01-01 10:00:04.000, ReplyFindNode, 2",
		)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, NoValue, log.Operations[0].Value)
		assert.Equal(t, NoNode, log.Operations[1].Responsible)
		assert.Equal(t, NoNode, log.Operations[1].Replier)
		require.Len(t, report.Warnings, 3)
		for _, w := range report.Warnings {
			assert.ErrorIs(t, w.Err, ErrMissingResult)
		}
	})

	t.Run("should drop an orphan reply with a warning", func(t *testing.T) {
		// Act
		var log, report, err = read("2024-01-01 10:00:01.000, ReplyLookup, 9, N1, v1")

		// Assert
		require.NoError(t, err)
		assert.Empty(t, log.Events)
		require.Len(t, report.Warnings, 1)
		assert.ErrorIs(t, report.Warnings[0].Err, ErrOrphanReply)
		assert.Equal(t, 1, report.Warnings[0].Line)
	})

	t.Run("should drop duplicate and mismatched replies", func(t *testing.T) {
		// Act
		var log, report, err = read(
			"2024-01-01 10:00:01.000, Join, 1, N1",
			"2024-01-01 10:00:02.000, ReplyLeave, 1",
			"2024-01-01 10:00:03.000, ReplyJoin, 1",
			"2024-01-01 10:00:04.000, ReplyJoin, 1",
		)

		// Assert
		require.NoError(t, err)
		assert.Len(t, log.Replies, 1)
		assert.Equal(t, Timestamp("2024-01-01 10:00:03.000"), log.Operations[0].End)
		require.Len(t, report.Warnings, 2)
		assert.ErrorIs(t, report.Warnings[0].Err, ErrReplyMismatch)
		assert.ErrorIs(t, report.Warnings[1].Err, ErrDuplicateReply)
	})

	t.Run("should drop a repeated operation id", func(t *testing.T) {
		// Act
		var log, report, err = read(
			"2024-01-01 10:00:01.000, Lookup, 1, N1, k1",
			"2024-01-01 10:00:02.000, Lookup, 1, N2, k2",
		)

		// Assert
		require.NoError(t, err)
		require.Len(t, log.Operations, 1)
		assert.Equal(t, "N1", log.Operations[0].Node)
		require.Len(t, report.Warnings, 1)
		assert.ErrorIs(t, report.Warnings[0].Err, ErrDuplicateOperation)
	})

	t.Run("should skip unknown kinds and regimen markers", func(t *testing.T) {
		// Act
		var log, report, err = read(
			"2024-01-01 10:00:01.000, StartStableRegimen",
			"2024-01-01 10:00:02.000, Gossip, 1, N1",
			"2024-01-01 10:00:03.000, ReplyGossip, 1",
			"2024-01-01 10:00:04.000, EndStableRegimen",
		)

		// Assert
		require.NoError(t, err)
		assert.Empty(t, log.Events)
		require.Len(t, report.Warnings, 2)
		assert.ErrorIs(t, report.Warnings[0].Err, ErrUnknownKind)
		assert.ErrorIs(t, report.Warnings[1].Err, ErrUnknownKind)
	})

	t.Run("should fail on an unordered log", func(t *testing.T) {
		// Act
		var _, _, err = read(
			"2024-01-01 10:00:02.000, Join, 1, N1",
			"2024-01-01 10:00:01.000, Join, 2, N2",
		)

		// Assert
		assert.ErrorIs(t, err, ErrUnordered)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("should fail on malformed lines", func(t *testing.T) {
		for _, line := range []string{
			"no-comma-here",
			"2024-01-01 10:00:01.000, Store, 1",
			"2024-01-01 10:00:01.000, Store, 1, N1, k1",
			"2024-01-01 10:00:01.000, Lookup, 1, N1",
			"2024-01-01 10:00:01.000, ReplyLookup",
		} {
			var _, _, err = read(line)
			assert.ErrorIs(t, err, ErrMalformedLine, line)
		}
	})

	t.Run("should stop at the line bound", func(t *testing.T) {
		// Arrange
		var (
			report = newReport(nil)
			input  = "2024-01-01 10:00:01.000, Join, 1, N1\n2024-01-01 10:00:02.000, Join, 2, N2\n2024-01-01 10:00:03.000, Join, 3, N3\n"
		)

		// Act
		log, err := readLog(strings.NewReader(input), 2, report)

		// Assert
		require.NoError(t, err)
		assert.Len(t, log.Operations, 2)
		assert.Equal(t, 2, report.Lines)
	})

	t.Run("should tolerate a dangling comma", func(t *testing.T) {
		// Act
		var log, _, err = read("2024-01-01 10:00:01.000, Lookup, 1, N1, k1,")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "k1", log.Operations[0].Key)
	})
}
