package dhttrace

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// ts returns the normalised timestamp sec seconds into the test day.
func ts(sec int) Timestamp {
	return Timestamp(fmt.Sprintf("2024-01-01 10:00:%02d.000", sec))
}

// at formats one log line at sec seconds.
func at(sec int, rest string) string {
	return fmt.Sprintf("%s, %s", ts(sec), rest)
}

// mustReadLog decodes lines into a Log, failing the test on error.
func mustReadLog(t *testing.T, lines ...string) *Log {
	t.Helper()
	log, err := readLog(strings.NewReader(strings.Join(lines, "\n")+"\n"), 0, newReport(nil))
	require.NoError(t, err)
	return log
}

// names returns the names of intervals in order.
func names(intervals []*Interval) []string {
	var out = make([]string, 0, len(intervals))
	for _, iv := range intervals {
		out = append(out, iv.Name())
	}
	return out
}
