package dhttrace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	t.Run("should summarise the counters of a run", func(t *testing.T) {
		// Arrange
		var input = strings.Join([]string{
			at(0, "Store, 1, N1, k1, v1"),
			at(1, "ReplyStore, 1, N1"),
			at(2, "ReplyLookup, 7, N1, v1"),
		}, "\n")

		// Act
		_, report, err := NewAnalyzer().Run(strings.NewReader(input), nil)
		require.NoError(t, err)
		var summary = report.Summary()

		// Assert
		assert.Contains(t, summary, "lines read: 3 (pointer log: 0)")
		assert.Contains(t, summary, "operations: Store=1")
		assert.Contains(t, summary, "replies: Store=1")
		assert.Contains(t, summary, "Operation=1")
		assert.Contains(t, summary, "IdealState=0")
		assert.Contains(t, summary, "timestamps: 2")
		assert.Contains(t, summary, "warnings: 1")
	})

	t.Run("should render warnings with their source line", func(t *testing.T) {
		// Arrange
		var report = newReport(nil)

		// Act
		report.warn(logSource, 4, ErrOrphanReply, "x, ReplyStore, 9")

		// Assert
		require.Len(t, report.Warnings, 1)
		assert.Equal(t, `log:4: reply without matching operation: x, ReplyStore, 9`, report.Warnings[0].String())
	})
}
