package dhttrace

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	var (
		interval = func(id string, start, end Timestamp) *Interval {
			return &Interval{Subject: SubjectStable, ID: id, Start: start, End: end}
		}
	)

	t.Run("should emit one snapshot per boundary and a backloop", func(t *testing.T) {
		// Arrange
		var intervals = []*Interval{
			interval("0", ts(1), ts(3)),
			interval("1", ts(2), ""),
		}

		// Act
		boundaries, snapshots, err := assemble(intervals)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []Timestamp{ts(1), ts(2), ts(3)}, boundaries)
		require.Len(t, snapshots, 4)

		assert.Equal(t, []string{"Stable$0"}, snapshots[0].Starting)
		assert.Equal(t, []string{"Stable$0"}, snapshots[0].Ongoing)
		assert.Equal(t, []string{"Stable$0", "Stable$1"}, snapshots[1].Ongoing)
		assert.Equal(t, []string{"Stable$0"}, snapshots[2].Ending)
		assert.Equal(t, []string{"Stable$1"}, snapshots[2].Ongoing)

		var backloop = snapshots[3]
		assert.True(t, backloop.Backloop)
		assert.Equal(t, 3, backloop.Index)
		assert.Equal(t, ts(3), backloop.Time)
		assert.Equal(t, []string{"Stable$1"}, backloop.Ongoing)
		assert.Empty(t, backloop.Starting)
		assert.Empty(t, backloop.Ending)
	})

	t.Run("should start before ending within a boundary", func(t *testing.T) {
		// Arrange
		var intervals = []*Interval{
			interval("0", ts(1), ts(2)),
			interval("1", ts(2), ts(3)),
			interval("2", ts(2), ts(2)),
		}

		// Act
		_, snapshots, err := assemble(intervals)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []string{"Stable$1", "Stable$2"}, snapshots[1].Starting)
		assert.Equal(t, []string{"Stable$0", "Stable$2"}, snapshots[1].Ending)
		assert.Equal(t, []string{"Stable$1"}, snapshots[1].Ongoing)
	})

	t.Run("should be deterministic", func(t *testing.T) {
		// Arrange
		var intervals = []*Interval{
			interval("0", ts(1), ts(4)),
			interval("1", ts(2), ts(3)),
			interval("2", ts(2), ""),
			{Subject: SubjectMembership, ID: "M0", Node: "N1", Start: ts(1)},
		}

		// Act
		b1, s1, err1 := assemble(intervals)
		b2, s2, err2 := assemble(intervals)

		// Assert
		require.NoError(t, err1)
		require.NoError(t, err2)
		if diff := cmp.Diff(b1, b2); diff != "" {
			t.Errorf("boundaries differ (-first +second):\n%s", diff)
		}
		if diff := cmp.Diff(s1, s2); diff != "" {
			t.Errorf("snapshots differ (-first +second):\n%s", diff)
		}
	})

	t.Run("should fail when an identity opens twice", func(t *testing.T) {
		// Arrange
		var intervals = []*Interval{
			interval("0", ts(1), ts(5)),
			interval("0", ts(2), ts(3)),
		}

		// Act
		_, _, err := assemble(intervals)

		// Assert
		var consistency *ConsistencyError
		require.ErrorAs(t, err, &consistency)
		assert.ErrorIs(t, err, ErrAlreadyOpen)
		assert.Equal(t, "Stable$0", consistency.Identity)
		assert.Equal(t, ts(2), consistency.Time)
	})

	t.Run("should fail when an identity ends before it starts", func(t *testing.T) {
		// Arrange
		var intervals = []*Interval{
			interval("0", ts(3), ts(1)),
		}

		// Act
		_, _, err := assemble(intervals)

		// Assert
		assert.ErrorIs(t, err, ErrNotOpen)
	})

	t.Run("should assemble nothing from no intervals", func(t *testing.T) {
		// Act
		boundaries, snapshots, err := assemble(nil)

		// Assert
		require.NoError(t, err)
		assert.Empty(t, boundaries)
		assert.Empty(t, snapshots)
	})
}

func TestTrace(t *testing.T) {
	t.Run("should find intervals by name", func(t *testing.T) {
		// Arrange
		var trace = &Trace{
			Boundaries: []Timestamp{ts(1), ts(2)},
			Intervals:  []*Interval{{Subject: SubjectIdeal, ID: "0", Start: ts(1)}},
		}

		// Act
		iv, ok := trace.Interval("Ideal$0")
		_, missing := trace.Interval("Ideal$1")

		// Assert
		require.True(t, ok)
		assert.Equal(t, ts(1), iv.Start)
		assert.False(t, missing)
		assert.Equal(t, 2, trace.Backloop())
	})
}
