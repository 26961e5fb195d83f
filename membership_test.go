package dhttrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembership(t *testing.T) {
	t.Run("should span a member from join reply to leave reply", func(t *testing.T) {
		// Arrange
		var (
			log = mustReadLog(t,
				at(0, "Join, 1, N1"),
				at(1, "ReplyJoin, 1, N1"),
				at(5, "Leave, 2, N1"),
				at(6, "ReplyLeave, 2, N1"),
			)
			m = newMembership(log, discardLogger)
		)

		// Act
		var members, err = m.Detect(nil)

		// Assert
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, "N1", members[0].Node)
		assert.Equal(t, ts(1), members[0].Start)
		assert.Equal(t, ts(6), members[0].End)
		assert.Empty(t, m.Members())
	})

	t.Run("should end a member on fail", func(t *testing.T) {
		// Arrange
		var (
			log = mustReadLog(t,
				at(0, "Join, 1, N1"),
				at(1, "ReplyJoin, 1, N1"),
				at(3, "Fail, 2, N1"),
			)
			m = newMembership(log, discardLogger)
		)

		// Act
		var members, err = m.Detect(nil)

		// Assert
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, ts(3), members[0].End)
	})

	t.Run("should seed the first actor", func(t *testing.T) {
		// Arrange
		var (
			log = mustReadLog(t,
				at(0, "Lookup, 1, N1, k1"),
				at(1, "Join, 2, N2"),
				at(2, "ReplyJoin, 2, N2"),
			)
			m = newMembership(log, discardLogger)
		)

		// Act
		var members, err = m.Detect(nil)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []string{"Member-N1$M0", "Member-N2$M1"}, names(members))
		assert.Equal(t, ts(0), members[0].Start)
		assert.True(t, members[0].Open())
		assert.Equal(t, []string{"N1", "N2"}, m.Members())
	})

	t.Run("should seed explicit members at the first event", func(t *testing.T) {
		// Arrange
		var (
			log = mustReadLog(t,
				at(2, "Leave, 1, N2"),
				at(3, "ReplyLeave, 1, N2"),
			)
			m = newMembership(log, discardLogger)
		)

		// Act
		var members, err = m.Detect([]string{"N1", "N2"})

		// Assert
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, ts(2), members[1].Start)
		assert.Equal(t, ts(3), members[1].End)
		assert.Equal(t, []string{"N1"}, m.Members())
	})

	t.Run("should fail when a member joins again", func(t *testing.T) {
		// Arrange
		var (
			log = mustReadLog(t,
				at(0, "Join, 1, N1"),
				at(1, "ReplyJoin, 1, N1"),
				at(2, "Join, 2, N1"),
				at(3, "ReplyJoin, 2, N1"),
			)
			m = newMembership(log, discardLogger)
		)

		// Act
		var _, err = m.Detect(nil)

		// Assert
		var consistency *ConsistencyError
		require.ErrorAs(t, err, &consistency)
		assert.ErrorIs(t, err, ErrAlreadyMember)
		assert.Equal(t, "Member-N1$M0", consistency.Identity)
		assert.Equal(t, ts(3), consistency.Time)
	})

	t.Run("should fail when a non-member leaves", func(t *testing.T) {
		// Arrange
		var (
			log = mustReadLog(t,
				at(0, "Join, 1, N1"),
				at(1, "ReplyJoin, 1, N1"),
				at(2, "Leave, 2, N2"),
				at(3, "ReplyLeave, 2, N2"),
			)
			m = newMembership(log, discardLogger)
		)

		// Act
		var _, err = m.Detect(nil)

		// Assert
		var consistency *ConsistencyError
		require.ErrorAs(t, err, &consistency)
		assert.ErrorIs(t, err, ErrNotMember)
		assert.Equal(t, "Member-N2", consistency.Identity)
	})

	t.Run("should derive nothing from an empty log", func(t *testing.T) {
		// Arrange
		var m = newMembership(mustReadLog(t), discardLogger)

		// Act
		var members, err = m.Detect([]string{"N1"})

		// Assert
		require.NoError(t, err)
		assert.Empty(t, members)
	})
}

func TestInitialMembers(t *testing.T) {
	t.Run("should prefer explicit seeds without duplicates", func(t *testing.T) {
		// Arrange
		var log = mustReadLog(t, at(0, "Lookup, 1, N9, k1"))

		// Act
		var seeds = initialMembers(log, []string{"N1", "", "N2", "N1"})

		// Assert
		assert.Equal(t, []string{"N1", "N2"}, seeds)
	})

	t.Run("should assume the first actor is a member", func(t *testing.T) {
		// Arrange
		var log = mustReadLog(t, at(0, "Store, 1, N3, k1, v1"))

		// Act & Assert
		assert.Equal(t, []string{"N3"}, initialMembers(log, nil))
	})

	t.Run("should not seed a node whose first action is a join", func(t *testing.T) {
		// Arrange
		var log = mustReadLog(t, at(0, "Join, 1, N1"))

		// Act & Assert
		assert.Empty(t, initialMembers(log, nil))
	})

	t.Run("should not seed from an empty log", func(t *testing.T) {
		assert.Empty(t, initialMembers(mustReadLog(t), nil))
	})
}
