package database

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestDatabaseURL(t *testing.T) {
	t.Run("should disable ssl without a search path", func(t *testing.T) {
		// Act
		u, err := url.Parse(testDatabaseURL(""))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "disable", u.Query().Get("sslmode"))
		assert.False(t, u.Query().Has("search_path"))
		assert.Equal(t, "/dhttrace_test_db", u.Path)
	})

	t.Run("should set the schema as search path", func(t *testing.T) {
		// Act
		u, err := url.Parse(testDatabaseURL("test_ab12cd34"))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "disable", u.Query().Get("sslmode"))
		assert.Equal(t, "test_ab12cd34", u.Query().Get("search_path"))
	})
}
