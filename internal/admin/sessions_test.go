package admin_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beaconly/internal/admin"
	"beaconly/internal/testsupport"
)

func TestSessions(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	user := testsupport.CreateTestUser(t, db, "admin@example.com", "secret123")

	t.Run("issued token validates", func(t *testing.T) {
		session, err := admin.IssueSession(db, user.ID, time.Hour)
		require.NoError(t, err)
		assert.NotEmpty(t, session.Token)

		got, ok, err := admin.ValidateToken(db, session.Token)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("unknown token is not an error", func(t *testing.T) {
		_, ok, err := admin.ValidateToken(db, "not-a-token")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		session, err := admin.IssueSession(db, user.ID, -time.Minute)
		require.NoError(t, err)

		_, ok, err := admin.ValidateToken(db, session.Token)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		session, err := admin.IssueSession(db, user.ID, time.Hour)
		require.NoError(t, err)

		require.NoError(t, admin.RevokeToken(db, session.Token))
		require.NoError(t, admin.RevokeToken(db, session.Token))

		_, ok, err := admin.ValidateToken(db, session.Token)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
