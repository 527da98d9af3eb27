package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostgresMigrationsAreEmbeddedInOrder(t *testing.T) {
	migrations, err := PostgresMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	require.Equal(t, "postgres/migrations/0001_init.up.sql", migrations[0].Name)

	for _, table := range []string{"activities", "reflections", "tags", "users", "outbox", "outbox_dlq", "journal_event_log"} {
		require.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
	require.True(t, strings.Contains(migrations[0].SQL, "current_setting('app.user_id', true)"))
}
