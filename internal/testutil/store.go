package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/SHG-Insights/internal/infrastructure/database/sqlite"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
)

// NewStore opens a migrated SQLite store in a temporary directory.  It is
// closed when the test ends.
func NewStore(t testing.TB) *sqlite.Connection {
	t.Helper()
	log := logging.NewNopLogger()
	conn, err := sqlite.NewConnection(sqlite.SQLiteConfig{Path: filepath.Join(t.TempDir(), "shg.db")}, log)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, sqlite.NewMigrator(conn, log).Up())
	return conn
}
