package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
)

func openTempStore(t *testing.T) *Connection {
	t.Helper()
	conn, err := NewConnection(SQLiteConfig{Path: filepath.Join(t.TempDir(), "shg.db")}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestMigrator_UpDownStatus(t *testing.T) {
	conn := openTempStore(t)
	m := NewMigrator(conn, logging.NewNopLogger())

	status, err := m.Status()
	require.NoError(t, err)
	assert.Equal(t, MigrationStatus{}, status)

	require.NoError(t, m.Up())
	require.NoError(t, m.Up(), "second Up is a no-op")

	status, err = m.Status()
	require.NoError(t, err)
	assert.Equal(t, uint(1), status.Version)
	assert.False(t, status.Dirty)

	var tables int
	require.NoError(t, conn.DB().QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN
		('shg','member','member_skills','member_financials','products','inventory',
		 'transactions','shg_production','demand_centers','district_demand','data_revision')`,
	).Scan(&tables))
	assert.Equal(t, 11, tables)

	require.NoError(t, m.Down(0))
	require.NoError(t, conn.DB().QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'shg'`,
	).Scan(&tables))
	assert.Equal(t, 0, tables)
}

func TestMigrator_RevisionTriggers(t *testing.T) {
	conn := openTempStore(t)
	require.NoError(t, NewMigrator(conn, logging.NewNopLogger()).Up())
	ctx := context.Background()

	revision := func() int64 {
		var rev int64
		require.NoError(t, conn.DB().QueryRowContext(ctx, `SELECT revision FROM data_revision WHERE id = 1`).Scan(&rev))
		return rev
	}

	start := revision()
	_, err := conn.DB().ExecContext(ctx, `INSERT INTO shg (name, district, state) VALUES ('Jyoti', 'Pune', 'Maharashtra')`)
	require.NoError(t, err)
	afterInsert := revision()
	assert.Greater(t, afterInsert, start)

	_, err = conn.DB().ExecContext(ctx, `UPDATE shg SET village = 'Wagholi' WHERE name = 'Jyoti'`)
	require.NoError(t, err)
	afterUpdate := revision()
	assert.Greater(t, afterUpdate, afterInsert)

	_, err = conn.DB().ExecContext(ctx, `DELETE FROM shg`)
	require.NoError(t, err)
	assert.Greater(t, revision(), afterUpdate)
}
