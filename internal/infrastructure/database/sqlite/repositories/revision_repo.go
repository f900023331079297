package repositories

import (
	"context"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/database/sqlite"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

type sqliteRevisionReader struct {
	executor queryExecutor
}

// NewRevisionReader returns a reader for the store's write counter.  Triggers
// on every table bump it, so any change to the rows yields a new value.
func NewRevisionReader(conn *sqlite.Connection) shg.RevisionReader {
	return &sqliteRevisionReader{executor: conn.DB()}
}

func (r *sqliteRevisionReader) CurrentRevision(ctx context.Context) (int64, error) {
	var rev int64
	if err := r.executor.QueryRowContext(ctx,
		`SELECT revision FROM data_revision WHERE id = 1`).Scan(&rev); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read data revision")
	}
	return rev, nil
}
