// Package repositories implements the shg repository ports on SQLite.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
)

// queryExecutor abstracts sql.DB and sql.Tx
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanner abstracts sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// now is a variable so tests can pin timestamps.
var now = func() time.Time { return time.Now().UTC() }

// numeric is a scan target for REAL columns.  Whatever the driver hands back
// (float, integer, text, blob or NULL) goes through shg.SafeFloat.
type numeric struct {
	raw interface{}
}

func (n *numeric) Scan(v interface{}) error {
	n.raw = v
	return nil
}

func (n numeric) Float() float64 { return shg.SafeFloat(n.raw) }

// text is a scan target for nullable TEXT columns.
type text struct {
	sql.NullString
}

func (t text) String() string { return t.NullString.String }

// optionalID converts a nullable foreign key for binding.
func optionalID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

// timestamp scans TIMESTAMP columns, which the driver may return as
// time.Time or as text.  Unparseable or NULL values become the zero time.
type timestamp struct {
	t time.Time
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (ts *timestamp) Scan(v interface{}) error {
	switch x := v.(type) {
	case time.Time:
		ts.t = x
	case string:
		ts.t = parseTimestamp(x)
	case []byte:
		ts.t = parseTimestamp(string(x))
	default:
		ts.t = time.Time{}
	}
	return nil
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// nullID scans a nullable foreign key.
type nullID struct {
	sql.NullInt64
}

func (n nullID) ptr() *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
