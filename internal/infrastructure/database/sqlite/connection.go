// Package sqlite owns the file-backed SQLite store: connection pooling,
// embedded schema migrations and health checks.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

const driverName = "sqlite"

// sqlOpen is a variable to allow mocking in tests.
var sqlOpen = func(driverName, dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

// SQLiteConfig holds the store configuration.
type SQLiteConfig struct {
	Path         string        `yaml:"path"`
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
	MaxOpenConns int           `yaml:"max_open_conns"`
}

// Connection manages the pooled handle on the SQLite file.  Every repository
// call borrows a connection from the pool and returns it when done; nothing
// holds a connection across operations.
type Connection struct {
	db     *sql.DB
	cfg    SQLiteConfig
	logger logging.Logger
	once   sync.Once
}

// NewConnection opens the SQLite file, applies pool settings and verifies the
// handle with a ping.
func NewConnection(cfg SQLiteConfig, log logging.Logger) (*Connection, error) {
	if cfg.Path == "" {
		return nil, errors.New(errors.ErrCodeBadRequest, "sqlite path must not be empty")
	}

	db, err := sqlOpen(driverName, buildDSN(cfg))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to open database")
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 4
	}
	if cfg.Path == ":memory:" {
		// Each connection to :memory: is a separate database.
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "database connection failed")
	}

	log.Info("Opened SQLite database",
		logging.String("path", cfg.Path),
		logging.Int("max_open_conns", maxOpen),
	)

	return &Connection{db: db, cfg: cfg, logger: log}, nil
}

// NewConnectionWithDB creates a Connection with an existing sql.DB (for testing).
func NewConnectionWithDB(db *sql.DB, log logging.Logger) *Connection {
	return &Connection{db: db, logger: log}
}

// DB returns the underlying sql.DB instance.
func (c *Connection) DB() *sql.DB {
	return c.db
}

// HealthCheck verifies the database is reachable.
func (c *Connection) HealthCheck(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "database health check failed")
	}
	stats := c.Stats()
	if stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections {
		c.logger.Warn("Database connection pool exhausted",
			logging.Int("in_use", stats.InUse),
			logging.Int("max_open", stats.MaxOpenConnections),
		)
	}
	return nil
}

// Stats returns database statistics.
func (c *Connection) Stats() sql.DBStats {
	return c.db.Stats()
}

// Close closes the database handle.  Subsequent calls are no-ops.
func (c *Connection) Close() error {
	var err error
	c.once.Do(func() {
		err = c.db.Close()
		if err == nil {
			c.logger.Info("Closed SQLite database")
		} else {
			c.logger.Error("Failed to close SQLite database", logging.Err(err))
		}
	})
	return err
}

// buildDSN constructs the modernc.org/sqlite data source name.
func buildDSN(cfg SQLiteConfig) string {
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	q.Add("_pragma", "foreign_keys(1)")
	if cfg.Path != ":memory:" {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	q.Set("_time_format", "sqlite")
	q.Set("_txlock", "immediate")
	return "file:" + cfg.Path + "?" + q.Encode()
}
