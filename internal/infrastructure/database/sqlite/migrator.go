package sqlite

import (
	"embed"
	stderrors "errors"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationStatus is the schema version recorded in the store.
type MigrationStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

// Migrator applies the embedded schema migrations to a Connection.
type Migrator struct {
	conn   *Connection
	logger logging.Logger
}

// NewMigrator returns a Migrator bound to conn.
func NewMigrator(conn *Connection, log logging.Logger) *Migrator {
	return &Migrator{conn: conn, logger: log}
}

// instance builds a migrate.Migrate over the shared handle.  It is never
// closed because closing it would close the shared sql.DB.
func (m *Migrator) instance() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMigrationFailed, "failed to load embedded migrations")
	}
	drv, err := sqlitemigrate.WithInstance(m.conn.DB(), &sqlitemigrate.Config{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMigrationFailed, "failed to create migration driver")
	}
	mi, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMigrationFailed, "failed to create migrate instance")
	}
	return mi, nil
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	mi, err := m.instance()
	if err != nil {
		return err
	}
	if err := mi.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return m.failure(mi, err, "failed to apply migrations")
	}
	return m.logVersion(mi, "Database migrations applied")
}

// Down rolls back steps migrations, or all of them when steps <= 0.
func (m *Migrator) Down(steps int) error {
	mi, err := m.instance()
	if err != nil {
		return err
	}
	if steps <= 0 {
		err = mi.Down()
	} else {
		err = mi.Steps(-steps)
	}
	if err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return m.failure(mi, err, "failed to roll back migrations")
	}
	return m.logVersion(mi, "Database migrations rolled back")
}

// Status reports the applied version.  An untouched store is version 0.
func (m *Migrator) Status() (MigrationStatus, error) {
	mi, err := m.instance()
	if err != nil {
		return MigrationStatus{}, err
	}
	version, dirty, err := mi.Version()
	if err != nil {
		if stderrors.Is(err, migrate.ErrNilVersion) {
			return MigrationStatus{}, nil
		}
		return MigrationStatus{}, errors.Wrap(err, errors.ErrCodeMigrationFailed, "failed to read migration version")
	}
	return MigrationStatus{Version: version, Dirty: dirty}, nil
}

func (m *Migrator) failure(mi *migrate.Migrate, err error, msg string) error {
	version, dirty, _ := mi.Version()
	code := errors.ErrCodeMigrationFailed
	if dirty {
		code = errors.ErrCodeMigrationDirty
	}
	m.logger.Error(msg, logging.Err(err), logging.Int64("version", int64(version)), logging.Bool("dirty", dirty))
	return errors.Wrap(err, code, msg)
}

func (m *Migrator) logVersion(mi *migrate.Migrate, msg string) error {
	version, dirty, err := mi.Version()
	if err != nil && !stderrors.Is(err, migrate.ErrNilVersion) {
		m.logger.Warn("Failed to get migration version", logging.Err(err))
	}
	m.logger.Info(msg,
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}
