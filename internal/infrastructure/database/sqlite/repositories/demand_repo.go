package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/database/sqlite"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

type sqliteDemandRepo struct {
	conn     *sqlite.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewDemandRepo returns the SQLite repository for demand centres and the
// district demand reference table.
func NewDemandRepo(conn *sqlite.Connection, log logging.Logger) shg.DemandRepository {
	return &sqliteDemandRepo{conn: conn, log: log, executor: conn.DB()}
}

const demandColumns = `id, location, district, state, product_required, quantity_required, deadline, created_at`

func (r *sqliteDemandRepo) Create(ctx context.Context, d *shg.DemandCenter) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now()
	}
	res, err := r.executor.ExecContext(ctx, `
		INSERT INTO demand_centers (location, district, state, product_required, quantity_required, deadline, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Location, d.District, d.State, d.ProductRequired, d.QuantityRequired, d.Deadline, d.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create demand")
	}
	if d.ID, err = res.LastInsertId(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read demand id")
	}
	return nil
}

func (r *sqliteDemandRepo) GetByID(ctx context.Context, id int64) (*shg.DemandCenter, error) {
	row := r.executor.QueryRowContext(ctx, `SELECT `+demandColumns+` FROM demand_centers WHERE id = ?`, id)
	d, err := scanDemand(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeDemandNotFound, fmt.Sprintf("demand %d not found", id))
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get demand")
	}
	return d, nil
}

func (r *sqliteDemandRepo) List(ctx context.Context) ([]shg.DemandCenter, error) {
	rows, err := r.executor.QueryContext(ctx,
		`SELECT `+demandColumns+` FROM demand_centers ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list demands")
	}
	defer rows.Close()

	out := []shg.DemandCenter{}
	for rows.Next() {
		d, err := scanDemand(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan demand")
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate demands")
	}
	return out, nil
}

// ReplaceDistrictDemand swaps the whole reference table in one transaction.
func (r *sqliteDemandRepo) ReplaceDistrictDemand(ctx context.Context, rows []shg.DistrictDemand) (int, error) {
	tx, err := r.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM district_demand`); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to clear district demand")
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO district_demand (state, district, skill_category, monthly_demand, priority_level, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to prepare district demand insert")
	}
	defer stmt.Close()

	for _, d := range rows {
		if _, err := stmt.ExecContext(ctx,
			d.State, d.District, d.SkillCategory, d.MonthlyDemand, d.PriorityLevel, d.Latitude, d.Longitude,
		); err != nil {
			return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert district demand")
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit district demand")
	}
	r.log.Info("Replaced district demand table", logging.Int("rows", len(rows)))
	return len(rows), nil
}

func (r *sqliteDemandRepo) ListDistrictDemand(ctx context.Context) ([]shg.DistrictDemand, error) {
	rows, err := r.executor.QueryContext(ctx, `
		SELECT state, district, skill_category, monthly_demand, priority_level, latitude, longitude
		FROM district_demand ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list district demand")
	}
	defer rows.Close()

	out := []shg.DistrictDemand{}
	for rows.Next() {
		var (
			d                          shg.DistrictDemand
			demand, priority, lat, lon numeric
		)
		if err := rows.Scan(&d.State, &d.District, &d.SkillCategory, &demand, &priority, &lat, &lon); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan district demand")
		}
		d.MonthlyDemand = demand.Float()
		d.PriorityLevel = priority.Float()
		d.Latitude = lat.Float()
		d.Longitude = lon.Float()
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate district demand")
	}
	return out, nil
}

func scanDemand(sc scanner) (*shg.DemandCenter, error) {
	var (
		d                              shg.DemandCenter
		location, district, state, due text
		qty                            numeric
		created                        timestamp
	)
	if err := sc.Scan(&d.ID, &location, &district, &state, &d.ProductRequired, &qty, &due, &created); err != nil {
		return nil, err
	}
	d.Location = location.String()
	d.District = district.String()
	d.State = state.String()
	d.QuantityRequired = qty.Float()
	d.Deadline = due.String()
	d.CreatedAt = created.t
	return &d, nil
}
