package repositories

import (
	"context"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/database/sqlite"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

type sqliteProductionRepo struct {
	conn     *sqlite.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewProductionRepo returns the SQLite production capacity repository.
func NewProductionRepo(conn *sqlite.Connection, log logging.Logger) shg.ProductionRepository {
	return &sqliteProductionRepo{conn: conn, log: log, executor: conn.DB()}
}

func (r *sqliteProductionRepo) Create(ctx context.Context, c *shg.ProductionCapacity) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ProductType == "" {
		c.ProductType = shg.NonPerishable
	}
	res, err := r.executor.ExecContext(ctx, `
		INSERT INTO shg_production (shg_id, product_name, monthly_capacity, supply_ready, product_type)
		VALUES (?, ?, ?, ?, ?)`,
		c.SHGID, c.ProductName, c.MonthlyCapacity, c.SupplyReady, string(c.ProductType),
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create production capacity")
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read production id")
	}
	return nil
}

func (r *sqliteProductionRepo) List(ctx context.Context) ([]shg.ProductionCapacity, error) {
	rows, err := r.executor.QueryContext(ctx, `
		SELECT id, shg_id, product_name, monthly_capacity, supply_ready, product_type
		FROM shg_production ORDER BY shg_id, id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list production capacity")
	}
	defer rows.Close()

	out := []shg.ProductionCapacity{}
	for rows.Next() {
		var (
			c             shg.ProductionCapacity
			capacity, sup numeric
			productType   text
		)
		if err := rows.Scan(&c.ID, &c.SHGID, &c.ProductName, &capacity, &sup, &productType); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan production capacity")
		}
		c.MonthlyCapacity = capacity.Float()
		c.SupplyReady = sup.Float()
		c.ProductType = shg.ProductType(productType.String())
		if c.ProductType == "" {
			c.ProductType = shg.NonPerishable
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate production capacity")
	}
	return out, nil
}
