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

type sqliteProductRepo struct {
	conn     *sqlite.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewProductRepo returns the SQLite product repository.
func NewProductRepo(conn *sqlite.Connection, log logging.Logger) shg.ProductRepository {
	return &sqliteProductRepo{conn: conn, log: log, executor: conn.DB()}
}

const productColumns = `id, shg_id, name, category, unit, cost_price, selling_price, created_at`

func (r *sqliteProductRepo) Create(ctx context.Context, p *shg.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}
	res, err := r.executor.ExecContext(ctx, `
		INSERT INTO products (shg_id, name, category, unit, cost_price, selling_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.SHGID, p.Name, p.Category, p.Unit, p.CostPrice, p.SellingPrice, p.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create product")
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read product id")
	}
	return nil
}

func (r *sqliteProductRepo) GetByID(ctx context.Context, id int64) (*shg.Product, error) {
	row := r.executor.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeProductNotFound, fmt.Sprintf("product %d not found", id))
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get product")
	}
	return p, nil
}

func (r *sqliteProductRepo) ListBySHG(ctx context.Context, shgID int64) ([]shg.Product, error) {
	rows, err := r.executor.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE shg_id = ? ORDER BY id`, shgID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list products")
	}
	defer rows.Close()

	out := []shg.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan product")
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate products")
	}
	return out, nil
}

func (r *sqliteProductRepo) CurrentStock(ctx context.Context, productID int64) (float64, error) {
	return latestQuantity(ctx, r.executor, productID)
}

func latestQuantity(ctx context.Context, ex queryExecutor, productID int64) (float64, error) {
	var qty numeric
	err := ex.QueryRowContext(ctx,
		`SELECT quantity FROM inventory WHERE product_id = ? ORDER BY id DESC LIMIT 1`, productID,
	).Scan(&qty)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read current stock")
	}
	return qty.Float(), nil
}

func (r *sqliteProductRepo) AppendSnapshot(ctx context.Context, s *shg.InventorySnapshot) error {
	return appendSnapshot(ctx, r.executor, s)
}

func (r *sqliteProductRepo) AdjustStock(ctx context.Context, productID int64, delta float64, t *shg.Transaction) (*shg.InventorySnapshot, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	tx, err := r.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	current, err := latestQuantity(ctx, tx, productID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	s := &shg.InventorySnapshot{ProductID: productID, Quantity: current + delta}
	if err := appendSnapshot(ctx, tx, s); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := insertTransaction(ctx, tx, t); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit stock adjustment")
	}
	r.log.Debug("Adjusted stock",
		logging.Int64("product_id", productID),
		logging.Float64("delta", delta),
		logging.Float64("quantity", s.Quantity),
		logging.String("tx_type", string(t.Type)),
	)
	return s, nil
}

func appendSnapshot(ctx context.Context, ex queryExecutor, s *shg.InventorySnapshot) error {
	if s.ProductID <= 0 {
		return errors.New(errors.ErrCodeInvalidRecord, "snapshot must belong to a product")
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now()
	}
	res, err := ex.ExecContext(ctx,
		`INSERT INTO inventory (product_id, quantity, updated_at) VALUES (?, ?, ?)`,
		s.ProductID, s.Quantity, s.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to append inventory snapshot")
	}
	if s.ID, err = res.LastInsertId(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read snapshot id")
	}
	return nil
}

func scanProduct(sc scanner) (*shg.Product, error) {
	var (
		p              shg.Product
		category, unit text
		cost, sell     numeric
		created        timestamp
	)
	if err := sc.Scan(&p.ID, &p.SHGID, &p.Name, &category, &unit, &cost, &sell, &created); err != nil {
		return nil, err
	}
	p.Category = category.String()
	p.Unit = unit.String()
	p.CostPrice = cost.Float()
	p.SellingPrice = sell.Float()
	p.CreatedAt = created.t
	return &p, nil
}
