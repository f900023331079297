package repositories

import (
	"context"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/database/sqlite"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

type sqliteTransactionRepo struct {
	conn     *sqlite.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewTransactionRepo returns the SQLite ledger repository.
func NewTransactionRepo(conn *sqlite.Connection, log logging.Logger) shg.TransactionRepository {
	return &sqliteTransactionRepo{conn: conn, log: log, executor: conn.DB()}
}

func (r *sqliteTransactionRepo) Create(ctx context.Context, t *shg.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return insertTransaction(ctx, r.executor, t)
}

func insertTransaction(ctx context.Context, ex queryExecutor, t *shg.Transaction) error {
	if t.TxDate == "" {
		t.TxDate = now().Format("2006-01-02")
	}
	res, err := ex.ExecContext(ctx, `
		INSERT INTO transactions (shg_id, member_id, product_id, tx_date, quantity, amount, tx_type, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.SHGID, optionalID(t.MemberID), optionalID(t.ProductID), t.TxDate,
		t.Quantity, t.Amount, string(t.Type), t.Description,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create transaction")
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read transaction id")
	}
	return nil
}

func (r *sqliteTransactionRepo) ListBySHG(ctx context.Context, shgID int64) ([]shg.Transaction, error) {
	rows, err := r.executor.QueryContext(ctx, `
		SELECT id, shg_id, member_id, product_id, tx_date, quantity, amount, tx_type, description
		FROM transactions WHERE shg_id = ? ORDER BY tx_date, id`, shgID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list transactions")
	}
	defer rows.Close()

	out := []shg.Transaction{}
	for rows.Next() {
		var (
			t                   shg.Transaction
			memberID, productID nullID
			date, typ, desc     text
			qty, amount         numeric
		)
		if err := rows.Scan(&t.ID, &t.SHGID, &memberID, &productID, &date, &qty, &amount, &typ, &desc); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan transaction")
		}
		t.MemberID = memberID.ptr()
		t.ProductID = productID.ptr()
		t.TxDate = date.String()
		t.Quantity = qty.Float()
		t.Amount = amount.Float()
		t.Type = shg.TxType(typ.String())
		t.Description = desc.String()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate transactions")
	}
	return out, nil
}
