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

type sqliteSHGRepo struct {
	conn     *sqlite.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewSHGRepo returns the SQLite SHG repository.
func NewSHGRepo(conn *sqlite.Connection, log logging.Logger) shg.SHGRepository {
	return &sqliteSHGRepo{conn: conn, log: log, executor: conn.DB()}
}

func (r *sqliteSHGRepo) Create(ctx context.Context, s *shg.SHG) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now()
	}
	res, err := r.executor.ExecContext(ctx,
		`INSERT INTO shg (name, village, district, state, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.Name, s.Village, s.District, s.State, s.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create shg")
	}
	if s.ID, err = res.LastInsertId(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read shg id")
	}
	r.log.Debug("Created shg", logging.Int64("shg_id", s.ID), logging.String("name", s.Name))
	return nil
}

func (r *sqliteSHGRepo) GetByID(ctx context.Context, id int64) (*shg.SHG, error) {
	row := r.executor.QueryRowContext(ctx,
		`SELECT id, name, village, district, state, created_at FROM shg WHERE id = ?`, id)
	s, err := scanSHG(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeSHGNotFound, fmt.Sprintf("shg %d not found", id))
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get shg")
	}
	return s, nil
}

func (r *sqliteSHGRepo) List(ctx context.Context) ([]shg.SHG, error) {
	rows, err := r.executor.QueryContext(ctx,
		`SELECT id, name, village, district, state, created_at FROM shg ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list shgs")
	}
	defer rows.Close()

	out := []shg.SHG{}
	for rows.Next() {
		s, err := scanSHG(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan shg")
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate shgs")
	}
	return out, nil
}

func scanSHG(sc scanner) (*shg.SHG, error) {
	var (
		s                        shg.SHG
		village, district, state text
		created                  timestamp
	)
	if err := sc.Scan(&s.ID, &s.Name, &village, &district, &state, &created); err != nil {
		return nil, err
	}
	s.Village = village.String()
	s.District = district.String()
	s.State = state.String()
	s.CreatedAt = created.t
	return &s, nil
}
