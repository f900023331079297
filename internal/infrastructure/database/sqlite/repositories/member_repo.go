package repositories

import (
	"context"

	"github.com/turtacn/SHG-Insights/internal/domain/shg"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/database/sqlite"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

type sqliteMemberRepo struct {
	conn     *sqlite.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewMemberRepo returns the SQLite member repository.
func NewMemberRepo(conn *sqlite.Connection, log logging.Logger) shg.MemberRepository {
	return &sqliteMemberRepo{conn: conn, log: log, executor: conn.DB()}
}

func (r *sqliteMemberRepo) Create(ctx context.Context, m *shg.Member) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = now()
	}
	res, err := r.executor.ExecContext(ctx,
		`INSERT INTO member (shg_id, name, phone, role, joined_at) VALUES (?, ?, ?, ?, ?)`,
		m.SHGID, m.Name, m.Phone, m.Role, m.JoinedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create member")
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read member id")
	}
	return nil
}

func (r *sqliteMemberRepo) List(ctx context.Context) ([]shg.Member, error) {
	rows, err := r.executor.QueryContext(ctx,
		`SELECT id, shg_id, name, phone, role, joined_at FROM member ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list members")
	}
	defer rows.Close()

	out := []shg.Member{}
	for rows.Next() {
		var (
			m           shg.Member
			phone, role text
			joined      timestamp
		)
		if err := rows.Scan(&m.ID, &m.SHGID, &m.Name, &phone, &role, &joined); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan member")
		}
		m.Phone = phone.String()
		m.Role = role.String()
		m.JoinedAt = joined.t
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate members")
	}
	return out, nil
}

func (r *sqliteMemberRepo) AddSkill(ctx context.Context, s *shg.MemberSkill) error {
	if err := s.Validate(); err != nil {
		return err
	}
	res, err := r.executor.ExecContext(ctx,
		`INSERT INTO member_skills (member_id, skill_category, sub_skill, years_experience) VALUES (?, ?, ?, ?)`,
		s.MemberID, s.SkillCategory, s.SubSkill, s.YearsExperience,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to add member skill")
	}
	if s.ID, err = res.LastInsertId(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read skill id")
	}
	return nil
}

func (r *sqliteMemberRepo) ListSkills(ctx context.Context) ([]shg.MemberSkill, error) {
	rows, err := r.executor.QueryContext(ctx,
		`SELECT id, member_id, skill_category, sub_skill, years_experience FROM member_skills ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list member skills")
	}
	defer rows.Close()

	out := []shg.MemberSkill{}
	for rows.Next() {
		var (
			s             shg.MemberSkill
			category, sub text
			years         numeric
		)
		if err := rows.Scan(&s.ID, &s.MemberID, &category, &sub, &years); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan member skill")
		}
		s.SkillCategory = category.String()
		s.SubSkill = sub.String()
		s.YearsExperience = years.Float()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate member skills")
	}
	return out, nil
}

const upsertFinancialSQL = `
	INSERT INTO member_financials (
		member_id, monthly_income, monthly_expense, credit_outstanding,
		loan_repayment_rate, savings, last_updated
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(member_id) DO UPDATE SET
		monthly_income = excluded.monthly_income,
		monthly_expense = excluded.monthly_expense,
		credit_outstanding = excluded.credit_outstanding,
		loan_repayment_rate = excluded.loan_repayment_rate,
		savings = excluded.savings,
		last_updated = excluded.last_updated
`

func (r *sqliteMemberRepo) UpsertFinancial(ctx context.Context, f *shg.MemberFinancial) error {
	if err := f.Validate(); err != nil {
		return err
	}
	f.LastUpdated = now()
	_, err := r.executor.ExecContext(ctx, upsertFinancialSQL,
		f.MemberID, f.MonthlyIncome, f.MonthlyExpense, f.CreditOutstanding,
		f.LoanRepaymentRate, f.Savings, f.LastUpdated,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to upsert member financials")
	}
	return nil
}

func (r *sqliteMemberRepo) ListFinancials(ctx context.Context) ([]shg.MemberFinancial, error) {
	rows, err := r.executor.QueryContext(ctx, `
		SELECT id, member_id, monthly_income, monthly_expense, credit_outstanding,
		       loan_repayment_rate, savings, last_updated
		FROM member_financials ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list member financials")
	}
	defer rows.Close()

	out := []shg.MemberFinancial{}
	for rows.Next() {
		var (
			f                                       shg.MemberFinancial
			income, expense, credit, repay, savings numeric
			updated                                 timestamp
		)
		if err := rows.Scan(&f.ID, &f.MemberID, &income, &expense, &credit, &repay, &savings, &updated); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan member financials")
		}
		f.MonthlyIncome = income.Float()
		f.MonthlyExpense = expense.Float()
		f.CreditOutstanding = credit.Float()
		f.LoanRepaymentRate = repay.Float()
		f.Savings = savings.Float()
		f.LastUpdated = updated.t
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate member financials")
	}
	return out, nil
}
