package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) Begin(ctx context.Context) (ledger.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning ledger tx: %w", err)
	}

	return &ledgerTx{tx: dbTx}, nil
}

const selectAccountColumns = `id, initial_capital, current_capital, currency`

func scanAccount(s scanner) (*ledger.Account, error) {
	var acct ledger.Account

	var initial decimal.NullDecimal

	var currency sql.NullString

	if err := s.Scan(&acct.UserID, &initial, &acct.CurrentCapital, &currency); err != nil {
		return nil, err
	}

	if initial.Valid {
		acct.InitialCapital = &initial.Decimal
	}

	if currency.Valid {
		acct.Currency = &currency.String
	}

	return &acct, nil
}

func getAccount(ctx context.Context, q querier, userID uuid.UUID, lock bool) (*ledger.Account, error) {
	query := `SELECT ` + selectAccountColumns + ` FROM users WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	acct, err := scanAccount(q.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user")
		}

		return nil, fmt.Errorf("getting account: %w", err)
	}

	return acct, nil
}

func (s *Store) GetAccount(ctx context.Context, userID uuid.UUID) (*ledger.Account, error) {
	return getAccount(ctx, s.db, userID, false)
}

const selectIncomeColumns = `id, user_id, category_id, amount, description, date, created_at`

func scanIncome(s scanner) (*ledger.Income, error) {
	var in ledger.Income
	if err := s.Scan(&in.ID, &in.UserID, &in.CategoryID, &in.Amount, &in.Description, &in.Date, &in.CreatedAt); err != nil {
		return nil, err
	}

	return &in, nil
}

func (s *Store) ListIncomes(ctx context.Context, userID uuid.UUID) ([]*ledger.Income, error) {
	query := `SELECT ` + selectIncomeColumns + ` FROM incomes WHERE user_id = $1 ORDER BY date DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing incomes: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Income

	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning income: %w", err)
		}

		out = append(out, in)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating incomes: %w", err)
	}

	return out, nil
}

const selectExpenseColumns = `id, user_id, category_id, savings_plan_id, amount, description, date, created_at`

func scanExpense(s scanner) (*ledger.Expense, error) {
	var ex ledger.Expense

	var planID *uuid.UUID

	if err := s.Scan(&ex.ID, &ex.UserID, &ex.CategoryID, &planID, &ex.Amount, &ex.Description, &ex.Date, &ex.CreatedAt); err != nil {
		return nil, err
	}

	ex.SavingsPlanID = planID

	return &ex, nil
}

func scanExpenses(rows *sql.Rows) ([]*ledger.Expense, error) {
	defer rows.Close()

	var out []*ledger.Expense

	for rows.Next() {
		ex, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}

		out = append(out, ex)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expenses: %w", err)
	}

	return out, nil
}

func (s *Store) ListExpenses(ctx context.Context, userID uuid.UUID) ([]*ledger.Expense, error) {
	query := `SELECT ` + selectExpenseColumns + ` FROM expenses WHERE user_id = $1 ORDER BY date DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}

	return scanExpenses(rows)
}

// entriesQuery merges both journals; callers append conditions on e.* using
// $1 for the user id.
const entriesQuery = `
	SELECT e.id, e.kind, e.category_id, c.name, e.savings_plan_id, e.amount, e.description, e.date, e.created_at
	FROM (
		SELECT id, 'income' AS kind, user_id, category_id, NULL::uuid AS savings_plan_id, amount, description, date, created_at
		FROM incomes
		UNION ALL
		SELECT id, 'expense' AS kind, user_id, category_id, savings_plan_id, amount, description, date, created_at
		FROM expenses
	) e
	JOIN categories c ON c.id = e.category_id
	WHERE e.user_id = $1`

func scanEntry(s scanner) (*ledger.Entry, error) {
	var e ledger.Entry

	var kind string

	var planID *uuid.UUID

	if err := s.Scan(&e.ID, &kind, &e.CategoryID, &e.CategoryName, &planID, &e.Amount, &e.Description, &e.Date, &e.CreatedAt); err != nil {
		return nil, err
	}

	e.Kind = ledger.Kind(kind)
	e.SavingsPlanID = planID

	return &e, nil
}

func listEntries(ctx context.Context, q querier, userID uuid.UUID, filter ledger.EntryFilter) ([]*ledger.Entry, error) {
	query := entriesQuery
	args := []any{userID}
	argIdx := 2

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND e.date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND e.date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
	}

	query += " ORDER BY e.date DESC, e.created_at DESC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Entry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}

		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	return out, nil
}

func (s *Store) ListEntries(ctx context.Context, userID uuid.UUID, filter ledger.EntryFilter) ([]*ledger.Entry, error) {
	return listEntries(ctx, s.db, userID, filter)
}

func (s *Store) SumEntries(ctx context.Context, userID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT
			COALESCE((SELECT SUM(amount) FROM incomes WHERE user_id = $1), 0),
			COALESCE((SELECT SUM(amount) FROM expenses WHERE user_id = $1), 0)
	`

	var income, expense decimal.Decimal
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&income, &expense); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("summing entries: %w", err)
	}

	return income, expense, nil
}

func (s *Store) MonthlySums(ctx context.Context, userID uuid.UUID, year int) ([]ledger.MonthlyTotal, error) {
	query := `
		SELECT month, SUM(income), SUM(expense)
		FROM (
			SELECT EXTRACT(MONTH FROM date)::int AS month, amount AS income, 0::numeric AS expense
			FROM incomes
			WHERE user_id = $1 AND date >= make_date($2, 1, 1) AND date < make_date($2 + 1, 1, 1)
			UNION ALL
			SELECT EXTRACT(MONTH FROM date)::int, 0::numeric, amount
			FROM expenses
			WHERE user_id = $1 AND date >= make_date($2, 1, 1) AND date < make_date($2 + 1, 1, 1)
		) t
		GROUP BY month
		ORDER BY month
	`

	rows, err := s.db.QueryContext(ctx, query, userID, year)
	if err != nil {
		return nil, fmt.Errorf("summing months: %w", err)
	}
	defer rows.Close()

	var out []ledger.MonthlyTotal

	for rows.Next() {
		var (
			month int
			total ledger.MonthlyTotal
		)

		if err := rows.Scan(&month, &total.Income, &total.Expense); err != nil {
			return nil, fmt.Errorf("scanning month: %w", err)
		}

		total.Month = time.Month(month)
		out = append(out, total)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating months: %w", err)
	}

	return out, nil
}
