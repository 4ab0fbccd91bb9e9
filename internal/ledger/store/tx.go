package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/database"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

// ledgerTx implements ledger.Tx over a single database transaction.
type ledgerTx struct {
	tx *sql.Tx
}

func (t *ledgerTx) Commit() error { return t.tx.Commit() }

func (t *ledgerTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}

	return nil
}

func (t *ledgerTx) LockAccount(ctx context.Context, userID uuid.UUID) (*ledger.Account, error) {
	return getAccount(ctx, t.tx, userID, true)
}

func (t *ledgerTx) AdjustBalance(ctx context.Context, userID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE users
		SET current_capital = current_capital + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING current_capital
	`

	var balance decimal.Decimal
	if err := t.tx.QueryRowContext(ctx, query, userID, delta).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, apperr.NotFound("user")
		}

		if database.IsNumericOutOfRange(err) {
			return decimal.Zero, apperr.Invalid("amount", "would take the balance out of range")
		}

		return decimal.Zero, fmt.Errorf("adjusting balance: %w", err)
	}

	return balance, nil
}

func (t *ledgerTx) SetInitialCapital(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE users SET initial_capital = $2, updated_at = NOW() WHERE id = $1`

	if _, err := t.tx.ExecContext(ctx, query, userID, amount); err != nil {
		return fmt.Errorf("setting initial capital: %w", err)
	}

	return nil
}

func (t *ledgerTx) CategoryVisible(ctx context.Context, categoryID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1 AND (is_default OR user_id = $2))`

	var ok bool
	if err := t.tx.QueryRowContext(ctx, query, categoryID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking category: %w", err)
	}

	return ok, nil
}

func (t *ledgerTx) CategoryByName(ctx context.Context, name string) (uuid.UUID, error) {
	var id uuid.UUID

	err := t.tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = $1 AND is_default`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, apperr.NotFound("category")
		}

		return uuid.Nil, fmt.Errorf("looking up category %q: %w", name, err)
	}

	return id, nil
}

func (t *ledgerTx) CreateIncome(ctx context.Context, in *ledger.Income) error {
	query := `
		INSERT INTO incomes (user_id, category_id, amount, description, date, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`

	err := t.tx.QueryRowContext(ctx, query,
		in.UserID, in.CategoryID, in.Amount, in.Description, in.Date,
	).Scan(&in.ID, &in.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("creating income: %w", apperr.NotFound("category"))
		}

		return fmt.Errorf("creating income: %w", err)
	}

	return nil
}

func (t *ledgerTx) CreateExpense(ctx context.Context, ex *ledger.Expense) error {
	query := `
		INSERT INTO expenses (user_id, category_id, savings_plan_id, amount, description, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`

	err := t.tx.QueryRowContext(ctx, query,
		ex.UserID, ex.CategoryID, ex.SavingsPlanID, ex.Amount, ex.Description, ex.Date,
	).Scan(&ex.ID, &ex.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("creating expense: %w", apperr.NotFound("category"))
		}

		return fmt.Errorf("creating expense: %w", err)
	}

	return nil
}

// FindDuplicates returns the user's journal entries in the batch's date range
// that match an incoming entry on date, kind, amount and description.
func (t *ledgerTx) FindDuplicates(ctx context.Context, userID uuid.UUID, entries []ledger.BatchEntry) ([]*ledger.Entry, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	type lookupKey struct {
		Date        string
		Kind        ledger.Kind
		Amount      string
		Description string
	}

	minDate := entries[0].Date
	maxDate := entries[0].Date
	keySet := make(map[lookupKey]struct{}, len(entries))

	for _, e := range entries {
		if e.Date.Before(minDate) {
			minDate = e.Date
		}

		if e.Date.After(maxDate) {
			maxDate = e.Date
		}

		keySet[lookupKey{
			Date:        e.Date.Format("2006-01-02"),
			Kind:        e.Kind,
			Amount:      e.Amount.StringFixed(2),
			Description: e.Description,
		}] = struct{}{}
	}

	existing, err := listEntries(ctx, t.tx, userID, ledger.EntryFilter{StartDate: &minDate, EndDate: &maxDate})
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}

	var duplicates []*ledger.Entry

	for _, e := range existing {
		k := lookupKey{
			Date:        e.Date.Format("2006-01-02"),
			Kind:        e.Kind,
			Amount:      e.Amount.StringFixed(2),
			Description: e.Description,
		}

		if _, found := keySet[k]; found {
			duplicates = append(duplicates, e)
		}
	}

	return duplicates, nil
}

func (t *ledgerTx) CreatePlan(ctx context.Context, plan *ledger.SavingsPlan) error {
	query := `
		INSERT INTO savings_plans (user_id, name, start_date, target_date, target_amount, initial_amount, accumulated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`

	err := t.tx.QueryRowContext(ctx, query,
		plan.UserID, plan.Name, plan.StartDate, plan.TargetDate,
		plan.TargetAmount, plan.InitialAmount, plan.Accumulated,
	).Scan(&plan.ID, &plan.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating savings plan: %w", err)
	}

	return nil
}

func (t *ledgerTx) LockPlan(ctx context.Context, id uuid.UUID) (*ledger.SavingsPlan, error) {
	return getPlan(ctx, t.tx, id, true)
}

func (t *ledgerTx) AddToPlan(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE savings_plans
		SET accumulated = accumulated + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING accumulated
	`

	var accumulated decimal.Decimal
	if err := t.tx.QueryRowContext(ctx, query, id, amount).Scan(&accumulated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, apperr.NotFound("savings plan")
		}

		return decimal.Zero, fmt.Errorf("adding to savings plan: %w", err)
	}

	return accumulated, nil
}

func (t *ledgerTx) UpdatePlan(ctx context.Context, plan *ledger.SavingsPlan) error {
	query := `
		UPDATE savings_plans
		SET name = $2, start_date = $3, target_date = $4, target_amount = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := t.tx.QueryRowContext(ctx, query,
		plan.ID, plan.Name, plan.StartDate, plan.TargetDate, plan.TargetAmount,
	).Scan(&plan.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("savings plan")
		}

		return fmt.Errorf("updating savings plan: %w", err)
	}

	return nil
}

func (t *ledgerTx) DeletePlanExpenses(ctx context.Context, planID uuid.UUID) ([]*ledger.Expense, error) {
	query := `DELETE FROM expenses WHERE savings_plan_id = $1 RETURNING ` + selectExpenseColumns

	rows, err := t.tx.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("deleting plan expenses: %w", err)
	}

	return scanExpenses(rows)
}

func (t *ledgerTx) DeletePlan(ctx context.Context, id uuid.UUID) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM savings_plans WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting savings plan: %w", err)
	}

	return nil
}

func (t *ledgerTx) GetSubscription(ctx context.Context, id uuid.UUID) (*ledger.Subscription, error) {
	return getSubscription(ctx, t.tx, id)
}
